package compiler

import (
	"context"
	"fmt"

	"DomainQL/internal/db"
	"DomainQL/internal/logger"
	"DomainQL/internal/mapping"
	"DomainQL/internal/operator"
	"DomainQL/internal/query"

	"github.com/Masterminds/squirrel"
)

// resolve loads every relation of plan for the given parent rows, in
// declaration order, recursing into relations requested below them.
func (t *Table) resolve(ctx context.Context, plan *mapping.Plan, rows []db.Row, items []map[string]any, res *query.DomainResult) {
	for _, rel := range plan.Relations {
		children := t.loadRelation(ctx, rel, parentKeys(rows, rel.ParentKey), res)
		for i, row := range rows {
			key := row[rel.ParentKey]
			if key == nil {
				continue
			}
			list := children[fmt.Sprint(key)]
			if list == nil {
				list = []map[string]any{}
			}
			setPath(items[i], rel.Path, list)
		}
	}
}

// loadRelation runs the follow-up query of rel and groups its rows by parent key.
// Rows whose parent is not among ids are dropped.
func (t *Table) loadRelation(ctx context.Context, rel *mapping.Relation, ids []any, res *query.DomainResult) map[string][]map[string]any {
	grouped := map[string][]map[string]any{}
	if len(ids) == 0 {
		return grouped
	}
	fu, sql, err := followUp(rel, ids)
	if err != nil {
		logger.Error("compile_relation_failed", map[string]any{
			"domain":   t.mapping.Domain,
			"relation": pathString(rel.Path),
			"error":    err.Error(),
		})
		res.Errors = append(res.Errors, err.Error())
		return grouped
	}
	rows, err := t.run(ctx, sql, res)
	if err != nil {
		return grouped
	}
	items := fold(fu.Plan, rows)
	t.resolve(ctx, fu.Plan, rows, items, res)

	known := make(map[string]bool, len(ids))
	for _, id := range ids {
		known[fmt.Sprint(id)] = true
	}
	for i, row := range rows {
		key := fmt.Sprint(row[fu.GroupAlias])
		if !known[key] {
			logger.Debug("orphan_row_dropped", map[string]any{
				"relation": pathString(rel.Path),
				"key":      key,
			})
			continue
		}
		grouped[key] = append(grouped[key], items[i])
	}
	return grouped
}

// followUp compiles `SELECT ... WHERE <fk> IN (<ids>)` plus the relation's own filters.
func followUp(rel *mapping.Relation, ids []any) (*mapping.FollowUp, string, error) {
	fu, err := rel.FollowUp()
	if err != nil {
		return nil, "", err
	}
	includes, err := operator.Fragment(operator.Includes, fu.KeyExpr, ids, mapping.KeyConverter())
	if err != nil {
		return nil, "", err
	}
	where, err := fu.Where(rel.Filters)
	if err != nil {
		return nil, "", err
	}
	order, err := fu.OrderBy(nil)
	if err != nil {
		return nil, "", err
	}
	sb := withJoins(squirrel.Select(columns(fu.Plan)...).From(fu.Table.Name), fu.Plan).Where(includes)
	if where != nil {
		sb = sb.Where(where)
	}
	sql, _, err := sb.OrderBy(order...).ToSql()
	if err != nil {
		return nil, "", err
	}
	return fu, sql, nil
}

// parentKeys returns the distinct non-null values of alias, in row order.
func parentKeys(rows []db.Row, alias string) []any {
	seen := map[string]bool{}
	var ids []any
	for _, row := range rows {
		v := row[alias]
		if v == nil {
			continue
		}
		k := fmt.Sprint(v)
		if seen[k] {
			continue
		}
		seen[k] = true
		ids = append(ids, v)
	}
	return ids
}
