// Package compiler turns a sanitized request into SQL over a domain's mapping,
// runs it through an executor and folds the flat rows back into the requested
// nested shape.
package compiler

import (
	"context"
	"errors"
	"time"

	"DomainQL/internal/cache"
	"DomainQL/internal/db"
	"DomainQL/internal/logger"
	"DomainQL/internal/mapping"
	"DomainQL/internal/query"

	"github.com/Masterminds/squirrel"
)

type Option func(*Table)

// WithCountCache serves repeated COUNT statements from c.
func WithCountCache(c cache.CountCache) Option {
	return func(t *Table) {
		t.counts = c
	}
}

// Table compiles and executes requests for one domain.
type Table struct {
	mapping *mapping.Table
	exec    db.Executor
	counts  cache.CountCache
}

func New(m *mapping.Table, exec db.Executor, opts ...Option) (*Table, error) {
	if m == nil {
		return nil, errors.New("compiler: mapping table is nil")
	}
	if exec == nil {
		return nil, errors.New("compiler: executor is nil")
	}
	t := &Table{mapping: m, exec: exec}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

func (t *Table) Mapping() *mapping.Table {
	return t.mapping
}

// Statement is a compiled request: the unpaginated COUNT, the paginated data
// query and the plan used to read their rows back.
type Statement struct {
	Count string
	Data  string
	Plan  *mapping.Plan
}

func (t *Table) Compile(req *query.DomainRequest) (*Statement, error) {
	plan, err := t.mapping.Plan(req.Fields)
	if err != nil {
		return nil, err
	}
	where, err := plan.Where(req.Filters)
	if err != nil {
		return nil, err
	}
	order, err := plan.OrderBy(req.Options.OrderBy)
	if err != nil {
		return nil, err
	}

	count := withJoins(squirrel.Select("COUNT(*) AS total").From(t.mapping.Name), plan)
	data := withJoins(squirrel.Select(columns(plan)...).From(t.mapping.Name), plan)
	if where != nil {
		count = count.Where(where)
		data = data.Where(where)
	}
	data = data.OrderBy(order...).Limit(uint64(req.Options.Pagination.Limit))
	if req.Options.Pagination.Offset > 0 {
		data = data.Offset(uint64(req.Options.Pagination.Offset))
	}

	countSQL, _, err := count.ToSql()
	if err != nil {
		return nil, err
	}
	dataSQL, _, err := data.ToSql()
	if err != nil {
		return nil, err
	}
	return &Statement{Count: countSQL, Data: dataSQL, Plan: plan}, nil
}

// Fetch runs the COUNT, the data query and one follow-up query per requested
// relation, strictly in that order. Execution errors are recorded in the
// report; a failed data query leaves the results empty.
func (t *Table) Fetch(ctx context.Context, req *query.DomainRequest) *query.DomainResult {
	res := query.NewDomainResult(req.Name)
	stmt, err := t.Compile(req)
	if err != nil {
		logger.Error("compile_failed", map[string]any{
			"domain": req.Name,
			"error":  err.Error(),
		})
		res.Errors = append(res.Errors, err.Error())
		return res
	}

	res.Total = t.count(ctx, stmt.Count, res)
	rows, err := t.run(ctx, stmt.Data, res)
	if err != nil {
		return res
	}
	res.Results = fold(stmt.Plan, rows)
	t.resolve(ctx, stmt.Plan, rows, res.Results, res)
	return res
}

func (t *Table) count(ctx context.Context, sql string, res *query.DomainResult) int64 {
	key := cache.Key(sql)
	if t.counts != nil {
		if n, ok := t.counts.Get(ctx, key); ok {
			logger.Debug("count_cache_hit", map[string]any{"domain": t.mapping.Domain})
			return n
		}
	}
	rows, err := t.run(ctx, sql, res)
	if err != nil || len(rows) == 0 {
		return 0
	}
	n, ok := total(rows[0]["total"])
	if !ok {
		return 0
	}
	if t.counts != nil {
		t.counts.Set(ctx, key, n)
	}
	return n
}

// run executes one statement and records it in the report.
func (t *Table) run(ctx context.Context, sql string, res *query.DomainResult) ([]db.Row, error) {
	start := time.Now()
	rows, err := t.exec.Query(ctx, sql)
	entry := query.ReportEntry{Request: sql, TimeInMs: time.Since(start).Milliseconds()}
	if err != nil {
		entry.Error = err.Error()
		logger.Warn("query_failed", map[string]any{
			"domain": t.mapping.Domain,
			"sql":    sql,
			"error":  err.Error(),
		})
	} else {
		logger.Debug("query_executed", map[string]any{
			"domain":  t.mapping.Domain,
			"sql":     sql,
			"rows":    len(rows),
			"time_ms": entry.TimeInMs,
		})
	}
	res.Report.Requests = append(res.Report.Requests, entry)
	return rows, err
}

func withJoins(sb squirrel.SelectBuilder, plan *mapping.Plan) squirrel.SelectBuilder {
	for _, j := range plan.Joins {
		if j.Inner {
			sb = sb.Join(j.SQL())
		} else {
			sb = sb.LeftJoin(j.SQL())
		}
	}
	return sb
}

func columns(plan *mapping.Plan) []string {
	out := make([]string, len(plan.Columns))
	for i, c := range plan.Columns {
		out[i] = c.SQL()
	}
	return out
}
