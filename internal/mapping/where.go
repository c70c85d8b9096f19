package mapping

import (
	"fmt"
	"strings"

	"DomainQL/internal/operator"
	"DomainQL/internal/primitive"
	"DomainQL/internal/query"

	"github.com/Masterminds/squirrel"
)

// Where renders filters as a WHERE predicate: the AND bucket joined by AND,
// the OR bucket parenthesized and AND-ed with the rest. Filters crossing a
// one-to-one link add its join. Filters on relations are moved onto the
// matching Relation and apply to its follow-up query. Returns nil when nothing
// remains to filter on.
func (p *Plan) Where(filters *query.FilterTree) (squirrel.Sqlizer, error) {
	if filters.Empty() {
		return nil, nil
	}
	return p.where(p.Table.Root, filters, p.Alias, nil)
}

func (p *Plan) where(o *Object, tree *query.FilterTree, alias string, path []string) (squirrel.Sqlizer, error) {
	and := squirrel.And{}
	for _, f := range tree.And {
		pred, err := p.filter(o, f, alias, path)
		if err != nil {
			return nil, err
		}
		if pred != nil {
			and = append(and, pred)
		}
	}
	or := squirrel.Or{}
	for _, f := range tree.Or {
		pred, err := p.filter(o, f, alias, path)
		if err != nil {
			return nil, err
		}
		if pred != nil {
			or = append(or, pred)
		}
	}
	if len(or) > 0 {
		and = append(and, or)
	}
	if len(and) == 0 {
		return nil, nil
	}
	return and, nil
}

func (p *Plan) filter(o *Object, f query.Filter, alias string, path []string) (squirrel.Sqlizer, error) {
	field, ok := o.Field(f.Field)
	at := appendPath(path, primitive.CamelToSnake(f.Field))
	if !ok {
		return nil, fmt.Errorf("mapping: %s has no mapping for filter %q", p.Table.Domain, pathKey(at))
	}
	switch m := field.(type) {
	case *Column:
		return comparison(alias+"."+m.Name, m.Converter, f, at)
	}
	if f.Nested == nil {
		return nil, fmt.Errorf("mapping: filter %q expects nested filters", pathKey(at))
	}
	switch m := field.(type) {
	case *Embedded:
		return p.where(&m.Object, f.Nested, alias, at)
	case *OneToOne:
		return p.where(m.Target().Root, f.Nested, p.join(alias, m, at), at)
	default:
		if rel, ok := p.relations[pathKey(at)]; ok {
			rel.Filters.And = append(rel.Filters.And, f.Nested.And...)
			rel.Filters.Or = append(rel.Filters.Or, f.Nested.Or...)
		}
		return nil, nil
	}
}

func comparison(column string, conv *Converter, f query.Filter, at []string) (squirrel.Sqlizer, error) {
	if f.Comparison != nil {
		pred, err := operator.Fragment(f.Comparison.Operator, column, f.Comparison.Value, conv)
		if err != nil {
			return nil, fmt.Errorf("mapping: filter %q: %w", pathKey(at), err)
		}
		return pred, nil
	}
	if len(f.AnyOf) == 0 {
		return nil, fmt.Errorf("mapping: filter %q has no comparison", pathKey(at))
	}
	or := make(squirrel.Or, 0, len(f.AnyOf))
	for _, c := range f.AnyOf {
		pred, err := operator.Fragment(c.Operator, column, c.Value, conv)
		if err != nil {
			return nil, fmt.Errorf("mapping: filter %q: %w", pathKey(at), err)
		}
		or = append(or, pred)
	}
	return or, nil
}

// OrderBy resolves the ORDER BY terms: the requested field, then the primary
// key as a tie-breaker. Without a request rows are ordered by primary key.
func (p *Plan) OrderBy(order *query.OrderBy) ([]string, error) {
	key := p.Alias + "." + p.Table.PrimaryKey
	if order == nil || len(order.Field) == 0 {
		return []string{key + " ASC"}, nil
	}
	o, alias := p.Table.Root, p.Alias
	var path []string
	for i, name := range order.Field {
		f, ok := o.Field(name)
		path = appendPath(path, primitive.CamelToSnake(name))
		if !ok {
			return nil, fmt.Errorf("mapping: %s has no mapping for %q", p.Table.Domain, pathKey(path))
		}
		last := i == len(order.Field)-1
		switch m := f.(type) {
		case *Column:
			if !last {
				return nil, fmt.Errorf("mapping: %q has no nested fields", pathKey(path))
			}
			expr := alias + "." + m.Name
			terms := []string{expr + " " + strings.ToUpper(string(order.Direction))}
			if expr != key {
				terms = append(terms, key+" ASC")
			}
			return terms, nil
		case *Embedded:
			o = &m.Object
		case *OneToOne:
			alias = p.join(alias, m, path)
			o = m.Target().Root
		default:
			return nil, fmt.Errorf("mapping: cannot order by list field %q", pathKey(path))
		}
	}
	return nil, fmt.Errorf("mapping: %q is not a column", pathKey(path))
}
