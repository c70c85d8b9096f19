package mapping

import (
	"fmt"
	"strings"

	"DomainQL/internal/primitive"
	"DomainQL/internal/query"
)

// Selected is one entry of the SELECT list. Path is the wire path the value
// folds into; hidden key columns have none.
type Selected struct {
	Expr      string
	Alias     string
	Path      []string
	Converter *Converter
}

func (s Selected) SQL() string {
	return fmt.Sprintf(`%s AS "%s"`, s.Expr, s.Alias)
}

type Join struct {
	Table string
	Alias string
	On    string
	Inner bool
}

// SQL renders the join target and condition, without the JOIN keyword.
func (j Join) SQL() string {
	if j.Alias == j.Table {
		return fmt.Sprintf("%s ON %s", j.Table, j.On)
	}
	return fmt.Sprintf("%s AS %s ON %s", j.Table, j.Alias, j.On)
}

// Relation is a requested one-to-many or many-to-many field. It never joins
// into the primary statement and is loaded by its own follow-up query.
type Relation struct {
	Path      []string
	Field     Field
	Fields    *query.FieldSet
	Filters   *query.FilterTree
	ParentKey string
}

func (r *Relation) Target() *Table {
	switch f := r.Field.(type) {
	case *OneToMany:
		return f.Target()
	case *ManyToMany:
		return f.Target()
	}
	panic(fmt.Sprintf("mapping: %T is not a relation", r.Field))
}

// Optional is a joined one-to-one object; it folds to null when KeyAlias is NULL.
type Optional struct {
	Path     []string
	KeyAlias string
}

// Plan is the result of walking a requested field tree over a table.
type Plan struct {
	Table     *Table
	Alias     string
	KeyAlias  string
	Columns   []Selected
	Joins     []Join
	Relations []*Relation
	Optional  []Optional

	used      map[string]int
	columns   map[string]int
	joins     map[string]string
	relations map[string]*Relation
}

// Plan walks fields depth-first collecting columns, one-to-one joins and relations.
func (t *Table) Plan(fields *query.FieldSet) (*Plan, error) {
	p := &Plan{
		Table:     t,
		used:      map[string]int{},
		columns:   map[string]int{},
		joins:     map[string]string{},
		relations: map[string]*Relation{},
	}
	p.Alias = p.Reserve(t.Name)
	p.KeyAlias = p.hidden(p.Alias, t.PrimaryKey)
	if err := p.walk(t.Root, fields, t, p.Alias, nil); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Plan) walk(o *Object, fields *query.FieldSet, t *Table, alias string, path []string) error {
	for _, name := range fields.Names() {
		f, ok := o.Field(name)
		at := appendPath(path, primitive.CamelToSnake(name))
		if !ok {
			return fmt.Errorf("mapping: %s has no mapping for %q", p.Table.Domain, strings.Join(at, "."))
		}
		if c, ok := f.(*Column); ok {
			p.column(alias, c, at)
			continue
		}
		sub := fields.Sub(name)
		if sub == nil {
			return fmt.Errorf("mapping: %s.%s needs a nested selection", p.Table.Domain, strings.Join(at, "."))
		}
		switch f := f.(type) {
		case *Embedded:
			if err := p.walk(&f.Object, sub, t, alias, at); err != nil {
				return err
			}
		case *OneToOne:
			target := f.Target()
			joined := p.join(alias, f, at)
			p.Optional = append(p.Optional, Optional{Path: at, KeyAlias: p.hidden(joined, target.PrimaryKey)})
			if err := p.walk(target.Root, sub, target, joined, at); err != nil {
				return err
			}
		case *OneToMany, *ManyToMany:
			rel := &Relation{
				Path:      at,
				Field:     f,
				Fields:    sub,
				Filters:   query.NewFilterTree(),
				ParentKey: p.hidden(alias, t.PrimaryKey),
			}
			p.Relations = append(p.Relations, rel)
			p.relations[pathKey(at)] = rel
		}
	}
	return nil
}

// Reserve returns an unused table alias, suffixing repeats with a counter.
func (p *Plan) Reserve(table string) string {
	n := p.used[table]
	p.used[table] = n + 1
	if n == 0 {
		return table
	}
	return fmt.Sprintf("%s_%d", table, n+1)
}

func (p *Plan) column(alias string, c *Column, path []string) {
	name := alias + "$" + c.Name
	if i, ok := p.columns[name]; ok {
		if p.Columns[i].Path == nil {
			p.Columns[i].Path = path
			p.Columns[i].Converter = c.Converter
			return
		}
		for n := 2; ok; n++ {
			name = fmt.Sprintf("%s$%s_%d", alias, c.Name, n)
			_, ok = p.columns[name]
		}
	}
	p.columns[name] = len(p.Columns)
	p.Columns = append(p.Columns, Selected{Expr: alias + "." + c.Name, Alias: name, Path: path, Converter: c.Converter})
}

// hidden selects a key column without folding it into results.
func (p *Plan) hidden(alias, column string) string {
	name := alias + "$" + column
	if _, ok := p.columns[name]; ok {
		return name
	}
	p.columns[name] = len(p.Columns)
	p.Columns = append(p.Columns, Selected{Expr: alias + "." + column, Alias: name})
	return name
}

// join returns the alias of the one-to-one join at path, adding it once.
func (p *Plan) join(parent string, f *OneToOne, path []string) string {
	key := pathKey(path)
	if alias, ok := p.joins[key]; ok {
		return alias
	}
	target := f.Target()
	alias := p.Reserve(target.Name)
	p.Joins = append(p.Joins, Join{
		Table: target.Name,
		Alias: alias,
		On:    fmt.Sprintf("%s.%s = %s.%s", parent, f.ForeignKey, alias, target.PrimaryKey),
	})
	p.joins[key] = alias
	return alias
}

// FollowUp is the plan of a relation query. KeyExpr is the column matched
// against parent ids; GroupAlias selects it for grouping rows by parent.
type FollowUp struct {
	*Plan
	KeyExpr    string
	GroupAlias string
}

func (r *Relation) FollowUp() (*FollowUp, error) {
	target := r.Target()
	p, err := target.Plan(r.Fields)
	if err != nil {
		return nil, err
	}
	fu := &FollowUp{Plan: p}
	switch f := r.Field.(type) {
	case *OneToMany:
		fu.KeyExpr = p.Alias + "." + f.ForeignKey
		fu.GroupAlias = p.hidden(p.Alias, f.ForeignKey)
	case *ManyToMany:
		junction := p.Reserve(f.Junction)
		p.Joins = append([]Join{{
			Table: f.Junction,
			Alias: junction,
			On:    fmt.Sprintf("%s.%s = %s.%s", junction, f.ChildKey, p.Alias, target.PrimaryKey),
			Inner: true,
		}}, p.Joins...)
		fu.KeyExpr = junction + "." + f.ParentKey
		fu.GroupAlias = p.hidden(junction, f.ParentKey)
	}
	return fu, nil
}

func appendPath(path []string, name string) []string {
	return append(path[:len(path):len(path)], name)
}

func pathKey(path []string) string {
	return strings.Join(path, ".")
}
