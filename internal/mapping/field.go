// Package mapping describes how domain fields reach physical columns: same-table
// columns, embedded objects, one-to-one joins and one-to-many / many-to-many
// follow-up queries. A Plan is the single walk of a requested field tree that
// the compiler turns into SQL.
package mapping

import (
	"fmt"
)

// Field is one of *Column, *Embedded, *OneToOne, *OneToMany or *ManyToMany.
type Field interface {
	field()
}

type Column struct {
	Name      string
	Converter *Converter
}

// Embedded groups fields of the same table under a nested key.
type Embedded struct {
	Object
}

// relation points at another domain's table, bound by name after every table is built.
type relation struct {
	Domain string
	target *Table
}

func (r *relation) Bind(t *Table) {
	r.target = t
}

func (r *relation) Bound() bool {
	return r.target != nil
}

// Target returns the bound table, panicking when Bind was never called.
func (r *relation) Target() *Table {
	if r.target == nil {
		panic(fmt.Sprintf("mapping: relation to %q used before Bind", r.Domain))
	}
	return r.target
}

// OneToOne joins the target on parent.ForeignKey = target.primary key.
type OneToOne struct {
	relation
	ForeignKey string
}

// OneToMany loads target rows whose ForeignKey references the parent primary key.
type OneToMany struct {
	relation
	ForeignKey string
}

// ManyToMany loads target rows through Junction: Junction.ParentKey references
// the parent, Junction.ChildKey the target.
type ManyToMany struct {
	relation
	Junction  string
	ParentKey string
	ChildKey  string
}

func NewOneToOne(domain, foreignKey string) *OneToOne {
	return &OneToOne{relation: relation{Domain: domain}, ForeignKey: foreignKey}
}

func NewOneToMany(domain, foreignKey string) *OneToMany {
	return &OneToMany{relation: relation{Domain: domain}, ForeignKey: foreignKey}
}

func NewManyToMany(domain, junction, parentKey, childKey string) *ManyToMany {
	return &ManyToMany{relation: relation{Domain: domain}, Junction: junction, ParentKey: parentKey, ChildKey: childKey}
}

func (*Column) field()     {}
func (*Embedded) field()   {}
func (*OneToOne) field()   {}
func (*OneToMany) field()  {}
func (*ManyToMany) field() {}

// Object is an ordered set of fields keyed by camelCase field id.
type Object struct {
	names  []string
	fields map[string]Field
}

func NewObject() *Object {
	return &Object{fields: map[string]Field{}}
}

func NewEmbedded() *Embedded {
	return &Embedded{Object: Object{fields: map[string]Field{}}}
}

func (o *Object) Add(name string, f Field) *Object {
	if _, ok := o.fields[name]; !ok {
		o.names = append(o.names, name)
	}
	o.fields[name] = f
	return o
}

func (o *Object) Field(name string) (Field, bool) {
	f, ok := o.fields[name]
	return f, ok
}

func (o *Object) Names() []string {
	return o.names
}

// Table maps one domain onto its primary table.
type Table struct {
	Domain     string
	Name       string
	PrimaryKey string
	Root       *Object
}

func NewTable(domain, name, primaryKey string, root *Object) (*Table, error) {
	if name == "" {
		return nil, fmt.Errorf("mapping: domain %q has no table", domain)
	}
	if primaryKey == "" {
		return nil, fmt.Errorf("mapping: table %q has no primary key", name)
	}
	if root == nil {
		root = NewObject()
	}
	return &Table{Domain: domain, Name: name, PrimaryKey: primaryKey, Root: root}, nil
}

// Bind resolves every relation target by domain name.
func (t *Table) Bind(lookup func(domain string) (*Table, error)) error {
	return bindObject(t.Root, t.Domain, lookup)
}

func bindObject(o *Object, path string, lookup func(string) (*Table, error)) error {
	for _, name := range o.names {
		var r *relation
		switch f := o.fields[name].(type) {
		case *Embedded:
			if err := bindObject(&f.Object, path+"."+name, lookup); err != nil {
				return err
			}
			continue
		case *OneToOne:
			r = &f.relation
		case *OneToMany:
			r = &f.relation
		case *ManyToMany:
			r = &f.relation
		default:
			continue
		}
		target, err := lookup(r.Domain)
		if err != nil {
			return fmt.Errorf("mapping: bind %s.%s: %w", path, name, err)
		}
		r.Bind(target)
	}
	return nil
}
