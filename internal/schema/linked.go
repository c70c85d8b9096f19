package schema

import (
	"fmt"
	"slices"

	"DomainQL/internal/input"
	"DomainQL/internal/primitive"
	"DomainQL/internal/query"
)

// link defers to another domain's tree, bound by name after every domain is built.
type link struct {
	Domain string
	target *Domain
}

func (l *link) Bind(d *Domain) {
	l.target = d
}

func (l *link) Bound() bool {
	return l.target != nil
}

func (l *link) domain() *Domain {
	if l.target == nil {
		panic(fmt.Sprintf("schema: linked domain %q used before Bind", l.Domain))
	}
	return l.target
}

// Linked references a single record of another domain (one-to-one).
type Linked struct {
	link
}

// LinkedArray references a list of records of another domain (one-to-many, many-to-many).
type LinkedArray struct {
	link
}

func NewLinked(domain string) *Linked {
	return &Linked{link{Domain: domain}}
}

func NewLinkedArray(domain string) *LinkedArray {
	return &LinkedArray{link{Domain: domain}}
}

func (l *Linked) sanitizeField(parent *input.Object, name string, out *query.FieldSet, prefix string) []query.InputError {
	return l.selectFields(parent, name, out, prefix)
}

func (l *LinkedArray) sanitizeField(parent *input.Object, name string, out *query.FieldSet, prefix string) []query.InputError {
	return l.selectFields(parent, name, out, prefix)
}

func (l *link) selectFields(parent *input.Object, name string, out *query.FieldSet, prefix string) []query.InputError {
	wire := primitive.CamelToSnake(name)
	value, ok := parent.Get(wire)
	if !ok {
		return nil
	}
	d := l.domain()
	switch v := value.(type) {
	case *input.Object:
		sub := query.NewFieldSet()
		errs := d.Root.SanitizeFields(v, sub, prefix+wire+".")
		out.Attach(name, sub)
		return errs
	case *input.Leaf:
		if primitive.IsTruthy(v.Value) {
			out.Attach(name, d.keySelection())
			return nil
		}
		if isFalsy(v.Value) {
			return nil
		}
	}
	return []query.InputError{{Context: query.ContextSelected, FieldName: prefix + wire, Reason: "expected an object of fields"}}
}

func (l *Linked) sanitizeFilter(value input.Node, name string, out *query.FilterTree, b query.Bucket, prefix string) []query.InputError {
	return sanitizeNested(l.domain().Root, value, name, out, b, prefix+primitive.CamelToSnake(name)+".")
}

func (l *LinkedArray) sanitizeFilter(value input.Node, name string, out *query.FilterTree, b query.Bucket, prefix string) []query.InputError {
	if b == query.Or {
		return []query.InputError{listInOr(prefix + primitive.CamelToSnake(name))}
	}
	return sanitizeNested(l.domain().Root, value, name, out, b, prefix+primitive.CamelToSnake(name)+".")
}

// Filters on list relations narrow the relation's own rows, so they cannot
// take part in an or group over the parent rows.
func listInOr(field string) query.InputError {
	return query.InputError{Context: query.ContextFiltering, FieldName: field, Reason: "list relation filters are not allowed in an or group"}
}

func (l *Linked) restrict(name string, out *query.FilterTree, exclude []string, fields *query.FieldSet) {
	l.restrictLinked(name, out, exclude, fields)
}

func (l *LinkedArray) restrict(name string, out *query.FilterTree, exclude []string, fields *query.FieldSet) {
	l.restrictLinked(name, out, exclude, fields)
}

// restrictLinked stops at a domain already on the path unless the request
// selects it there; the selection is finite, so expansion still terminates.
func (l *link) restrictLinked(name string, out *query.FilterTree, exclude []string, fields *query.FieldSet) {
	d := l.domain()
	if slices.Contains(exclude, d.Name) && fields == nil {
		return
	}
	path := append(exclude[:len(exclude):len(exclude)], d.Name)
	d.Root.Restrict(out.NestedFor(name, true), path, fields)
}

func (l *Linked) describe(exclude []string) any {
	return l.describeLinked("one", exclude)
}

func (l *LinkedArray) describe(exclude []string) any {
	return l.describeLinked("many", exclude)
}

func (l *link) describeLinked(cardinality string, exclude []string) any {
	d := l.domain()
	if slices.Contains(exclude, d.Name) {
		return map[string]any{"$ref": d.Name}
	}
	path := append(exclude[:len(exclude):len(exclude)], d.Name)
	return map[string]any{
		"domain":      d.Name,
		"cardinality": cardinality,
		"fields":      d.Root.describe(path),
	}
}
