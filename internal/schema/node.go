// Package schema is the per-role field configuration tree. Each domain field is a
// scalar leaf, a nested object or a reference to another domain; the tree
// sanitizes untrusted field selections and filters into a query.DomainRequest.
package schema

import (
	"fmt"

	"DomainQL/internal/input"
	"DomainQL/internal/primitive"
	"DomainQL/internal/query"
)

// Node is one of *Scalar, *Object, *Linked or *LinkedArray.
type Node interface {
	sanitizeField(parent *input.Object, name string, out *query.FieldSet, prefix string) []query.InputError
	sanitizeFilter(value input.Node, name string, out *query.FilterTree, b query.Bucket, prefix string) []query.InputError
	restrict(name string, out *query.FilterTree, exclude []string, fields *query.FieldSet)
	describe(exclude []string) any
}

// Object is a nested object of the same domain; its children keep declaration order.
type Object struct {
	names  []string
	fields map[string]Node
}

func NewObject() *Object {
	return &Object{fields: map[string]Node{}}
}

// Add registers a child under its camelCase id.
func (o *Object) Add(name string, n Node) *Object {
	if _, ok := o.fields[name]; !ok {
		o.names = append(o.names, name)
	}
	o.fields[name] = n
	return o
}

func (o *Object) Field(name string) (Node, bool) {
	n, ok := o.fields[name]
	return n, ok
}

func (o *Object) Names() []string {
	return o.names
}

// SanitizeFields copies every selected child of in into out.
func (o *Object) SanitizeFields(in input.Node, out *query.FieldSet, prefix string) []query.InputError {
	obj, ok := in.(*input.Object)
	if !ok {
		return []query.InputError{{Context: query.ContextSelected, FieldName: trimPath(prefix), Reason: "expected an object of fields"}}
	}
	var errs []query.InputError
	for _, name := range o.names {
		errs = append(errs, o.fields[name].sanitizeField(obj, name, out, prefix)...)
	}
	return errs
}

// FindErrors walks in looking for keys the tree does not know and for keys
// whose camelCase form does not round-trip (usually a typo in casing).
func (o *Object) FindErrors(ctx query.ErrorContext, in input.Node, prefix string) []query.InputError {
	obj, ok := in.(*input.Object)
	if !ok {
		return nil
	}
	var errs []query.InputError
	for _, key := range obj.Keys() {
		_, child, err := o.lookup(ctx, key, prefix)
		if err != nil {
			errs = append(errs, *err)
			continue
		}
		value, _ := obj.Get(key)
		if nested := childrenOf(child); nested != nil {
			if _, isObj := value.(*input.Object); isObj {
				errs = append(errs, nested.FindErrors(ctx, value, prefix+key+".")...)
			}
		}
	}
	return errs
}

// lookup resolves a wire key to its field id and child node.
func (o *Object) lookup(ctx query.ErrorContext, key, prefix string) (string, Node, *query.InputError) {
	if !primitive.RoundTrips(key) {
		return "", nil, &query.InputError{Context: ctx, FieldName: prefix + key, Reason: "invalid field name, expected snake_case"}
	}
	name := primitive.SnakeToCamel(key)
	child, ok := o.fields[name]
	if !ok {
		return "", nil, &query.InputError{Context: ctx, FieldName: prefix + key, Reason: "unknown field"}
	}
	return name, child, nil
}

// Resolve follows a path of field ids through nested objects and one-to-one links.
func (o *Object) Resolve(path []string) (*Scalar, error) {
	if len(path) == 0 {
		return nil, fmt.Errorf("empty field path")
	}
	child, ok := o.fields[path[0]]
	if !ok {
		return nil, fmt.Errorf("unknown field")
	}
	switch c := child.(type) {
	case *Scalar:
		if len(path) > 1 {
			return nil, fmt.Errorf("'%s' has no nested fields", primitive.CamelToSnake(path[0]))
		}
		return c, nil
	case *Object:
		return c.Resolve(path[1:])
	case *Linked:
		return c.domain().Root.Resolve(path[1:])
	case *LinkedArray:
		return nil, fmt.Errorf("'%s' is a list and cannot be used here", primitive.CamelToSnake(path[0]))
	}
	return nil, fmt.Errorf("unknown field")
}

// Restrict adds the implicit authorized-values filters for every restricted
// field reachable from o. exclude lists the domains on the current expansion
// path; a domain on it is only expanded again where fields selects it.
func (o *Object) Restrict(out *query.FilterTree, exclude []string, fields *query.FieldSet) {
	for _, name := range o.names {
		o.fields[name].restrict(name, out, exclude, fields.Sub(name))
	}
}

func (o *Object) sanitizeField(parent *input.Object, name string, out *query.FieldSet, prefix string) []query.InputError {
	wire := primitive.CamelToSnake(name)
	value, ok := parent.Get(wire)
	if !ok {
		return nil
	}
	switch v := value.(type) {
	case *input.Object:
		sub := query.NewFieldSet()
		errs := o.SanitizeFields(v, sub, prefix+wire+".")
		out.Attach(name, sub)
		return errs
	case *input.Leaf:
		if primitive.IsTruthy(v.Value) {
			out.Attach(name, o.scalars())
			return nil
		}
		if isFalsy(v.Value) {
			return nil
		}
	}
	return []query.InputError{{Context: query.ContextSelected, FieldName: prefix + wire, Reason: "expected an object of fields"}}
}

func (o *Object) sanitizeFilter(value input.Node, name string, out *query.FilterTree, b query.Bucket, prefix string) []query.InputError {
	wire := primitive.CamelToSnake(name)
	return sanitizeNested(o, value, name, out, b, prefix+wire+".")
}

func (o *Object) restrict(name string, out *query.FilterTree, exclude []string, fields *query.FieldSet) {
	o.Restrict(out.NestedFor(name, true), exclude, fields)
}

// scalars selects every direct scalar child.
func (o *Object) scalars() *query.FieldSet {
	set := query.NewFieldSet()
	for _, name := range o.names {
		if _, ok := o.fields[name].(*Scalar); ok {
			set.Select(name)
		}
	}
	return set
}

// childrenOf returns the object whose fields a nested node exposes.
func childrenOf(n Node) *Object {
	switch c := n.(type) {
	case *Object:
		return c
	case *Linked:
		return c.domain().Root
	case *LinkedArray:
		return c.domain().Root
	}
	return nil
}

func isFalsy(v any) bool {
	if b, ok := v.(bool); ok {
		return !b
	}
	n, ok := primitive.AsInt64(v)
	return ok && n == 0
}

func trimPath(prefix string) string {
	if prefix == "" {
		return "fields"
	}
	return prefix[:len(prefix)-1]
}
