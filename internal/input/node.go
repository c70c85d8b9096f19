// Package input models untrusted request payloads as a small recursive sum type,
// so the sanitizer matches on structure instead of probing dynamic values.
package input

import (
	"fmt"
	"sort"
)

// Node is one of *Leaf, *Object or *List.
type Node interface {
	node()
}

// Leaf holds a primitive value: string, int, float64, bool, time.Time or nil.
type Leaf struct {
	Value any
}

// Object keeps keys in their input order.
type Object struct {
	keys   []string
	fields map[string]Node
}

type List struct {
	Items []Node
}

func (*Leaf) node()   {}
func (*Object) node() {}
func (*List) node()   {}

func NewObject() *Object {
	return &Object{fields: map[string]Node{}}
}

// Set appends key, or replaces its value keeping the original position.
func (o *Object) Set(key string, n Node) *Object {
	if _, ok := o.fields[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.fields[key] = n
	return o
}

func (o *Object) Get(key string) (Node, bool) {
	if o == nil {
		return nil, false
	}
	n, ok := o.fields[key]
	return n, ok
}

func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	return o.keys
}

func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// FromAny converts decoded Go values (maps, slices, primitives) into a Node.
// Map keys are sorted since Go maps carry no order.
func FromAny(v any) (Node, error) {
	switch t := v.(type) {
	case Node:
		return t, nil
	case map[string]any:
		obj := NewObject()
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			child, err := FromAny(t[k])
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			obj.Set(k, child)
		}
		return obj, nil
	case []any:
		list := &List{Items: make([]Node, 0, len(t))}
		for i, item := range t {
			child, err := FromAny(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			list.Items = append(list.Items, child)
		}
		return list, nil
	case []string:
		list := &List{Items: make([]Node, 0, len(t))}
		for _, s := range t {
			list.Items = append(list.Items, &Leaf{Value: s})
		}
		return list, nil
	default:
		return &Leaf{Value: v}, nil
	}
}

// MustFromAny is FromAny for literals in tests and fixtures.
func MustFromAny(v any) Node {
	n, err := FromAny(v)
	if err != nil {
		panic(err)
	}
	return n
}

// ToAny converts a Node back into plain Go values.
func ToAny(n Node) any {
	switch t := n.(type) {
	case *Leaf:
		return t.Value
	case *Object:
		out := make(map[string]any, t.Len())
		for _, k := range t.keys {
			out[k] = ToAny(t.fields[k])
		}
		return out
	case *List:
		out := make([]any, len(t.Items))
		for i, item := range t.Items {
			out[i] = ToAny(item)
		}
		return out
	}
	return nil
}
