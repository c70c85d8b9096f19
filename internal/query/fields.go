// Package query holds the sanitized request and the fetch result shared by the
// builder, the mapping and the compiler.
package query

import "encoding/json"

// FieldSet is an ordered selection of field ids. A name maps to nil when the
// scalar is selected, or to a nested set for objects and linked domains.
type FieldSet struct {
	order  []string
	nested map[string]*FieldSet
}

func NewFieldSet() *FieldSet {
	return &FieldSet{nested: map[string]*FieldSet{}}
}

// Select marks a scalar as selected. Selecting an existing name is a no-op.
func (s *FieldSet) Select(name string) {
	if _, ok := s.nested[name]; ok {
		return
	}
	s.order = append(s.order, name)
	s.nested[name] = nil
}

// Nest returns the nested set for name, creating it if needed.
func (s *FieldSet) Nest(name string) *FieldSet {
	if sub, ok := s.nested[name]; ok && sub != nil {
		return sub
	}
	if _, ok := s.nested[name]; !ok {
		s.order = append(s.order, name)
	}
	sub := NewFieldSet()
	s.nested[name] = sub
	return sub
}

// Attach sets an already built nested set; empty sets are ignored.
func (s *FieldSet) Attach(name string, sub *FieldSet) {
	if sub == nil || sub.Len() == 0 {
		return
	}
	if _, ok := s.nested[name]; !ok {
		s.order = append(s.order, name)
	}
	s.nested[name] = sub
}

func (s *FieldSet) Has(name string) bool {
	if s == nil {
		return false
	}
	_, ok := s.nested[name]
	return ok
}

// Sub returns the nested set for name, nil for scalars and missing names.
func (s *FieldSet) Sub(name string) *FieldSet {
	if s == nil {
		return nil
	}
	return s.nested[name]
}

func (s *FieldSet) Names() []string {
	if s == nil {
		return nil
	}
	return s.order
}

func (s *FieldSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Tree renders the set as nested maps of booleans, keyed by field id.
func (s *FieldSet) Tree() map[string]any {
	out := make(map[string]any, s.Len())
	for _, name := range s.Names() {
		if sub := s.nested[name]; sub != nil {
			out[name] = sub.Tree()
		} else {
			out[name] = true
		}
	}
	return out
}

func (s *FieldSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Tree())
}
