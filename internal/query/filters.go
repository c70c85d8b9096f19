package query

import "DomainQL/internal/operator"

type Bucket int

const (
	And Bucket = iota
	Or
)

func (b Bucket) String() string {
	if b == Or {
		return "or"
	}
	return "and"
}

type Comparison struct {
	Operator operator.Operator `json:"operator"`
	Value    any               `json:"value"`
}

// Filter targets one field. Exactly one of Comparison, AnyOf or Nested is set:
// AnyOf holds the implicit authorized-values restriction (any comparison matches),
// Nested holds filters on the fields of a nested object or linked domain.
type Filter struct {
	Field      string       `json:"field"`
	Comparison *Comparison  `json:"comparison,omitempty"`
	AnyOf      []Comparison `json:"anyOf,omitempty"`
	Nested     *FilterTree  `json:"nested,omitempty"`
}

type FilterTree struct {
	And []Filter `json:"and"`
	Or  []Filter `json:"or"`
}

func NewFilterTree() *FilterTree {
	return &FilterTree{And: []Filter{}, Or: []Filter{}}
}

func (t *FilterTree) Add(b Bucket, f Filter) {
	if b == Or {
		t.Or = append(t.Or, f)
		return
	}
	t.And = append(t.And, f)
}

func (t *FilterTree) Empty() bool {
	return t == nil || (len(t.And) == 0 && len(t.Or) == 0)
}

// HasExplicit reports whether field carries a caller comparison in the AND bucket.
func (t *FilterTree) HasExplicit(field string) bool {
	if t == nil {
		return false
	}
	for _, f := range t.And {
		if f.Field == field && f.Comparison != nil {
			return true
		}
	}
	return false
}

// NestedFor returns the AND-bucket nested tree for field, creating it when create is set.
func (t *FilterTree) NestedFor(field string, create bool) *FilterTree {
	for i := range t.And {
		if t.And[i].Field == field && t.And[i].Nested != nil {
			return t.And[i].Nested
		}
	}
	if !create {
		return nil
	}
	sub := NewFilterTree()
	t.And = append(t.And, Filter{Field: field, Nested: sub})
	return sub
}

// Prune drops nested trees that ended up empty.
func (t *FilterTree) Prune() {
	t.And = prune(t.And)
	t.Or = prune(t.Or)
}

func prune(in []Filter) []Filter {
	out := in[:0]
	for _, f := range in {
		if f.Nested != nil {
			f.Nested.Prune()
			if f.Nested.Empty() {
				continue
			}
		}
		out = append(out, f)
	}
	return out
}
