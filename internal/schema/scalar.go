package schema

import (
	"fmt"
	"reflect"

	"DomainQL/internal/input"
	"DomainQL/internal/operator"
	"DomainQL/internal/primitive"
	"DomainQL/internal/query"
)

// Scalar is a leaf field. Its kind is probed from Default. A non-empty
// Authorized list restricts the values the role may see. Accept, when set,
// rejects comparison values the column cannot store (1.5 for an integer).
type Scalar struct {
	Default    any
	Authorized []any
	Caps       operator.Capabilities
	Accept     func(v any) error
}

func (s *Scalar) Kind() primitive.Kind {
	k, _ := primitive.Probe(s.Default)
	return k
}

func (s *Scalar) Restricted() bool {
	return len(s.Authorized) > 0
}

// Operators lists what callers may send for this field.
func (s *Scalar) Operators() []operator.Operator {
	if s.Restricted() {
		return []operator.Operator{operator.Equals}
	}
	return operator.Allowed(s.Kind(), s.Caps)
}

func (s *Scalar) validate() error {
	kind, ok := primitive.Probe(s.Default)
	if !ok {
		return fmt.Errorf("default %v (%T) has no primitive type", s.Default, s.Default)
	}
	for _, v := range s.Authorized {
		if !primitive.Matches(kind, v) {
			return fmt.Errorf("authorized value %v is not a %s", v, kind)
		}
	}
	return nil
}

func (s *Scalar) authorized(v any) bool {
	for _, a := range s.Authorized {
		if sameValue(a, v) {
			return true
		}
	}
	return false
}

func (s *Scalar) sanitizeField(parent *input.Object, name string, out *query.FieldSet, prefix string) []query.InputError {
	wire := primitive.CamelToSnake(name)
	value, ok := parent.Get(wire)
	if !ok {
		return nil
	}
	if leaf, ok := value.(*input.Leaf); ok {
		if primitive.IsTruthy(leaf.Value) {
			out.Select(name)
			return nil
		}
		if isFalsy(leaf.Value) {
			return nil
		}
	}
	return []query.InputError{{Context: query.ContextSelected, FieldName: prefix + wire, Reason: "expected true or false"}}
}

func (s *Scalar) sanitizeFilter(value input.Node, name string, out *query.FilterTree, b query.Bucket, prefix string) []query.InputError {
	field := prefix + primitive.CamelToSnake(name)
	fail := func(format string, args ...any) []query.InputError {
		return []query.InputError{{Context: query.ContextFiltering, FieldName: field, Reason: fmt.Sprintf(format, args...)}}
	}

	obj, ok := value.(*input.Object)
	if !ok {
		return fail("expected {operator, value}")
	}
	for _, key := range obj.Keys() {
		if key != "operator" && key != "value" {
			return fail("unexpected key '%s' in comparison", key)
		}
	}
	opNode, hasOp := obj.Get("operator")
	valNode, hasVal := obj.Get("value")
	if !hasOp || !hasVal {
		return fail("expected {operator, value}")
	}
	opLeaf, ok := opNode.(*input.Leaf)
	opName, isStr := "", false
	if ok {
		opName, isStr = opLeaf.Value.(string)
	}
	if !isStr {
		return fail("operator must be a string")
	}
	op, ok := operator.Parse(opName)
	if !ok {
		return fail("unknown operator '%s'", opName)
	}
	v, ok := comparisonValue(valNode)
	if !ok {
		return fail("value must be a primitive or a list of primitives")
	}

	var errs []query.InputError
	valid := true
	if s.Restricted() {
		if op != operator.Equals {
			return fail("operator '%s' is not allowed on a restricted field", op.Wire())
		}
		for _, item := range asList(v) {
			if !s.authorized(item) {
				errs = append(errs, fail("value '%v' is not authorized", item)...)
				valid = false
			}
		}
	}
	if err := operator.Validate(op, s.Kind(), s.Caps, v); err != nil {
		errs = append(errs, fail("%s", err.Error())...)
		valid = false
	} else if s.Accept != nil && op != operator.Contains {
		// contains matches a substring pattern, not a stored value
		for _, item := range asList(v) {
			if err := s.Accept(item); err != nil {
				errs = append(errs, fail("%s", err.Error())...)
				valid = false
			}
		}
	}
	if valid {
		out.Add(b, query.Filter{Field: name, Comparison: &query.Comparison{Operator: op, Value: v}})
	}
	return errs
}

func (s *Scalar) restrict(name string, out *query.FilterTree, _ []string, _ *query.FieldSet) {
	if !s.Restricted() || out.HasExplicit(name) {
		return
	}
	anyOf := make([]query.Comparison, len(s.Authorized))
	for i, v := range s.Authorized {
		anyOf[i] = query.Comparison{Operator: operator.Equals, Value: v}
	}
	out.And = append(out.And, query.Filter{Field: name, AnyOf: anyOf})
}

func (s *Scalar) describe([]string) any {
	ops := s.Operators()
	wire := make([]string, len(ops))
	for i, op := range ops {
		wire[i] = op.Wire()
	}
	d := map[string]any{
		"type":      s.Kind().String(),
		"default":   s.Default,
		"operators": wire,
	}
	if s.Restricted() {
		d["authorized"] = s.Authorized
	}
	if s.Caps.ByList {
		d["by_list_of_value"] = true
	}
	if s.Caps.ByRange {
		d["by_range_of_value"] = true
	}
	return d
}

// comparisonValue flattens a leaf or a list of leaves.
func comparisonValue(n input.Node) (any, bool) {
	switch v := n.(type) {
	case *input.Leaf:
		return v.Value, true
	case *input.List:
		out := make([]any, len(v.Items))
		for i, item := range v.Items {
			leaf, ok := item.(*input.Leaf)
			if !ok {
				return nil, false
			}
			out[i] = leaf.Value
		}
		return out, true
	}
	return nil, false
}

func asList(v any) []any {
	if l, ok := v.([]any); ok {
		return l
	}
	return []any{v}
}

// sameValue compares numbers numerically, everything else by deep equality.
func sameValue(a, b any) bool {
	if primitive.IsNumber(a) && primitive.IsNumber(b) {
		return toFloat(a) == toFloat(b)
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) float64 {
	return reflect.ValueOf(v).Convert(reflect.TypeOf(float64(0))).Float()
}
