// Package operator defines the closed set of filter comparisons. The sanitizer
// uses it to decide which operators a field accepts and how values must look;
// the compiler uses the same table to render SQL fragments.
package operator

import (
	"fmt"

	"DomainQL/internal/primitive"
)

type Operator string

const (
	Equals              Operator = "equals"
	GreaterThan         Operator = "greaterThan"
	GreaterThanOrEquals Operator = "greaterThanOrEquals"
	LesserThan          Operator = "lesserThan"
	LesserThanOrEquals  Operator = "lesserThanOrEquals"
	Between             Operator = "between"
	Contains            Operator = "contains"
	// Includes ties follow-up rows to their parents; never accepted from input.
	Includes Operator = "includes"
)

// Public lists the operators callers may send, in documentation order.
var Public = []Operator{
	Equals, GreaterThan, GreaterThanOrEquals, LesserThan, LesserThanOrEquals, Between, Contains,
}

// Capabilities are the per-field opt-ins for range and list filtering.
type Capabilities struct {
	ByRange bool
	ByList  bool
}

// Wire returns the snake_case name used in requests.
func (o Operator) Wire() string {
	return primitive.CamelToSnake(string(o))
}

// Parse resolves a wire operator name. Internal operators are rejected.
func Parse(wire string) (Operator, bool) {
	if !primitive.RoundTrips(wire) {
		return "", false
	}
	name := Operator(primitive.SnakeToCamel(wire))
	for _, op := range Public {
		if op == name {
			return op, true
		}
	}
	return "", false
}

// Allowed returns the operators a field of the given kind exposes.
func Allowed(kind primitive.Kind, caps Capabilities) []Operator {
	if kind == primitive.KindBoolean {
		return []Operator{Equals}
	}
	ops := []Operator{Equals, GreaterThan, GreaterThanOrEquals, LesserThan, LesserThanOrEquals, Contains}
	if caps.ByRange {
		ops = append(ops, Between)
	}
	return ops
}

func IsAllowed(op Operator, kind primitive.Kind, caps Capabilities) bool {
	for _, a := range Allowed(kind, caps) {
		if a == op {
			return true
		}
	}
	return false
}

// Validate checks the value shape of a comparison for a field of the given kind.
// The returned error text is user facing.
func Validate(op Operator, kind primitive.Kind, caps Capabilities, value any) error {
	if !IsAllowed(op, kind, caps) {
		return fmt.Errorf("operator '%s' is not allowed for this field", op.Wire())
	}
	list, isList := value.([]any)
	switch op {
	case Between:
		if !isList || len(list) != 2 {
			return fmt.Errorf("operator 'between' expects a list of exactly 2 %s values", kind)
		}
		return validateItems(kind, list)
	case Equals, Contains:
		if !isList {
			return validateScalar(kind, value)
		}
		if !caps.ByList {
			return fmt.Errorf("list values are not allowed for this field")
		}
		if len(list) < 2 {
			return fmt.Errorf("operator '%s' with a list expects at least 2 values, got %d", op.Wire(), len(list))
		}
		return validateItems(kind, list)
	default:
		if isList {
			return fmt.Errorf("operator '%s' expects a single value", op.Wire())
		}
		return validateScalar(kind, value)
	}
}

func validateScalar(kind primitive.Kind, v any) error {
	if v == nil {
		return fmt.Errorf("value is required")
	}
	if !primitive.Matches(kind, v) {
		return fmt.Errorf("value %v is not a %s", v, kind)
	}
	return nil
}

func validateItems(kind primitive.Kind, items []any) error {
	for i, v := range items {
		if err := validateScalar(kind, v); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}
