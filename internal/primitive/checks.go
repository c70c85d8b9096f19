// Package primitive holds the leaf-level type predicates and the naming
// converters shared by the schema, the mapping and the compiler.
package primitive

import (
	"regexp"
	"time"
)

// Kind is the primitive type of a scalar field or value.
type Kind int

const (
	KindUnknown Kind = iota
	KindString
	KindNumber
	KindBoolean
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	case KindDate:
		return "date"
	default:
		return "unknown"
	}
}

var isoDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

func IsString(v any) bool {
	_, ok := v.(string)
	return ok
}

func IsNumber(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	}
	return false
}

func IsBoolean(v any) bool {
	_, ok := v.(bool)
	return ok
}

func IsDate(v any) bool {
	_, ok := v.(time.Time)
	return ok
}

// IsISODateString accepts YYYY-MM-DD and RFC 3339 timestamps.
func IsISODateString(v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	if isoDate.MatchString(s) {
		_, err := time.Parse(time.DateOnly, s)
		return err == nil
	}
	_, err := time.Parse(time.RFC3339Nano, s)
	return err == nil
}

type probe struct {
	match func(any) bool
	kind  Kind
}

// most specific first: an ISO date string is also a string
var probes = []probe{
	{IsDate, KindDate},
	{IsISODateString, KindDate},
	{IsBoolean, KindBoolean},
	{IsNumber, KindNumber},
	{IsString, KindString},
}

// Probe returns the kind of the first predicate matching v.
func Probe(v any) (Kind, bool) {
	for _, p := range probes {
		if p.match(v) {
			return p.kind, true
		}
	}
	return KindUnknown, false
}

// Matches reports whether v is an acceptable value for a field of kind k.
// Booleans also accept 0 and 1, dates accept time.Time and ISO strings.
func Matches(k Kind, v any) bool {
	switch k {
	case KindString:
		return IsString(v)
	case KindNumber:
		return IsNumber(v)
	case KindBoolean:
		if IsBoolean(v) {
			return true
		}
		n, ok := AsInt64(v)
		return ok && (n == 0 || n == 1)
	case KindDate:
		return IsDate(v) || IsISODateString(v)
	}
	return false
}

// AsInt64 converts integral numbers, and floats without a fraction.
func AsInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), true
	case float32:
		if float32(int64(n)) == n {
			return int64(n), true
		}
	case float64:
		if float64(int64(n)) == n {
			return int64(n), true
		}
	}
	return 0, false
}

// IsTruthy is the selection rule for scalar fields: true or 1.
func IsTruthy(v any) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	n, ok := AsInt64(v)
	return ok && n == 1
}
