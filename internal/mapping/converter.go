package mapping

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"DomainQL/internal/primitive"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/lib/pq"
)

// Converter moves values between the request and SQL. Literal and Pattern are
// the only places user values are escaped; both reject values of the wrong kind.
type Converter struct {
	Name    string
	kind    primitive.Kind
	literal func(any) (string, error)
	fromSQL func(any) any
}

func (c *Converter) Kind() primitive.Kind {
	return c.kind
}

func (c *Converter) Literal(v any) (string, error) {
	if v == nil {
		return "", fmt.Errorf("%s: NULL is not a valid value", c.Name)
	}
	return c.literal(v)
}

func (c *Converter) Pattern(v any) (string, error) {
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case time.Time:
		s = t.Format(time.RFC3339)
	case nil:
		return "", fmt.Errorf("%s: NULL is not a valid pattern", c.Name)
	default:
		if !primitive.IsNumber(v) {
			return "", fmt.Errorf("%s: cannot match %T", c.Name, v)
		}
		s = fmt.Sprint(v)
	}
	return pq.QuoteLiteral("%" + s + "%"), nil
}

// FromSQL normalizes a driver value into the result representation.
func (c *Converter) FromSQL(v any) any {
	if v == nil {
		return nil
	}
	return c.fromSQL(v)
}

var converters = map[string]*Converter{
	"string":   {Name: "string", kind: primitive.KindString, literal: stringLiteral, fromSQL: textValue},
	"text":     {Name: "text", kind: primitive.KindString, literal: stringLiteral, fromSQL: textValue},
	"integer":  {Name: "integer", kind: primitive.KindNumber, literal: integerLiteral, fromSQL: integerValue},
	"number":   {Name: "number", kind: primitive.KindNumber, literal: numberLiteral, fromSQL: numberValue},
	"boolean":  {Name: "boolean", kind: primitive.KindBoolean, literal: booleanLiteral, fromSQL: booleanValue},
	"date":     {Name: "date", kind: primitive.KindDate, literal: dateLiteral(time.DateOnly), fromSQL: dateValue(time.DateOnly)},
	"datetime": {Name: "datetime", kind: primitive.KindDate, literal: dateLiteral(time.RFC3339Nano), fromSQL: dateValue(time.RFC3339Nano)},
	"id":       {Name: "id", kind: primitive.KindString, literal: idLiteral, fromSQL: idValue},
}

// LookupConverter returns the named converter.
func LookupConverter(name string) (*Converter, error) {
	c, ok := converters[name]
	if !ok {
		return nil, fmt.Errorf("unknown converter %q", name)
	}
	return c, nil
}

// ConverterFor picks the converter matching a scalar default value.
func ConverterFor(def any) (*Converter, error) {
	kind, ok := primitive.Probe(def)
	if !ok {
		return nil, fmt.Errorf("default %v (%T) has no primitive type", def, def)
	}
	switch kind {
	case primitive.KindBoolean:
		return converters["boolean"], nil
	case primitive.KindNumber:
		if _, ok := primitive.AsInt64(def); ok {
			return converters["integer"], nil
		}
		return converters["number"], nil
	case primitive.KindDate:
		return converters["date"], nil
	}
	return converters["string"], nil
}

// KeyConverter renders primary and foreign key values for IN lists.
func KeyConverter() *Converter {
	return converters["id"]
}

func stringLiteral(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("value %v is not a string", v)
	}
	return pq.QuoteLiteral(s), nil
}

func integerLiteral(v any) (string, error) {
	n, ok := primitive.AsInt64(v)
	if !ok {
		return "", fmt.Errorf("value %v is not an integer", v)
	}
	return strconv.FormatInt(n, 10), nil
}

func numberLiteral(v any) (string, error) {
	if n, ok := primitive.AsInt64(v); ok {
		return strconv.FormatInt(n, 10), nil
	}
	switch f := v.(type) {
	case float32:
		return strconv.FormatFloat(float64(f), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(f, 'f', -1, 64), nil
	}
	return "", fmt.Errorf("value %v is not a number", v)
}

// booleans are stored as 0/1
func booleanLiteral(v any) (string, error) {
	if b, ok := v.(bool); ok {
		if b {
			return "1", nil
		}
		return "0", nil
	}
	if n, ok := primitive.AsInt64(v); ok && (n == 0 || n == 1) {
		return strconv.FormatInt(n, 10), nil
	}
	return "", fmt.Errorf("value %v is not a boolean", v)
}

func dateLiteral(layout string) func(any) (string, error) {
	return func(v any) (string, error) {
		switch t := v.(type) {
		case time.Time:
			return pq.QuoteLiteral(t.Format(layout)), nil
		case string:
			if primitive.IsISODateString(t) {
				return pq.QuoteLiteral(t), nil
			}
		}
		return "", fmt.Errorf("value %v is not an ISO date", v)
	}
}

var digits = regexp.MustCompile(`^[0-9]+$`)

func idLiteral(v any) (string, error) {
	if n, ok := primitive.AsInt64(v); ok {
		return strconv.FormatInt(n, 10), nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("value %v is not a key", v)
	}
	if digits.MatchString(s) && len(s) < 19 {
		return s, nil
	}
	return pq.QuoteLiteral(s), nil
}

func textValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

func integerValue(v any) any {
	switch t := v.(type) {
	case []byte:
		if n, err := strconv.ParseInt(string(t), 10, 64); err == nil {
			return n
		}
		return string(t)
	case string:
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return n
		}
		return t
	}
	if n, ok := primitive.AsInt64(v); ok {
		return n
	}
	return v
}

func numberValue(v any) any {
	switch t := v.(type) {
	case []byte:
		if f, err := strconv.ParseFloat(string(t), 64); err == nil {
			return f
		}
		return string(t)
	case pgtype.Numeric:
		f, err := t.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	}
	return v
}

func booleanValue(v any) any {
	switch t := v.(type) {
	case bool:
		return t
	case []byte:
		b, err := strconv.ParseBool(string(t))
		if err != nil {
			return string(t)
		}
		return b
	case string:
		b, err := strconv.ParseBool(t)
		if err != nil {
			return t
		}
		return b
	}
	if n, ok := primitive.AsInt64(v); ok {
		return n != 0
	}
	return v
}

func dateValue(layout string) func(any) any {
	return func(v any) any {
		switch t := v.(type) {
		case time.Time:
			return t.Format(layout)
		case []byte:
			return trimDate(string(t), layout)
		case string:
			return trimDate(t, layout)
		}
		return v
	}
}

// trimDate cuts "2024-01-02 00:00:00" style driver strings down to a date.
func trimDate(s, layout string) string {
	if layout == time.DateOnly && len(s) > len(time.DateOnly) && primitive.IsISODateString(s[:len(time.DateOnly)]) {
		return s[:len(time.DateOnly)]
	}
	return s
}

func idValue(v any) any {
	switch t := v.(type) {
	case []byte:
		return string(t)
	case string:
		return t
	}
	if n, ok := primitive.AsInt64(v); ok {
		return strconv.FormatInt(n, 10)
	}
	return fmt.Sprint(v)
}
