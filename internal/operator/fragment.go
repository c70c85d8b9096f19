package operator

import (
	"fmt"
	"strings"

	"DomainQL/internal/primitive"

	"github.com/Masterminds/squirrel"
)

// Renderer turns already-validated values into SQL literals. Implementations
// are the only place escaping happens; fragments are emitted without args.
type Renderer interface {
	Kind() primitive.Kind
	Literal(v any) (string, error)
	// Pattern renders v wrapped in '%' wildcards as a quoted string literal.
	Pattern(v any) (string, error)
}

// Fragment renders `column <op> value` as a squirrel expression.
func Fragment(op Operator, column string, value any, r Renderer) (squirrel.Sqlizer, error) {
	list, isList := value.([]any)
	switch op {
	case Equals:
		if isList {
			return in(column, list, r)
		}
		return binary(column, "=", value, r)
	case GreaterThan:
		return binary(column, ">", value, r)
	case GreaterThanOrEquals:
		return binary(column, ">=", value, r)
	case LesserThan:
		return binary(column, "<", value, r)
	case LesserThanOrEquals:
		return binary(column, "<=", value, r)
	case Between:
		if !isList || len(list) != 2 {
			return nil, fmt.Errorf("between on %s: expected 2 values", column)
		}
		lo, err := r.Literal(list[0])
		if err != nil {
			return nil, err
		}
		hi, err := r.Literal(list[1])
		if err != nil {
			return nil, err
		}
		return squirrel.Expr(fmt.Sprintf("%s BETWEEN %s AND %s", column, lo, hi)), nil
	case Contains:
		target := column
		if r.Kind() != primitive.KindString {
			target = fmt.Sprintf("CAST(%s AS TEXT)", column)
		}
		if !isList {
			return like(target, value, r)
		}
		parts := make(squirrel.Or, 0, len(list))
		for _, v := range list {
			p, err := like(target, v, r)
			if err != nil {
				return nil, err
			}
			parts = append(parts, p)
		}
		return parts, nil
	case Includes:
		return in(column, list, r)
	}
	return nil, fmt.Errorf("unknown operator %q", op)
}

func binary(column, sign string, v any, r Renderer) (squirrel.Sqlizer, error) {
	lit, err := r.Literal(v)
	if err != nil {
		return nil, err
	}
	return squirrel.Expr(fmt.Sprintf("%s %s %s", column, sign, lit)), nil
}

func like(column string, v any, r Renderer) (squirrel.Sqlizer, error) {
	pat, err := r.Pattern(v)
	if err != nil {
		return nil, err
	}
	return squirrel.Expr(fmt.Sprintf("%s LIKE %s", column, pat)), nil
}

func in(column string, values []any, r Renderer) (squirrel.Sqlizer, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("IN on %s: empty value list", column)
	}
	lits := make([]string, len(values))
	for i, v := range values {
		lit, err := r.Literal(v)
		if err != nil {
			return nil, err
		}
		lits[i] = lit
	}
	return squirrel.Expr(fmt.Sprintf("%s IN (%s)", column, strings.Join(lits, ","))), nil
}
