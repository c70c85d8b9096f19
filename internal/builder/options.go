package builder

import (
	"fmt"
	"strings"

	"DomainQL/internal/input"
	"DomainQL/internal/primitive"
	"DomainQL/internal/query"
)

func (b *Builder) options(in input.Node, out *query.Options) []query.InputError {
	obj, ok := in.(*input.Object)
	if !ok {
		return []query.InputError{optionError("options", "expected an object")}
	}
	var errs []query.InputError
	for _, key := range obj.Keys() {
		value, _ := obj.Get(key)
		switch key {
		case "limit":
			n, err := count(value)
			if err != nil {
				errs = append(errs, optionError(key, err.Error()))
				continue
			}
			out.Pagination.Limit = min(int(n), b.opts.MaxLimit)
		case "offset":
			n, err := count(value)
			if err != nil {
				errs = append(errs, optionError(key, err.Error()))
				continue
			}
			out.Pagination.Offset = int(n)
		case "orderby":
			order, err := b.orderBy(value)
			if err != nil {
				errs = append(errs, optionError(key, err.Error()))
				continue
			}
			out.OrderBy = order
		default:
			errs = append(errs, optionError(key, "unknown option"))
		}
	}
	return errs
}

// count accepts non-negative integral numbers only.
func count(n input.Node) (int64, error) {
	leaf, ok := n.(*input.Leaf)
	if !ok {
		return 0, fmt.Errorf("expected a number")
	}
	v, ok := primitive.AsInt64(leaf.Value)
	if !ok {
		return 0, fmt.Errorf("value %v is not a number", leaf.Value)
	}
	if v < 0 {
		return 0, fmt.Errorf("value %d must not be negative", v)
	}
	return v, nil
}

// orderBy parses "<field> asc|desc" where field is a dotted snake_case path
// through nested objects and one-to-one links.
func (b *Builder) orderBy(n input.Node) (*query.OrderBy, error) {
	leaf, ok := n.(*input.Leaf)
	s, isStr := "", false
	if ok {
		s, isStr = leaf.Value.(string)
	}
	if !isStr {
		return nil, fmt.Errorf("expected \"<field> asc|desc\"")
	}
	parts := strings.Fields(s)
	if len(parts) != 2 {
		return nil, fmt.Errorf("expected \"<field> asc|desc\", got %q", s)
	}
	dir := query.Direction(strings.ToLower(parts[1]))
	if dir != query.Asc && dir != query.Desc {
		return nil, fmt.Errorf("unknown direction %q", parts[1])
	}
	segments := strings.Split(parts[0], ".")
	path := make([]string, len(segments))
	for i, seg := range segments {
		if !primitive.RoundTrips(seg) {
			return nil, fmt.Errorf("invalid field name %q, expected snake_case", parts[0])
		}
		path[i] = primitive.SnakeToCamel(seg)
	}
	if _, err := b.domain.Root.Resolve(path); err != nil {
		return nil, fmt.Errorf("field %q: %w", parts[0], err)
	}
	return &query.OrderBy{Field: path, Direction: dir}, nil
}

func optionError(name, reason string) query.InputError {
	return query.InputError{Context: query.ContextOption, FieldName: name, Reason: reason}
}
