package compiler

import (
	"strconv"
	"strings"

	"DomainQL/internal/db"
	"DomainQL/internal/mapping"
	"DomainQL/internal/primitive"
)

func fold(plan *mapping.Plan, rows []db.Row) []map[string]any {
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		out = append(out, foldRow(plan, row))
	}
	return out
}

// foldRow places every selected column at its path, creating intermediate
// objects. A one-to-one object whose join matched nothing becomes null.
func foldRow(plan *mapping.Plan, row db.Row) map[string]any {
	item := map[string]any{}
	for _, c := range plan.Columns {
		if c.Path == nil {
			continue
		}
		setPath(item, c.Path, c.Converter.FromSQL(row[c.Alias]))
	}
	for _, o := range plan.Optional {
		if row[o.KeyAlias] == nil {
			setPath(item, o.Path, nil)
		}
	}
	return item
}

// setPath assigns v at path. It stops at an intermediate that is already set
// to something other than an object (a null one-to-one).
func setPath(m map[string]any, path []string, v any) {
	for _, seg := range path[:len(path)-1] {
		next, ok := m[seg].(map[string]any)
		if !ok {
			if _, exists := m[seg]; exists {
				return
			}
			next = map[string]any{}
			m[seg] = next
		}
		m = next
	}
	m[path[len(path)-1]] = v
}

func total(v any) (int64, bool) {
	switch t := v.(type) {
	case []byte:
		n, err := strconv.ParseInt(string(t), 10, 64)
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(t, 10, 64)
		return n, err == nil
	}
	return primitive.AsInt64(v)
}

func pathString(path []string) string {
	return strings.Join(path, ".")
}
