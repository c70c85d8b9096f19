package schema

import (
	"DomainQL/internal/input"
	"DomainQL/internal/primitive"
	"DomainQL/internal/query"
)

// SanitizeFilters resolves the filter object in into out. Top-level keys "and"
// and "or" hold lists of filter objects for the respective bucket; every
// other key is a field, placed in bucket b.
func (o *Object) SanitizeFilters(in input.Node, out *query.FilterTree, b query.Bucket, prefix string) []query.InputError {
	return o.sanitizeFilters(in, out, b, prefix, false)
}

func (o *Object) sanitizeFilters(in input.Node, out *query.FilterTree, b query.Bucket, prefix string, grouped bool) []query.InputError {
	obj, ok := in.(*input.Object)
	if !ok {
		return []query.InputError{{Context: query.ContextFiltering, FieldName: trimFilterPath(prefix), Reason: "expected an object of filters"}}
	}
	var errs []query.InputError
	for _, key := range obj.Keys() {
		value, _ := obj.Get(key)
		if key == "and" || key == "or" {
			if grouped {
				errs = append(errs, query.InputError{Context: query.ContextFiltering, FieldName: prefix + key, Reason: "nested and/or groups are not supported"})
				continue
			}
			bucket := query.And
			if key == "or" {
				bucket = query.Or
			}
			list, ok := value.(*input.List)
			if !ok {
				errs = append(errs, query.InputError{Context: query.ContextFiltering, FieldName: prefix + key, Reason: "expected a list of filters"})
				continue
			}
			for _, item := range list.Items {
				errs = append(errs, o.sanitizeFilters(item, out, bucket, prefix, true)...)
			}
			continue
		}
		name, child, err := o.lookup(query.ContextFiltering, key, prefix)
		if err != nil {
			errs = append(errs, *err)
			continue
		}
		errs = append(errs, child.sanitizeFilter(value, name, out, b, prefix)...)
	}
	return errs
}

// sanitizeNested filters the fields of a nested object or linked domain into a
// sub-tree attached under name.
func sanitizeNested(children *Object, value input.Node, name string, out *query.FilterTree, b query.Bucket, prefix string) []query.InputError {
	sub := query.NewFilterTree()
	errs := children.SanitizeFilters(value, sub, query.And, prefix)
	if b == query.Or {
		errs = append(errs, dropListFilters(children, sub, prefix)...)
	}
	if !sub.Empty() {
		out.Add(b, query.Filter{Field: name, Nested: sub})
	}
	return errs
}

// dropListFilters removes filters reaching a list relation from t, which sits
// in an or group through nested objects or one-to-one links.
func dropListFilters(o *Object, t *query.FilterTree, prefix string) []query.InputError {
	var errs []query.InputError
	keep := func(fs []query.Filter) []query.Filter {
		kept := fs[:0]
		for _, f := range fs {
			if f.Nested != nil {
				field := prefix + primitive.CamelToSnake(f.Field)
				switch c := o.fields[f.Field].(type) {
				case *LinkedArray:
					errs = append(errs, listInOr(field))
					continue
				case *Object:
					errs = append(errs, dropListFilters(c, f.Nested, field+".")...)
				case *Linked:
					errs = append(errs, dropListFilters(c.domain().Root, f.Nested, field+".")...)
				}
				if f.Nested.Empty() {
					continue
				}
			}
			kept = append(kept, f)
		}
		return kept
	}
	t.And = keep(t.And)
	t.Or = keep(t.Or)
	return errs
}

func trimFilterPath(prefix string) string {
	if prefix == "" {
		return "filters"
	}
	return prefix[:len(prefix)-1]
}
