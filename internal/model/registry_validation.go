package model

import (
	"fmt"
	"strings"

	"DomainQL/internal/primitive"
)

// validateDomain checks one domain on its own; links to other domains are
// checked when the registry is built.
func validateDomain(d *Domain) error {
	if d.Table == "" {
		return fmt.Errorf("domain %s: table is required", d.Name)
	}
	if len(d.NaturalKey) == 0 {
		return fmt.Errorf("domain %s: natural_key is required", d.Name)
	}
	if len(d.Fields) == 0 {
		return fmt.Errorf("domain %s: no fields", d.Name)
	}
	if err := validateFields(d.Name, d.Fields); err != nil {
		return err
	}
	for _, key := range d.NaturalKey {
		f := d.Fields.Get(key)
		if f == nil {
			return fmt.Errorf("domain %s: natural key %q is not a field", d.Name, key)
		}
		if f.IsRelation() || f.IsEmbedded() {
			return fmt.Errorf("domain %s: natural key %q must be a column", d.Name, key)
		}
	}
	for name, role := range d.Roles {
		if err := validateRole(d, name, role); err != nil {
			return err
		}
	}
	return nil
}

func validateFields(path string, fields Fields) error {
	seen := map[string]bool{}
	for _, f := range fields {
		where := path + "." + f.Name
		if !primitive.RoundTrips(f.Name) {
			return fmt.Errorf("field %s: name must be snake_case", where)
		}
		if seen[f.Name] {
			return fmt.Errorf("field %s: declared twice", where)
		}
		seen[f.Name] = true

		switch {
		case f.IsRelation():
			if f.Column != "" || f.Converter != "" || f.Default != nil || len(f.Fields) > 0 {
				return fmt.Errorf("field %s: a relation has no column, converter, default or fields", where)
			}
			if f.Domain == "" {
				return fmt.Errorf("field %s: relation needs a domain", where)
			}
			if err := validateRelationKeys(where, f); err != nil {
				return err
			}
		case f.IsEmbedded():
			if f.Column != "" || f.Converter != "" || f.Default != nil {
				return fmt.Errorf("field %s: an embedded object has only fields", where)
			}
			if err := validateFields(where, f.Fields); err != nil {
				return err
			}
		default:
			if f.Domain != "" || f.FK != "" || f.Junction != "" || f.ParentKey != "" || f.ChildKey != "" {
				return fmt.Errorf("field %s: relation keys without relation", where)
			}
		}
	}
	return nil
}

func validateRelationKeys(where string, f *Field) error {
	switch f.Relation {
	case OneToOne, OneToMany:
		if f.FK == "" {
			return fmt.Errorf("field %s: %s needs fk", where, f.Relation)
		}
		if f.Junction != "" || f.ParentKey != "" || f.ChildKey != "" {
			return fmt.Errorf("field %s: junction keys are only for %s", where, ManyToMany)
		}
	case ManyToMany:
		if f.Junction == "" || f.ParentKey == "" || f.ChildKey == "" {
			return fmt.Errorf("field %s: %s needs junction, parent_key and child_key", where, ManyToMany)
		}
		if f.FK != "" {
			return fmt.Errorf("field %s: fk is not used by %s", where, ManyToMany)
		}
	default:
		return fmt.Errorf("field %s: unknown relation %q", where, f.Relation)
	}
	return nil
}

func validateRole(d *Domain, name string, r *Role) error {
	where := d.Name + "." + name
	for _, path := range r.Exclude {
		if _, err := d.Fields.Find(path); err != nil {
			return fmt.Errorf("role %s: exclude %q: %w", where, path, err)
		}
	}
	for path, values := range r.Authorized {
		f, err := d.Fields.Find(path)
		if err != nil {
			return fmt.Errorf("role %s: authorized %q: %w", where, path, err)
		}
		if f.IsRelation() || f.IsEmbedded() {
			return fmt.Errorf("role %s: authorized %q must name a column", where, path)
		}
		if len(values) == 0 {
			return fmt.Errorf("role %s: authorized %q has no values", where, path)
		}
	}
	if r.DefaultLimit < 0 || r.MaxLimit < 0 {
		return fmt.Errorf("role %s: limits must not be negative", where)
	}
	if r.MaxLimit > 0 && r.DefaultLimit > r.MaxLimit {
		return fmt.Errorf("role %s: default_limit %d exceeds max_limit %d", where, r.DefaultLimit, r.MaxLimit)
	}
	return nil
}

// Get returns the field declared under name.
func (fs Fields) Get(name string) *Field {
	for _, f := range fs {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Find walks a dotted path through embedded objects. A relation may only be the
// last segment.
func (fs Fields) Find(path string) (*Field, error) {
	parts := strings.Split(path, ".")
	cur := fs
	for i, part := range parts {
		f := cur.Get(part)
		if f == nil {
			return nil, fmt.Errorf("unknown field %q", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			return f, nil
		}
		if !f.IsEmbedded() {
			return nil, fmt.Errorf("%q has no nested fields", strings.Join(parts[:i+1], "."))
		}
		cur = f.Fields
	}
	return nil, fmt.Errorf("empty path")
}
