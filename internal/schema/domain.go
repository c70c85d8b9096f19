package schema

import (
	"errors"
	"fmt"

	"DomainQL/internal/primitive"
	"DomainQL/internal/query"
)

// Domain is the field tree a single role sees for a named domain.
type Domain struct {
	Name       string
	Role       string
	NaturalKey []string
	Root       *Object
}

// NewDomain validates the tree; an empty or dangling natural key is a configuration error.
func NewDomain(name, role string, naturalKey []string, root *Object) (*Domain, error) {
	if name == "" {
		return nil, errors.New("schema: domain name is required")
	}
	if len(naturalKey) == 0 {
		return nil, fmt.Errorf("schema: domain %q (role %q) has an empty natural key", name, role)
	}
	if root == nil {
		return nil, fmt.Errorf("schema: domain %q (role %q) has no fields", name, role)
	}
	for _, key := range naturalKey {
		n, ok := root.Field(key)
		if !ok {
			return nil, fmt.Errorf("schema: natural key %q of %q is not a field of role %q", key, name, role)
		}
		if _, ok := n.(*Scalar); !ok {
			return nil, fmt.Errorf("schema: natural key %q of %q must be a scalar field", key, name)
		}
	}
	if err := validateObject(root, name); err != nil {
		return nil, err
	}
	return &Domain{Name: name, Role: role, NaturalKey: naturalKey, Root: root}, nil
}

func validateObject(o *Object, path string) error {
	for _, name := range o.names {
		switch c := o.fields[name].(type) {
		case *Scalar:
			if err := c.validate(); err != nil {
				return fmt.Errorf("schema: %s.%s: %w", path, primitive.CamelToSnake(name), err)
			}
		case *Object:
			if err := validateObject(c, path+"."+primitive.CamelToSnake(name)); err != nil {
				return err
			}
		}
	}
	return nil
}

// Bind resolves every linked-domain reference of the tree. lookup returns the
// tree of the named domain for this domain's role.
func (d *Domain) Bind(lookup func(domain string) (*Domain, error)) error {
	return bindObject(d.Root, d.Name, lookup)
}

func bindObject(o *Object, path string, lookup func(string) (*Domain, error)) error {
	for _, name := range o.names {
		var l *link
		switch c := o.fields[name].(type) {
		case *Object:
			if err := bindObject(c, path+"."+name, lookup); err != nil {
				return err
			}
			continue
		case *Linked:
			l = &c.link
		case *LinkedArray:
			l = &c.link
		default:
			continue
		}
		target, err := lookup(l.Domain)
		if err != nil {
			return fmt.Errorf("schema: bind %s.%s: %w", path, name, err)
		}
		l.Bind(target)
	}
	return nil
}

// Restrict adds the implicit authorized-values filters to out, following
// fields through relations that lead back into a domain already expanded.
func (d *Domain) Restrict(out *query.FilterTree, fields *query.FieldSet) {
	d.Root.Restrict(out, []string{d.Name}, fields)
	out.Prune()
}

// Describe renders the role's view of the domain with snake_case keys. A domain
// already on the expansion path is rendered as {"$ref": name}.
func (d *Domain) Describe() map[string]any {
	return map[string]any{
		"domain":      d.Name,
		"role":        d.Role,
		"natural_key": wireNames(d.NaturalKey),
		"fields":      d.Root.describe([]string{d.Name}),
	}
}

func (d *Domain) keySelection() *query.FieldSet {
	set := query.NewFieldSet()
	for _, k := range d.NaturalKey {
		set.Select(k)
	}
	return set
}

func (o *Object) describe(exclude []string) any {
	out := make(map[string]any, len(o.names))
	for _, name := range o.names {
		out[primitive.CamelToSnake(name)] = o.fields[name].describe(exclude)
	}
	return out
}

func wireNames(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = primitive.CamelToSnake(n)
	}
	return out
}
