package model

import (
	"fmt"

	"DomainQL/internal/mapping"
	"DomainQL/internal/operator"
	"DomainQL/internal/primitive"
	"DomainQL/internal/schema"
)

// buildTable is phase one for the mapping side: relations stay unbound.
func buildTable(d *Domain) (*mapping.Table, error) {
	root := mapping.NewObject()
	if err := fillMapping(root, d.Name, d.Fields); err != nil {
		return nil, err
	}
	return mapping.NewTable(d.Name, d.Table, d.PrimaryKey, root)
}

func fillMapping(o *mapping.Object, path string, fields Fields) error {
	for _, f := range fields {
		id := primitive.SnakeToCamel(f.Name)
		where := path + "." + f.Name
		switch {
		case f.IsRelation():
			switch f.Relation {
			case OneToOne:
				o.Add(id, mapping.NewOneToOne(f.Domain, f.FK))
			case OneToMany:
				o.Add(id, mapping.NewOneToMany(f.Domain, f.FK))
			case ManyToMany:
				o.Add(id, mapping.NewManyToMany(f.Domain, f.Junction, f.ParentKey, f.ChildKey))
			}
		case f.IsEmbedded():
			e := mapping.NewEmbedded()
			if err := fillMapping(&e.Object, where, f.Fields); err != nil {
				return err
			}
			o.Add(id, e)
		default:
			_, conv, err := columnDefault(f)
			if err != nil {
				return fmt.Errorf("field %s: %w", where, err)
			}
			column := f.Column
			if column == "" {
				column = f.Name
			}
			o.Add(id, &mapping.Column{Name: column, Converter: conv})
		}
	}
	return nil
}

// columnDefault resolves the converter of a column and the default that types
// it for callers. Either may be omitted in YAML, not both.
func columnDefault(f *Field) (any, *mapping.Converter, error) {
	if f.Converter == "" {
		if f.Default == nil {
			return nil, nil, fmt.Errorf("needs a converter or a default")
		}
		conv, err := mapping.ConverterFor(f.Default)
		return f.Default, conv, err
	}
	conv, err := mapping.LookupConverter(f.Converter)
	if err != nil {
		return nil, nil, err
	}
	if f.Default == nil {
		return zeroValue(conv.Kind()), conv, nil
	}
	if kind, _ := primitive.Probe(f.Default); kind != conv.Kind() {
		return nil, nil, fmt.Errorf("default %v is a %s, converter %s expects a %s", f.Default, kind, conv.Name, conv.Kind())
	}
	return f.Default, conv, nil
}

func zeroValue(k primitive.Kind) any {
	switch k {
	case primitive.KindNumber:
		return 0
	case primitive.KindBoolean:
		return false
	case primitive.KindDate:
		return "1970-01-01"
	}
	return ""
}

// acceptLiteral checks filter values against the column converter at build
// time, so a value it cannot render is an input error rather than a failed query.
func acceptLiteral(conv *mapping.Converter) func(any) error {
	if conv == nil {
		return nil
	}
	return func(v any) error {
		_, err := conv.Literal(v)
		return err
	}
}

// buildView is phase one for one role: links stay unbound.
func buildView(d *Domain, roleName string, role *Role) (*View, error) {
	excluded := map[string]bool{}
	for _, p := range role.Exclude {
		excluded[p] = true
	}
	root, err := schemaObject(d.Fields, "", excluded, role.Authorized)
	if err != nil {
		return nil, fmt.Errorf("domain %s role %s: %w", d.Name, roleName, err)
	}
	key := make([]string, len(d.NaturalKey))
	for i, k := range d.NaturalKey {
		key[i] = primitive.SnakeToCamel(k)
	}
	dom, err := schema.NewDomain(d.Name, roleName, key, root)
	if err != nil {
		return nil, err
	}
	return &View{Schema: dom, DefaultLimit: role.DefaultLimit, MaxLimit: role.MaxLimit}, nil
}

func schemaObject(fields Fields, prefix string, excluded map[string]bool, authorized map[string][]any) (*schema.Object, error) {
	o := schema.NewObject()
	for _, f := range fields {
		path := f.Name
		if prefix != "" {
			path = prefix + "." + f.Name
		}
		if excluded[path] {
			continue
		}
		id := primitive.SnakeToCamel(f.Name)
		switch {
		case f.Relation == OneToOne:
			o.Add(id, schema.NewLinked(f.Domain))
		case f.IsRelation():
			o.Add(id, schema.NewLinkedArray(f.Domain))
		case f.IsEmbedded():
			child, err := schemaObject(f.Fields, path, excluded, authorized)
			if err != nil {
				return nil, err
			}
			// an object whose fields are all hidden is hidden too
			if len(child.Names()) > 0 {
				o.Add(id, child)
			}
		default:
			def, conv, err := columnDefault(f)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", path, err)
			}
			o.Add(id, &schema.Scalar{
				Default:    def,
				Authorized: authorized[path],
				Caps:       operator.Capabilities{ByRange: f.ByRange, ByList: f.ByList},
				Accept:     acceptLiteral(conv),
			})
		}
	}
	return o, nil
}

// link is phase two: every relation and link is bound by domain name.
func (r *Registry) link() error {
	for _, name := range r.names {
		if err := r.tables[name].Bind(r.Table); err != nil {
			return err
		}
		for role, v := range r.views[name] {
			lookup := func(target string) (*schema.Domain, error) {
				tv, err := r.linkedView(target, role)
				if err != nil {
					return nil, err
				}
				return tv.Schema, nil
			}
			if err := v.Schema.Bind(lookup); err != nil {
				return err
			}
		}
	}
	return nil
}

// linkedView falls back to the target's default role when it does not define role.
func (r *Registry) linkedView(domain, role string) (*View, error) {
	roles, ok := r.views[domain]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDomain, domain)
	}
	if v, ok := roles[role]; ok {
		return v, nil
	}
	if v, ok := roles[DefaultRole]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("domain %s defines neither role %q nor %q", domain, role, DefaultRole)
}
