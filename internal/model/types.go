package model

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Domain описывает один YAML-файл домена
type Domain struct {
	Name       string           `yaml:"-"` // logical name, taken from the file name
	Table      string           `yaml:"table"`
	PrimaryKey string           `yaml:"primary_key"` // default "id"
	NaturalKey []string         `yaml:"natural_key"` // snake_case field names
	Fields     Fields           `yaml:"fields"`
	Roles      map[string]*Role `yaml:"roles"`
}

// Field is a column, a relation to another domain, or an embedded group of fields.
type Field struct {
	Name      string `yaml:"-"`
	Column    string `yaml:"column"`    // default: the field name
	Converter string `yaml:"converter"` // default: picked from Default
	Default   any    `yaml:"default"`
	ByList    bool   `yaml:"by_list"`
	ByRange   bool   `yaml:"by_range"`

	Relation  string `yaml:"relation"` // one_to_one, one_to_many, many_to_many
	Domain    string `yaml:"domain"`
	FK        string `yaml:"fk"`
	Junction  string `yaml:"junction"`
	ParentKey string `yaml:"parent_key"`
	ChildKey  string `yaml:"child_key"`

	Fields Fields `yaml:"fields"`
}

// Role narrows a domain for one caller role.
type Role struct {
	Exclude      []string         `yaml:"exclude"`    // dotted snake_case paths
	Authorized   map[string][]any `yaml:"authorized"` // dotted path -> allowed values
	DefaultLimit int              `yaml:"default_limit"`
	MaxLimit     int              `yaml:"max_limit"`
}

const (
	OneToOne   = "one_to_one"
	OneToMany  = "one_to_many"
	ManyToMany = "many_to_many"
)

// DefaultRole is used for callers without a role and as the fallback when a
// linked domain does not define the caller's role.
const DefaultRole = "default"

// Fields keeps the declaration order of a YAML mapping.
type Fields []*Field

func (fs *Fields) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: fields must be a mapping", node.Line)
	}
	out := make(Fields, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var f Field
		if err := node.Content[i+1].Decode(&f); err != nil {
			return fmt.Errorf("field %s: %w", node.Content[i].Value, err)
		}
		f.Name = node.Content[i].Value
		out = append(out, &f)
	}
	*fs = out
	return nil
}

func (f *Field) IsRelation() bool {
	return f.Relation != ""
}

func (f *Field) IsEmbedded() bool {
	return f.Relation == "" && len(f.Fields) > 0
}
