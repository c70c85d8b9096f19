package model

import (
	"fmt"

	"DomainQL/internal/mapping"

	"gopkg.in/yaml.v3"
)

// Разрешённые ключи для объектов
var allowedDomainKeys = map[string]bool{
	"table":       true,
	"primary_key": true,
	"natural_key": true,
	"fields":      true,
	"roles":       true,
}

var allowedFieldKeys = map[string]bool{
	"column":     true,
	"converter":  true,
	"default":    true,
	"by_list":    true,
	"by_range":   true,
	"relation":   true,
	"domain":     true,
	"fk":         true,
	"junction":   true,
	"parent_key": true,
	"child_key":  true,
	"fields":     true,
}

var allowedRoleKeys = map[string]bool{
	"exclude":       true,
	"authorized":    true,
	"default_limit": true,
	"max_limit":     true,
}

var allowedRelationValues = map[string]bool{
	OneToOne:   true,
	OneToMany:  true,
	ManyToMany: true,
}

func validateYAMLNode(node *yaml.Node, context string) error {
	switch node.Kind {
	case yaml.DocumentNode:
		for _, child := range node.Content {
			if err := validateYAMLNode(child, "domain"); err != nil {
				return err
			}
		}

	case yaml.MappingNode:
		var allowedKeys map[string]bool
		switch context {
		case "domain":
			allowedKeys = allowedDomainKeys
		case "field":
			allowedKeys = allowedFieldKeys
		case "role":
			allowedKeys = allowedRoleKeys
		default:
			allowedKeys = nil // свободная форма
		}

		for i := 0; i+1 < len(node.Content); i += 2 {
			keyNode := node.Content[i]
			valNode := node.Content[i+1]
			key := keyNode.Value

			if allowedKeys != nil && !allowedKeys[key] {
				return fmt.Errorf("line %d: unknown key '%s' in %s", keyNode.Line, key, context)
			}

			// Проверка допустимых значений
			if context == "field" && key == "relation" && !allowedRelationValues[valNode.Value] {
				return fmt.Errorf("line %d: unknown relation '%s'", valNode.Line, valNode.Value)
			}
			if context == "field" && key == "converter" {
				if _, err := mapping.LookupConverter(valNode.Value); err != nil {
					return fmt.Errorf("line %d: %w", valNode.Line, err)
				}
			}

			// Определяем новый контекст
			var nextContext string
			switch {
			case (context == "domain" || context == "field") && key == "fields":
				nextContext = "fields-map"
			case context == "fields-map":
				nextContext = "field"
			case context == "domain" && key == "roles":
				nextContext = "roles-map"
			case context == "roles-map":
				nextContext = "role"
			default:
				nextContext = context + "-value"
			}

			if err := validateYAMLNode(valNode, nextContext); err != nil {
				return err
			}
		}

	case yaml.SequenceNode:
		for _, item := range node.Content {
			if err := validateYAMLNode(item, context); err != nil {
				return err
			}
		}

	case yaml.AliasNode:
		return fmt.Errorf("line %d: YAML aliases are not supported", node.Line)

	case yaml.ScalarNode:
		// скаляры не валидируем на ключи — они уже проверяются при разборе MappingNode
	}

	return nil
}
