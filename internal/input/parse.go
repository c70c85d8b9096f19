package input

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Parse decodes a JSON (or YAML) document into a Node, preserving key order.
// An empty document yields an empty Object.
func Parse(data []byte) (Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse input: %w", err)
	}
	if len(doc.Content) == 0 {
		return NewObject(), nil
	}
	return fromYAML(doc.Content[0])
}

func fromYAML(n *yaml.Node) (Node, error) {
	switch n.Kind {
	case yaml.MappingNode:
		obj := NewObject()
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i].Value
			child, err := fromYAML(n.Content[i+1])
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			obj.Set(key, child)
		}
		return obj, nil
	case yaml.SequenceNode:
		list := &List{Items: make([]Node, 0, len(n.Content))}
		for i, item := range n.Content {
			child, err := fromYAML(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			list.Items = append(list.Items, child)
		}
		return list, nil
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, err
		}
		return &Leaf{Value: v}, nil
	case yaml.AliasNode:
		return nil, errors.New("aliases are not supported in input")
	}
	return nil, fmt.Errorf("unsupported input node kind %d", n.Kind)
}
