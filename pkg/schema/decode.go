package schema

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Parse decodes a YAML or JSON document into a Node, keeping mapping order.
func Parse(data []byte) (Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}
	return FromYAML(&doc)
}

// FromYAML converts a yaml.v3 node into a Node.
// Mappings become Map, sequences become []any and scalars are decoded to Go values.
// A zero node (for example an absent struct field) yields nil.
func FromYAML(n *yaml.Node) (Node, error) {
	if n == nil {
		return nil, nil
	}

	switch n.Kind {
	case 0:
		return nil, nil

	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return FromYAML(n.Content[0])

	case yaml.AliasNode:
		return FromYAML(n.Alias)

	case yaml.MappingNode:
		m := make(Map, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i]
			val, err := FromYAML(n.Content[i+1])
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", key.Value, err)
			}
			m.Put(key.Value, val)
		}
		return m, nil

	case yaml.SequenceNode:
		seq := make([]any, len(n.Content))
		for i, item := range n.Content {
			val, err := FromYAML(item)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			seq[i] = val
		}
		return seq, nil

	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return v, nil

	default:
		return nil, fmt.Errorf("line %d: unsupported yaml node kind %d", n.Line, n.Kind)
	}
}
