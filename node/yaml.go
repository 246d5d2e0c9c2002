package node

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ParseYAML decodes the first document of a YAML stream, keeping mapping key
// order. Duplicate keys are reported as *DuplicateKeyError with positions.
func ParseYAML(data []byte) (Node, error) {
	return DecodeYAML(bytes.NewReader(data))
}

// DecodeYAML reads the first YAML document from r.
func DecodeYAML(r io.Reader) (Node, error) {
	var root yaml.Node
	if err := yaml.NewDecoder(r).Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("node: empty YAML input")
		}
		return nil, fmt.Errorf("node: invalid YAML: %w", err)
	}
	return fromYAML(&root, Root())
}

func fromYAML(n *yaml.Node, at Pointer) (Node, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return Null{}, nil
		}
		return fromYAML(n.Content[0], at)
	case yaml.AliasNode:
		if n.Alias == nil {
			return Null{}, nil
		}
		return fromYAML(n.Alias, at)
	case yaml.MappingNode:
		o := NewObject()
		first := make(map[string][2]int, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i]
			key := k.Value
			if pos, dup := first[key]; dup {
				return nil, &DuplicateKeyError{
					Key: key, Path: at.String(),
					FirstLine: pos[0], FirstCol: pos[1],
					Line: k.Line, Col: k.Column,
				}
			}
			first[key] = [2]int{k.Line, k.Column}
			v, err := fromYAML(n.Content[i+1], at.Field(key))
			if err != nil {
				return nil, err
			}
			o.Set(key, v)
		}
		return o, nil
	case yaml.SequenceNode:
		a := make(Array, 0, len(n.Content))
		for i, c := range n.Content {
			v, err := fromYAML(c, at.Index(i))
			if err != nil {
				return nil, err
			}
			a = append(a, v)
		}
		return a, nil
	case yaml.ScalarNode:
		return yamlScalar(n), nil
	default:
		return Null{}, nil
	}
}

func yamlScalar(n *yaml.Node) Node {
	switch n.ShortTag() {
	case "!!null":
		return Null{}
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err == nil {
			return Bool(b)
		}
		return String(n.Value)
	case "!!int":
		if i, err := strconv.ParseInt(n.Value, 0, 64); err == nil {
			return Int(i)
		}
		return String(n.Value)
	case "!!float":
		if f, err := strconv.ParseFloat(n.Value, 64); err == nil {
			return Float(f)
		}
		return String(n.Value)
	default:
		return String(n.Value)
	}
}
