package node

import (
	"fmt"
	"sort"

	j "github.com/goccy/go-json"
)

// FromValue converts a Go value into a Node. Maps produce objects with sorted
// keys since Go maps carry no order; structs and other types go through a JSON
// round trip and keep their field order.
func FromValue(v any) (Node, error) {
	switch t := v.(type) {
	case nil:
		return Null{}, nil
	case Node:
		return Clone(t), nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		o := NewObject()
		for _, k := range keys {
			c, err := FromValue(t[k])
			if err != nil {
				return nil, err
			}
			o.Set(k, c)
		}
		return o, nil
	case []any:
		a := make(Array, len(t))
		for i, e := range t {
			c, err := FromValue(e)
			if err != nil {
				return nil, err
			}
			a[i] = c
		}
		return a, nil
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case int:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case float64:
		return Float(t), nil
	case j.Number:
		return Number(t), nil
	default:
		b, err := j.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("node: cannot convert %T: %w", v, err)
		}
		return ParseJSON(b)
	}
}

// ToValue converts n into plain Go values (map[string]any, []any, string,
// j.Number, bool, nil). Object key order is lost.
func ToValue(n Node) any {
	switch v := n.(type) {
	case *Object:
		m := make(map[string]any, v.Len())
		for k, c := range v.All() {
			m[k] = ToValue(c)
		}
		return m
	case Array:
		out := make([]any, len(v))
		for i, c := range v {
			out[i] = ToValue(c)
		}
		return out
	case String:
		return string(v)
	case Number:
		return j.Number(v)
	case Bool:
		return bool(v)
	default:
		return nil
	}
}
