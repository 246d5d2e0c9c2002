package mdform

import (
	"slices"

	"github.com/reoring/mdform/node"
)

// MoveToParameters relocates the given keys of every object into a sibling
// "parameters" object, created at the end of the object when absent. Keys are
// inserted in the order given. Existing "parameters" objects are not descended
// into.
func MoveToParameters(keys ...string) Pass {
	m := mover{keys: slices.Clone(keys)}
	return Pass{
		Name: "move-to-parameters",
		Transform: func(n node.Node) (node.Node, error) {
			return m.move(n), nil
		},
	}
}

type mover struct {
	keys []string
}

func (m mover) move(n node.Node) node.Node {
	switch v := n.(type) {
	case *node.Object:
		return m.moveObject(v)
	case node.Array:
		out := make(node.Array, len(v))
		for i, c := range v {
			out[i] = m.move(c)
		}
		return out
	default:
		return n
	}
}

func (m mover) moveObject(o *node.Object) *node.Object {
	moving := false
	for _, k := range m.keys {
		if o.Has(k) {
			moving = true
			break
		}
	}

	out := node.NewObject()
	var params *node.Object
	for k, v := range o.All() {
		switch {
		case slices.Contains(m.keys, k):
			continue
		case k == "parameters":
			if !moving {
				out.Set(k, node.Clone(v))
				continue
			}
			if existing, ok := node.AsObject(v); ok {
				params = node.CloneObject(existing)
			} else {
				params = node.NewObject()
			}
			out.Set(k, params)
		default:
			out.Set(k, m.move(v))
		}
	}
	if !moving {
		return out
	}
	if params == nil {
		params = node.NewObject()
		out.Set("parameters", params)
	}
	for _, k := range m.keys {
		if v, ok := o.Get(k); ok {
			params.Set(k, node.Clone(v))
		}
	}
	return out
}
