package mdform

import "github.com/reoring/mdform/node"

// Flatten inlines the object stored under key into its parent. The flattened
// children come first, in declaration order, followed by the parent's other
// keys that the children do not already define.
//
//	{"title": "X", "properties": {"a": {...}}}  ->  {"a": {...}, "title": "X"}
func Flatten(key string) Pass {
	f := flattener{key: key}
	return Pass{
		Name: "flatten-" + key,
		Transform: func(n node.Node) (node.Node, error) {
			return f.flatten(n), nil
		},
	}
}

type flattener struct {
	key string
}

func (f flattener) flatten(n node.Node) node.Node {
	switch v := n.(type) {
	case *node.Object:
		inner, ok := v.GetObject(f.key)
		out := node.NewObject()
		if ok {
			for k, c := range inner.All() {
				out.Set(k, f.flatten(c))
			}
		}
		for k, c := range v.All() {
			if ok && (k == f.key || out.Has(k)) {
				continue
			}
			out.Set(k, f.flatten(c))
		}
		return out
	case node.Array:
		out := make(node.Array, len(v))
		for i, c := range v {
			out[i] = f.flatten(c)
		}
		return out
	default:
		return n
	}
}
