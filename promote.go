package mdform

import "github.com/reoring/mdform/node"

// Promote un-nests one level of wrapping at the root: the keys of the object
// stored under key are spliced into the root where key stood, and key is
// dropped. Root keys win over spliced keys of the same name. A non-object value
// under key is dropped.
func Promote(key string) Pass {
	return Pass{
		Name: "promote-" + key,
		Transform: func(n node.Node) (node.Node, error) {
			root, ok := node.AsObject(n)
			if !ok || !root.Has(key) {
				return node.Clone(n), nil
			}
			out := node.NewObject()
			for k, v := range root.All() {
				if k != key {
					out.Set(k, node.Clone(v))
					continue
				}
				wrapped, ok := node.AsObject(v)
				if !ok {
					continue
				}
				for ik, iv := range wrapped.All() {
					if ik != key && root.Has(ik) {
						continue
					}
					out.Set(ik, node.Clone(iv))
				}
			}
			return out, nil
		},
	}
}
