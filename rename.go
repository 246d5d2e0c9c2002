package mdform

import "github.com/reoring/mdform/node"

// RenameKeys rewrites object keys through mapping at every depth. Keys absent
// from mapping are kept. A renamed key stays in place; when two keys map to
// the same name the later value wins at the earlier position.
func RenameKeys(mapping map[string]string) Pass {
	table := cloneTable(mapping)
	return Pass{
		Name: "rename-keys",
		Transform: func(n node.Node) (node.Node, error) {
			return node.WalkObjects(n, func(o *node.Object) (node.Node, error) {
				out := node.NewObject()
				for k, v := range o.All() {
					if nk, ok := table[k]; ok {
						k = nk
					}
					out.Set(k, v)
				}
				return out, nil
			})
		},
	}
}
