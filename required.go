package mdform

import "github.com/reoring/mdform/node"

// MoveRequiredFlags converts node-level "required" lists into per-property
// "required": true flags. Nested lists are handled before their parents.
// Names that are not declared under "properties" are ignored.
func MoveRequiredFlags() Pass {
	return Pass{
		Name: "required-flags",
		Transform: func(n node.Node) (node.Node, error) {
			return node.WalkObjects(n, markRequired)
		},
	}
}

func markRequired(o *node.Object) (node.Node, error) {
	required, ok := o.GetArray("required")
	if !ok {
		return o, nil
	}
	props, ok := o.GetObject("properties")
	if !ok {
		return o, nil
	}
	for _, item := range required {
		name, ok := node.AsString(item)
		if !ok {
			continue
		}
		if prop, ok := props.GetObject(name); ok {
			prop.Set("required", node.Bool(true))
		}
	}
	o.Delete("required")
	return o, nil
}
