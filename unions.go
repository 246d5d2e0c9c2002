package mdform

import "github.com/reoring/mdform/node"

// ExpandOneOf expands discriminated unions. For every object key whose value
// carries both "oneOf" and "discriminator", the value keeps its other keys and
// the properties of each variant, except the tag property, are inserted
// right after that key as forwarding references
// ({"$ref": "#/definitions/<Def>/properties/<name>"}). Inline variants are
// copied instead of referenced.
//
// tag names the tag property used when the discriminator carries no
// propertyName. A name already declared by the parent, or hoisted from an
// earlier variant, is not hoisted again.
func ExpandOneOf(tag string) Pass {
	return Pass{
		Name: "expand-oneof",
		Transform: func(n node.Node) (node.Node, error) {
			e := &oneOfExpander{defs: definitionsOf(n), tag: tag}
			if e.defs.table != nil {
				// Variants are read from the expanded table so their own
				// hoisted properties are forwarded as well.
				expanded, err := e.expand(e.defs.table, node.Root().Field(DefinitionsKey))
				if err != nil {
					return nil, err
				}
				e.defs.table = expanded.(*node.Object)
				e.expandedDefs = e.defs.table
			}
			return e.expand(n, node.Root())
		},
	}
}

type oneOfExpander struct {
	defs         definitions
	expandedDefs *node.Object
	tag          string
}

func (e *oneOfExpander) expand(n node.Node, at node.Pointer) (node.Node, error) {
	switch v := n.(type) {
	case *node.Object:
		return e.expandObject(v, at)
	case node.Array:
		out := make(node.Array, len(v))
		for i, c := range v {
			ec, err := e.expand(c, at.Index(i))
			if err != nil {
				return nil, err
			}
			out[i] = ec
		}
		return out, nil
	default:
		return n, nil
	}
}

func (e *oneOfExpander) expandObject(o *node.Object, at node.Pointer) (node.Node, error) {
	out := node.NewObject()
	hoisted := map[string]bool{}
	for k, v := range o.All() {
		if at.IsRoot() && k == DefinitionsKey && e.expandedDefs != nil {
			out.Set(k, e.expandedDefs)
			continue
		}
		child, err := e.expand(v, at.Field(k))
		if err != nil {
			return nil, err
		}
		union, ok := node.AsObject(child)
		if !ok || !isDiscriminatedUnion(union) {
			out.Set(k, child)
			continue
		}

		variants, _ := union.GetArray("oneOf")
		tag := e.tagOf(union)
		out.Set(k, union.Without("oneOf", "discriminator"))
		for i, variant := range variants {
			props, ref, err := e.variantProperties(variant, at.Field(k).Field("oneOf").Index(i))
			if err != nil {
				return nil, err
			}
			for name, prop := range props.All() {
				if name == tag || o.Has(name) || hoisted[name] {
					continue
				}
				hoisted[name] = true
				if ref == "" {
					out.Set(name, node.Clone(prop))
					continue
				}
				fwd := node.NewObject()
				fwd.Set("$ref", node.String(ref+"/properties/"+node.EscapeToken(name)))
				out.Set(name, fwd)
			}
		}
	}
	return out, nil
}

func isDiscriminatedUnion(o *node.Object) bool {
	if _, ok := o.GetArray("oneOf"); !ok {
		return false
	}
	return o.Has("discriminator")
}

func (e *oneOfExpander) tagOf(union *node.Object) string {
	if d, ok := union.GetObject("discriminator"); ok {
		if name, ok := d.GetString("propertyName"); ok && name != "" {
			return name
		}
	}
	return e.tag
}

// variantProperties returns the properties of a union variant and, for $ref
// variants, the reference the forwarding refs are built from.
func (e *oneOfExpander) variantProperties(variant node.Node, at node.Pointer) (*node.Object, string, error) {
	v, ok := node.AsObject(variant)
	if !ok {
		return node.NewObject(), "", nil
	}
	if raw, ok := v.Get("$ref"); ok {
		ref, ok := node.AsString(raw)
		if !ok {
			return nil, "", &UnsupportedReferenceError{Ref: literal(raw), Path: at.String()}
		}
		target, err := e.defs.lookup(ref, at)
		if err != nil {
			return nil, "", err
		}
		props, _ := target.GetObject("properties")
		return props, ref, nil
	}
	props, _ := v.GetObject("properties")
	return props, "", nil
}

// CollapseAnyOf replaces every "anyOf" with the keys of its first alternative
// that is not {"type": "null"}. Keys of the node itself win over keys of the
// alternative.
func CollapseAnyOf() Pass {
	return Pass{
		Name: "collapse-anyof",
		Transform: func(n node.Node) (node.Node, error) {
			return node.WalkObjects(n, collapseAnyOf)
		},
	}
}

func collapseAnyOf(o *node.Object) (node.Node, error) {
	alternatives, ok := o.GetArray("anyOf")
	if !ok {
		return o, nil
	}
	out := node.NewObject()
	if alt := firstNonNull(alternatives); alt != nil {
		for k, v := range alt.All() {
			out.Set(k, v)
		}
	}
	for k, v := range o.All() {
		if k == "anyOf" {
			continue
		}
		out.Set(k, v)
	}
	return out, nil
}

func firstNonNull(alternatives node.Array) *node.Object {
	for _, a := range alternatives {
		alt, ok := node.AsObject(a)
		if !ok {
			continue
		}
		if t, ok := alt.GetString("type"); ok && t == "null" {
			continue
		}
		return alt
	}
	return nil
}
