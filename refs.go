package mdform

import (
	"slices"
	"strings"

	"github.com/reoring/mdform/node"
)

// ResolveRefs inlines every {"$ref": "#/definitions/..."} node from the root
// "definitions" table and drops the table. Each substitution is a deep copy of
// the definition. Keys next to "$ref" override the keys of the referenced
// definition.
//
// References are expanded recursively; a reference reached again while it is
// still being expanded fails with *CyclicReferenceError.
func ResolveRefs() Pass {
	return Pass{
		Name: "resolve-refs",
		Transform: func(n node.Node) (node.Node, error) {
			root, ok := node.AsObject(n)
			if !ok {
				r := &resolver{}
				return r.resolve(n, node.Root())
			}
			table, _ := root.GetObject(DefinitionsKey)
			r := &resolver{defs: definitions{table: table}}
			return r.resolve(root.Without(DefinitionsKey), node.Root())
		},
	}
}

// definitions looks up reference targets in a definitions table.
type definitions struct {
	table *node.Object
}

func definitionsOf(n node.Node) definitions {
	root, ok := node.AsObject(n)
	if !ok {
		return definitions{}
	}
	table, _ := root.GetObject(DefinitionsKey)
	return definitions{table: table}
}

// lookup returns a deep copy of the object addressed by ref. at is the
// location of the referencing node, used for error reporting.
func (d definitions) lookup(ref string, at node.Pointer) (*node.Object, error) {
	if !strings.HasPrefix(ref, RefPrefix) {
		return nil, &UnsupportedReferenceError{Ref: ref, Path: at.String()}
	}
	tokens := node.SplitTokens(strings.TrimPrefix(ref, RefPrefix))
	name := ""
	if len(tokens) > 0 {
		name = tokens[0]
	}
	cur, ok := d.table.Get(name)
	if !ok {
		return nil, &MissingDefinitionError{Ref: ref, Name: name, Path: at.String()}
	}
	last := name
	for _, seg := range tokens[min(1, len(tokens)):] {
		obj, ok := node.AsObject(cur)
		if !ok {
			return nil, &InvalidReferencePathError{Ref: ref, Segment: seg, Path: at.String()}
		}
		next, ok := obj.Get(seg)
		if !ok {
			return nil, &InvalidReferencePathError{Ref: ref, Segment: seg, Path: at.String()}
		}
		cur, last = next, seg
	}
	target, ok := node.AsObject(cur)
	if !ok {
		return nil, &InvalidReferencePathError{Ref: ref, Segment: last, Path: at.String()}
	}
	return node.CloneObject(target), nil
}

type resolver struct {
	defs  definitions
	chain []string
}

func (r *resolver) resolve(n node.Node, at node.Pointer) (node.Node, error) {
	switch v := n.(type) {
	case *node.Object:
		if raw, ok := v.Get("$ref"); ok {
			return r.expand(v, raw, at)
		}
		out := node.NewObject()
		for k, c := range v.All() {
			rc, err := r.resolve(c, at.Field(k))
			if err != nil {
				return nil, err
			}
			out.Set(k, rc)
		}
		return out, nil
	case node.Array:
		out := make(node.Array, len(v))
		for i, c := range v {
			rc, err := r.resolve(c, at.Index(i))
			if err != nil {
				return nil, err
			}
			out[i] = rc
		}
		return out, nil
	default:
		return n, nil
	}
}

func (r *resolver) expand(site *node.Object, raw node.Node, at node.Pointer) (node.Node, error) {
	ref, ok := node.AsString(raw)
	if !ok {
		return nil, &UnsupportedReferenceError{Ref: literal(raw), Path: at.String()}
	}
	if slices.Contains(r.chain, ref) {
		return nil, &CyclicReferenceError{Ref: ref, Path: at.String(), Chain: append(slices.Clone(r.chain), ref)}
	}
	target, err := r.defs.lookup(ref, at)
	if err != nil {
		return nil, err
	}

	r.chain = append(r.chain, ref)
	resolved, err := r.resolve(target, at)
	r.chain = r.chain[:len(r.chain)-1]
	if err != nil {
		return nil, err
	}

	out, ok := node.AsObject(resolved)
	if !ok {
		return nil, &InvalidReferencePathError{Ref: ref, Path: at.String()}
	}
	for k, v := range site.All() {
		if k == "$ref" {
			continue
		}
		rv, err := r.resolve(v, at.Field(k))
		if err != nil {
			return nil, err
		}
		out.Set(k, rv)
	}
	return out, nil
}
