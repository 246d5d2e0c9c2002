package node

// Func transforms a single node.
type Func func(Node) (Node, error)

// ChildFunc transforms one direct child of a container. key is the object key
// of the child, or "" for array elements.
type ChildFunc func(key string, child Node) (Node, error)

// MapChildren returns a fresh container of the same kind as n whose children are
// the results of f. Scalars are returned unchanged. Object key order is kept.
func MapChildren(n Node, f ChildFunc) (Node, error) {
	switch v := n.(type) {
	case *Object:
		out := NewObject()
		for k, c := range v.All() {
			nc, err := f(k, c)
			if err != nil {
				return nil, err
			}
			out.Set(k, nc)
		}
		return out, nil
	case Array:
		if v == nil {
			return Array(nil), nil
		}
		out := make(Array, len(v))
		for i, c := range v {
			nc, err := f("", c)
			if err != nil {
				return nil, err
			}
			out[i] = nc
		}
		return out, nil
	case String, Number, Bool, Null:
		return v, nil
	case nil:
		return Null{}, nil
	default:
		return n, nil
	}
}

// Walk applies f bottom-up: every child is walked before f sees its parent.
// The input tree is left untouched; f receives freshly built containers and
// may modify them in place.
func Walk(n Node, f Func) (Node, error) {
	rebuilt, err := MapChildren(n, func(_ string, c Node) (Node, error) {
		return Walk(c, f)
	})
	if err != nil {
		return nil, err
	}
	return f(rebuilt)
}

// WalkObjects is Walk restricted to objects: f is called for every object,
// other nodes pass through.
func WalkObjects(n Node, f func(*Object) (Node, error)) (Node, error) {
	return Walk(n, func(n Node) (Node, error) {
		if o, ok := AsObject(n); ok {
			return f(o)
		}
		return n, nil
	})
}
