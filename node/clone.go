package node

// Clone returns a deep copy of n. The result shares no Object or Array with n,
// so it can be modified or substituted at several sites independently.
func Clone(n Node) Node {
	switch v := n.(type) {
	case *Object:
		if v == nil {
			return NewObject()
		}
		out := NewObject()
		for k, c := range v.All() {
			out.Set(k, Clone(c))
		}
		return out
	case Array:
		if v == nil {
			return Array(nil)
		}
		out := make(Array, len(v))
		for i, c := range v {
			out[i] = Clone(c)
		}
		return out
	case String, Number, Bool, Null:
		return v
	case nil:
		return Null{}
	default:
		return n
	}
}

// CloneObject is Clone for objects.
func CloneObject(o *Object) *Object {
	return Clone(o).(*Object)
}

// Equal reports whether a and b hold the same value, including object key
// order. Numbers compare by literal text.
func Equal(a, b Node) bool {
	switch x := a.(type) {
	case *Object:
		y, ok := b.(*Object)
		if !ok || x.Len() != y.Len() {
			return false
		}
		xk, yk := x.Keys(), y.Keys()
		for i := range xk {
			if xk[i] != yk[i] {
				return false
			}
			xv, _ := x.Get(xk[i])
			yv, _ := y.Get(yk[i])
			if !Equal(xv, yv) {
				return false
			}
		}
		return true
	case Array:
		y, ok := b.(Array)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case String:
		y, ok := b.(String)
		return ok && x == y
	case Number:
		y, ok := b.(Number)
		return ok && x == y
	case Bool:
		y, ok := b.(Bool)
		return ok && x == y
	case Null:
		_, ok := b.(Null)
		return ok
	default:
		return a == nil && b == nil
	}
}
