package node

import (
	"iter"
	"slices"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Object is an insertion-ordered mapping of string keys to nodes. The zero
// value is an empty object ready to use.
type Object struct {
	m *orderedmap.OrderedMap[string, Node]
}

// NewObject returns an empty object.
func NewObject() *Object {
	return &Object{m: orderedmap.New[string, Node]()}
}

func (*Object) Kind() Kind { return KindObject }
func (*Object) sealed()    {}

// Len reports the number of keys.
func (o *Object) Len() int {
	if o == nil || o.m == nil {
		return 0
	}
	return o.m.Len()
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (Node, bool) {
	if o == nil || o.m == nil {
		return nil, false
	}
	return o.m.Get(key)
}

// Has reports whether key is present.
func (o *Object) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

// Set stores v under key. A key that already exists keeps its position.
func (o *Object) Set(key string, v Node) {
	if o.m == nil {
		o.m = orderedmap.New[string, Node]()
	}
	if v == nil {
		v = Null{}
	}
	o.m.Set(key, v)
}

// Delete removes key and returns the removed value.
func (o *Object) Delete(key string) (Node, bool) {
	if o == nil || o.m == nil {
		return nil, false
	}
	return o.m.Delete(key)
}

// Keys returns the keys in insertion order.
func (o *Object) Keys() []string {
	keys := make([]string, 0, o.Len())
	for k := range o.All() {
		keys = append(keys, k)
	}
	return keys
}

// All iterates key/value pairs in insertion order.
func (o *Object) All() iter.Seq2[string, Node] {
	return func(yield func(string, Node) bool) {
		if o == nil || o.m == nil {
			return
		}
		for p := o.m.Oldest(); p != nil; p = p.Next() {
			if !yield(p.Key, p.Value) {
				return
			}
		}
	}
}

// GetObject returns the value under key when it is an object.
func (o *Object) GetObject(key string) (*Object, bool) {
	v, ok := o.Get(key)
	if !ok {
		return nil, false
	}
	return AsObject(v)
}

// GetArray returns the value under key when it is an array.
func (o *Object) GetArray(key string) (Array, bool) {
	v, ok := o.Get(key)
	if !ok {
		return nil, false
	}
	return AsArray(v)
}

// GetString returns the value under key when it is a string.
func (o *Object) GetString(key string) (string, bool) {
	v, ok := o.Get(key)
	if !ok {
		return "", false
	}
	return AsString(v)
}

// Without returns a shallow copy of o that omits the given keys. Child nodes
// are shared with o; callers that go on to mutate children must Clone first.
func (o *Object) Without(keys ...string) *Object {
	out := NewObject()
	for k, v := range o.All() {
		if slices.Contains(keys, k) {
			continue
		}
		out.Set(k, v)
	}
	return out
}
