// Package node defines the JSON-like tree every translation pass operates on.
//
// A Node is one of six concrete types: *Object, Array, String, Number, Bool and
// Null. The set is closed (the interface carries an unexported marker method), so
// passes switch over the concrete types exhaustively instead of inspecting
// arbitrary Go values.
//
// Objects keep insertion order. Key order is part of the output contract of the
// translator (hoisted and flattened properties must appear in a deterministic,
// human-legible order), so every codec in this package preserves it.
package node

import "strconv"

// Kind identifies the concrete type of a Node.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Node is a schema tree value.
type Node interface {
	Kind() Kind
	sealed()
}

// String is a JSON string.
type String string

func (String) Kind() Kind { return KindString }
func (String) sealed()    {}

// Number is a JSON number kept as its literal text, so values round-trip
// without float conversion.
type Number string

func (Number) Kind() Kind { return KindNumber }
func (Number) sealed()    {}

// Int returns a Number for an integer value.
func Int(i int64) Number { return Number(strconv.FormatInt(i, 10)) }

// Float returns a Number for a float value using the shortest representation.
func Float(f float64) Number { return Number(strconv.FormatFloat(f, 'g', -1, 64)) }

// Bool is a JSON boolean.
type Bool bool

func (Bool) Kind() Kind { return KindBool }
func (Bool) sealed()    {}

// Null is the JSON null value.
type Null struct{}

func (Null) Kind() Kind { return KindNull }
func (Null) sealed()    {}

// Array is an ordered sequence of nodes.
type Array []Node

func (Array) Kind() Kind { return KindArray }
func (Array) sealed()    {}

// AsObject returns n as an *Object when it is one.
func AsObject(n Node) (*Object, bool) {
	o, ok := n.(*Object)
	return o, ok && o != nil
}

// AsArray returns n as an Array when it is one.
func AsArray(n Node) (Array, bool) {
	a, ok := n.(Array)
	return a, ok
}

// AsString returns the Go string held by n when n is a String.
func AsString(n Node) (string, bool) {
	s, ok := n.(String)
	return string(s), ok
}
