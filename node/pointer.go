package node

import (
	"strconv"
	"strings"
)

// Pointer is an RFC 6901 JSON Pointer built up while descending a tree. Each
// step links to its parent, so extending a pointer costs one allocation and
// the path is only rendered by String. The zero value points at the document
// root.
type Pointer struct {
	last *step
}

type step struct {
	parent *step
	name   string
	index  int // used when field is false
	field  bool
	depth  int
}

// Root returns the pointer to the document root.
func Root() Pointer { return Pointer{} }

// Field returns the pointer extended by an object key.
func (p Pointer) Field(name string) Pointer {
	return Pointer{last: &step{parent: p.last, name: name, field: true, depth: p.depth() + 1}}
}

// Index returns the pointer extended by an array index.
func (p Pointer) Index(i int) Pointer {
	return Pointer{last: &step{parent: p.last, index: i, depth: p.depth() + 1}}
}

// IsRoot reports whether p points at the document root.
func (p Pointer) IsRoot() bool { return p.last == nil }

func (p Pointer) depth() int {
	if p.last == nil {
		return 0
	}
	return p.last.depth
}

// String renders the pointer; the root renders as "/".
func (p Pointer) String() string {
	if p.last == nil {
		return "/"
	}
	tokens := make([]string, p.last.depth)
	for s := p.last; s != nil; s = s.parent {
		if s.field {
			tokens[s.depth-1] = EscapeToken(s.name)
		} else {
			tokens[s.depth-1] = strconv.Itoa(s.index)
		}
	}
	return "/" + strings.Join(tokens, "/")
}

// EscapeToken escapes '~' and '/' in a single reference token.
func EscapeToken(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "~", "~0"), "/", "~1")
}

// UnescapeToken reverses EscapeToken.
func UnescapeToken(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "~1", "/"), "~0", "~")
}

// SplitTokens splits an unprefixed pointer tail such as "A/properties/x" into
// unescaped tokens.
func SplitTokens(tail string) []string {
	if tail == "" {
		return nil
	}
	raw := strings.Split(tail, "/")
	out := make([]string, len(raw))
	for i, t := range raw {
		out[i] = UnescapeToken(t)
	}
	return out
}
