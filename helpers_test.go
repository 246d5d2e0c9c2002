package mdform_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/reoring/mdform"
	"github.com/reoring/mdform/node"
)

func mustJSON(t *testing.T, s string) node.Node {
	t.Helper()
	n, err := node.ParseJSON([]byte(s))
	require.NoError(t, err)
	return n
}

func encode(t *testing.T, n node.Node) string {
	t.Helper()
	b, err := node.Marshal(n)
	require.NoError(t, err)
	return string(b)
}

// run applies passes to src and returns the compact JSON of the result. It
// also checks that src was left untouched.
func run(t *testing.T, src string, passes ...mdform.Pass) string {
	t.Helper()
	in := mustJSON(t, src)
	before := encode(t, in)
	out, err := mdform.Apply(in, passes...)
	require.NoError(t, err)
	require.Equal(t, before, encode(t, in), "input must not be mutated")
	return encode(t, out)
}

func hasKey(n node.Node, key string) bool {
	switch v := n.(type) {
	case *node.Object:
		for k, c := range v.All() {
			if k == key || hasKey(c, key) {
				return true
			}
		}
	case node.Array:
		for _, c := range v {
			if hasKey(c, key) {
				return true
			}
		}
	}
	return false
}
