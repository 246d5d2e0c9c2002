package mdform

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/reoring/mdform/node"
)

// ConvertEnumsToOptions replaces every "enum" array with an "options" list of
// {"name", "value"} objects, in the position "enum" occupied.
func ConvertEnumsToOptions() Pass {
	return Pass{
		Name: "enum-options",
		Transform: func(n node.Node) (node.Node, error) {
			return node.WalkObjects(n, enumToOptions)
		},
	}
}

func enumToOptions(o *node.Object) (node.Node, error) {
	values, ok := o.GetArray("enum")
	if !ok {
		return o, nil
	}
	out := node.NewObject()
	for k, v := range o.All() {
		switch k {
		case "enum":
			out.Set("options", optionsFor(values))
		case "options":
			// replaced by the converted enum
		default:
			out.Set(k, v)
		}
	}
	return out, nil
}

func optionsFor(values node.Array) node.Array {
	opts := make(node.Array, 0, len(values))
	for _, v := range values {
		opt := node.NewObject()
		if s, ok := node.AsString(v); ok {
			opt.Set("name", node.String(OptionName(s)))
			opt.Set("value", node.String(OptionValue(s)))
		} else {
			opt.Set("name", node.String(literal(v)))
			opt.Set("value", v)
		}
		opts = append(opts, opt)
	}
	return opts
}

// OptionName renders an enum value as a display name: surrounding whitespace
// is trimmed, inner whitespace runs collapse to one space and every run of
// letters is title-cased, so any non-letter starts a new word
// ("  spaced  out " -> "Spaced Out", "log2_transform" -> "Log2_Transform").
func OptionName(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	title := cases.Title(language.Und)
	var b strings.Builder
	b.Grow(len(s))
	for len(s) > 0 {
		i := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsLetter(r) })
		if i < 0 {
			i = len(s)
		}
		b.WriteString(title.String(s[:i]))
		s = s[i:]
		j := strings.IndexFunc(s, unicode.IsLetter)
		if j < 0 {
			j = len(s)
		}
		b.WriteString(s[:j])
		s = s[j:]
	}
	return b.String()
}

// OptionValue renders an enum value as an option value: lowercased with
// whitespace runs replaced by "_" ("Hello World" -> "hello_world").
func OptionValue(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), "_"))
}

func literal(v node.Node) string {
	switch t := v.(type) {
	case node.Number:
		return string(t)
	case node.Bool:
		if t {
			return "true"
		}
		return "false"
	case node.Null:
		return "null"
	default:
		b, err := node.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
