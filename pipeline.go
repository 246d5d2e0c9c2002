package mdform

import (
	"fmt"
	"maps"
	"time"

	"go.uber.org/zap"

	"github.com/reoring/mdform/node"
)

const (
	// DefinitionsKey holds the definitions table at the schema root.
	DefinitionsKey = "definitions"
	// RefPrefix is the only supported $ref prefix.
	RefPrefix = "#/definitions/"
	// DefaultDiscriminatorTag is the tag property excluded when union
	// variants are hoisted and the discriminator names none.
	DefaultDiscriminatorTag = "method"
	// DefaultPromoteKey is the wrapper key un-nested by the final pass.
	DefaultPromoteKey = "params"
)

// Transform rewrites a tree into a new tree.
type Transform func(node.Node) (node.Node, error)

// Pass is a named Transform.
type Pass struct {
	Name      string
	Transform Transform
}

// Config describes a translation pipeline. The zero value is not useful; start
// from DefaultConfig.
type Config struct {
	// KeyMapping renames object keys (e.g. maxItems -> max).
	KeyMapping map[string]string
	// ParameterKeys are relocated into a sibling "parameters" object.
	ParameterKeys []string
	// DiscriminatorTag is the union tag property excluded from hoisting when
	// a discriminator does not declare propertyName.
	DiscriminatorTag string
	// PromoteKey is the root wrapper whose keys are spliced into the root.
	PromoteKey string
	// TypeMapping, when non-empty, appends a pass that sets "type" on objects
	// found under the mapped keys.
	TypeMapping map[string]string
	// Logger receives per-pass debug logs. Nil disables logging.
	Logger *zap.Logger
}

// DefaultKeyMapping returns the key substitution table of the form format.
func DefaultKeyMapping() map[string]string {
	return map[string]string{
		"maxItems": "max",
		"minItems": "min",
		"maximum":  "max",
		"minimum":  "min",
	}
}

// DefaultParameterKeys returns the keys relocated into "parameters".
func DefaultParameterKeys() []string {
	return []string{"options", "min", "max"}
}

// DefaultConfig returns the standard pipeline configuration. Each call returns
// fresh tables, so callers may modify the result freely.
func DefaultConfig() Config {
	return Config{
		KeyMapping:       DefaultKeyMapping(),
		ParameterKeys:    DefaultParameterKeys(),
		DiscriminatorTag: DefaultDiscriminatorTag,
		PromoteKey:       DefaultPromoteKey,
	}
}

// Pipeline returns the ordered passes described by c.
func (c Config) Pipeline() []Pass {
	tag := c.DiscriminatorTag
	if tag == "" {
		tag = DefaultDiscriminatorTag
	}
	passes := []Pass{
		MoveRequiredFlags(),
		ConvertEnumsToOptions(),
		CollapseAnyOf(),
		ExpandOneOf(tag),
		ResolveRefs(),
		RenameKeys(c.KeyMapping),
		MoveToParameters(c.ParameterKeys...),
		Flatten("properties"),
		Flatten("items"),
	}
	if c.PromoteKey != "" {
		passes = append(passes, Promote(c.PromoteKey))
	}
	if len(c.TypeMapping) > 0 {
		passes = append(passes, ConvertTypesByKey(c.TypeMapping))
	}
	return passes
}

// Translate runs the pipeline over schema and returns the form definition.
func (c Config) Translate(schema node.Node) (*node.Object, error) {
	if _, ok := node.AsObject(schema); !ok {
		return nil, ErrRootNotObject
	}
	out, err := apply(c.logger(), schema, c.Pipeline())
	if err != nil {
		return nil, err
	}
	form, ok := node.AsObject(out)
	if !ok {
		return nil, ErrRootNotObject
	}
	return form, nil
}

// TranslateBytes decodes data in the given format and translates it.
func (c Config) TranslateBytes(data []byte, f Format) (*node.Object, error) {
	schema, err := ParseSchema(data, f)
	if err != nil {
		return nil, err
	}
	return c.Translate(schema)
}

func (c Config) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// Translate runs the default pipeline over schema.
func Translate(schema node.Node) (*node.Object, error) {
	return DefaultConfig().Translate(schema)
}

// TranslateJSON decodes a JSON schema and runs the default pipeline.
func TranslateJSON(data []byte) (*node.Object, error) {
	return DefaultConfig().TranslateBytes(data, FormatJSON)
}

// TranslateYAML decodes a YAML schema and runs the default pipeline.
func TranslateYAML(data []byte) (*node.Object, error) {
	return DefaultConfig().TranslateBytes(data, FormatYAML)
}

// Apply threads schema through passes in order. The first failing pass stops
// the pipeline; its error is wrapped with the pass name.
func Apply(schema node.Node, passes ...Pass) (node.Node, error) {
	return apply(zap.NewNop(), schema, passes)
}

func apply(log *zap.Logger, schema node.Node, passes []Pass) (node.Node, error) {
	cur := schema
	for _, p := range passes {
		start := time.Now()
		next, err := p.Transform(cur)
		if err != nil {
			log.Debug("pass failed", zap.String("pass", p.Name), zap.Error(err))
			return nil, fmt.Errorf("%s: %w", p.Name, err)
		}
		log.Debug("pass applied", zap.String("pass", p.Name), zap.Duration("elapsed", time.Since(start)))
		cur = next
	}
	return cur, nil
}

func cloneTable(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return maps.Clone(m)
}
