// Package mdform translates JSON-Schema-shaped parameter descriptions into the
// flattened form definitions consumed by the dataset job form renderer.
//
// Translation is a fixed sequence of pure tree-rewriting passes:
//
//   - required flags: node-level "required" lists become per-property booleans
//   - enum options: "enum" arrays become {name, value} option lists
//   - anyOf collapse: optional-wrapped types collapse to the wrapped type
//   - oneOf expansion: discriminated unions hoist their variant properties
//   - reference resolution: "$ref" pointers are inlined from "definitions"
//   - key renaming, parameter relocation, properties/items flattening and
//     promotion of the "params" wrapper
//
// Every pass receives a tree and returns a new one; no pass mutates its input,
// and nothing is shared between calls, so translations may run concurrently.
//
// Typical usage:
//
//	form, err := mdform.TranslateJSON(data)
//
//	cfg := mdform.DefaultConfig()
//	cfg.TypeMapping = mdform.DatasetTypeMapping()
//	form, err := cfg.Translate(schema)
//
// The pass order is load-bearing: enum conversion runs before reference
// resolution so enums inside not-yet-inlined definitions keep their original
// shape, anyOf collapse runs before oneOf expansion so an optional union is
// expanded on its property, and flattening runs after resolution so no "$ref"
// placeholder is flattened.
package mdform
