package mdform

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/reoring/mdform/node"
)

// Format names a schema serialization.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat parses a format name ("json", "yaml" or "yml").
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("mdform: unknown format %q", s)
	}
}

// FormatForPath guesses the format from a file extension, defaulting to JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// ParseSchema decodes data as f, keeping object key order.
func ParseSchema(data []byte, f Format) (node.Node, error) {
	switch f {
	case FormatJSON, "":
		return node.ParseJSON(data)
	case FormatYAML:
		return node.ParseYAML(data)
	default:
		return nil, fmt.Errorf("mdform: unknown format %q", f)
	}
}
