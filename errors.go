package mdform

import (
	"errors"
	"fmt"
	"strings"
)

// ErrRootNotObject is returned when the schema (or the translated form) is not
// a JSON object.
var ErrRootNotObject = errors.New("mdform: schema root must be an object")

// ReferenceError is implemented by every $ref resolution failure. Reference
// returns the offending $ref value and Location the JSON Pointer of the node
// that carried it.
type ReferenceError interface {
	error
	Reference() string
	Location() string
}

// UnsupportedReferenceError reports a $ref that does not start with
// "#/definitions/".
type UnsupportedReferenceError struct {
	Ref  string
	Path string
}

func (e *UnsupportedReferenceError) Error() string {
	return fmt.Sprintf("unsupported $ref %q at %s (only %s... is supported)", e.Ref, e.Path, RefPrefix)
}

func (e *UnsupportedReferenceError) Reference() string { return e.Ref }
func (e *UnsupportedReferenceError) Location() string  { return e.Path }

// MissingDefinitionError reports a $ref naming a definition that is absent
// from the definitions table.
type MissingDefinitionError struct {
	Ref  string
	Name string
	Path string
}

func (e *MissingDefinitionError) Error() string {
	return fmt.Sprintf("definition %q referenced by %q at %s not found", e.Name, e.Ref, e.Path)
}

func (e *MissingDefinitionError) Reference() string { return e.Ref }
func (e *MissingDefinitionError) Location() string  { return e.Path }

// InvalidReferencePathError reports a nested reference segment that does not
// lead to an object key, or a reference whose target is not an object.
type InvalidReferencePathError struct {
	Ref     string
	Segment string
	Path    string
}

func (e *InvalidReferencePathError) Error() string {
	return fmt.Sprintf("$ref %q at %s: segment %q does not resolve to an object", e.Ref, e.Path, e.Segment)
}

func (e *InvalidReferencePathError) Reference() string { return e.Ref }
func (e *InvalidReferencePathError) Location() string  { return e.Path }

// CyclicReferenceError reports a $ref that is reached again while it is still
// being expanded. Chain lists the references from the outermost one to the
// repeated one.
type CyclicReferenceError struct {
	Ref   string
	Path  string
	Chain []string
}

func (e *CyclicReferenceError) Error() string {
	return fmt.Sprintf("cyclic $ref %q at %s (%s)", e.Ref, e.Path, strings.Join(e.Chain, " -> "))
}

func (e *CyclicReferenceError) Reference() string { return e.Ref }
func (e *CyclicReferenceError) Location() string  { return e.Path }

// AsReferenceError extracts a ReferenceError from err.
func AsReferenceError(err error) (ReferenceError, bool) {
	if err == nil {
		return nil, false
	}
	var re ReferenceError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}
