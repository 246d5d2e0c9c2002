package node

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	j "github.com/goccy/go-json"
)

// DuplicateKeyError reports a key that occurs twice in the same object.
// Line and Col are set for YAML input only.
type DuplicateKeyError struct {
	Key       string
	Path      string // JSON Pointer of the enclosing object
	FirstLine int
	FirstCol  int
	Line      int
	Col       int
}

func (e *DuplicateKeyError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("duplicate YAML key %q at %d:%d (first at %d:%d)", e.Key, e.Line, e.Col, e.FirstLine, e.FirstCol)
	}
	return fmt.Sprintf("duplicate key %q in object at %s", e.Key, e.Path)
}

// ParseJSON decodes a single JSON document, keeping object key order.
func ParseJSON(data []byte) (Node, error) {
	return DecodeJSON(bytes.NewReader(data))
}

// DecodeJSON reads a single JSON document from r. Trailing data after the
// document is an error.
func DecodeJSON(r io.Reader) (Node, error) {
	dec := j.NewDecoder(r)
	dec.UseNumber()
	d := &jsonDecoder{dec: dec}
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("node: empty JSON input")
		}
		return nil, fmt.Errorf("node: invalid JSON: %w", err)
	}
	n, err := d.value(tok, Root())
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("node: invalid JSON: trailing data after document")
	}
	return n, nil
}

type jsonDecoder struct {
	dec *j.Decoder
}

func (d *jsonDecoder) next() (j.Token, error) {
	tok, err := d.dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("node: invalid JSON: %w", io.ErrUnexpectedEOF)
		}
		return nil, fmt.Errorf("node: invalid JSON: %w", err)
	}
	return tok, nil
}

func (d *jsonDecoder) value(tok j.Token, at Pointer) (Node, error) {
	switch v := tok.(type) {
	case j.Delim:
		switch v {
		case '{':
			return d.object(at)
		case '[':
			return d.array(at)
		default:
			return nil, fmt.Errorf("node: invalid JSON: unexpected %q at %s", rune(v), at)
		}
	case string:
		return String(v), nil
	case j.Number:
		return Number(v), nil
	case float64:
		return Float(v), nil
	case bool:
		return Bool(v), nil
	case nil:
		return Null{}, nil
	default:
		return nil, fmt.Errorf("node: invalid JSON: unexpected token %T at %s", tok, at)
	}
}

func (d *jsonDecoder) object(at Pointer) (Node, error) {
	o := NewObject()
	for {
		tok, err := d.next()
		if err != nil {
			return nil, err
		}
		if delim, ok := tok.(j.Delim); ok && delim == '}' {
			return o, nil
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("node: invalid JSON: object key expected at %s", at)
		}
		if o.Has(key) {
			return nil, &DuplicateKeyError{Key: key, Path: at.String()}
		}
		vt, err := d.next()
		if err != nil {
			return nil, err
		}
		v, err := d.value(vt, at.Field(key))
		if err != nil {
			return nil, err
		}
		o.Set(key, v)
	}
}

func (d *jsonDecoder) array(at Pointer) (Node, error) {
	a := Array{}
	for i := 0; ; i++ {
		tok, err := d.next()
		if err != nil {
			return nil, err
		}
		if delim, ok := tok.(j.Delim); ok && delim == ']' {
			return a, nil
		}
		v, err := d.value(tok, at.Index(i))
		if err != nil {
			return nil, err
		}
		a = append(a, v)
	}
}

// MarshalJSON encodes the object with its keys in insertion order.
func (o *Object) MarshalJSON() ([]byte, error) { return Marshal(o) }

// MarshalJSON encodes the array.
func (a Array) MarshalJSON() ([]byte, error) { return Marshal(a) }

// Marshal encodes n as compact JSON.
func Marshal(n Node) ([]byte, error) {
	var buf bytes.Buffer
	if err := encode(&buf, n); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalIndent is Marshal with indentation applied.
func MarshalIndent(n Node, prefix, indent string) ([]byte, error) {
	raw, err := Marshal(n)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := j.Indent(&buf, raw, prefix, indent); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encode(buf *bytes.Buffer, n Node) error {
	switch v := n.(type) {
	case *Object:
		buf.WriteByte('{')
		i := 0
		for k, c := range v.All() {
			if i > 0 {
				buf.WriteByte(',')
			}
			i++
			if err := encodeString(buf, k); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := encode(buf, c); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case Array:
		buf.WriteByte('[')
		for i, c := range v {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encode(buf, c); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case String:
		return encodeString(buf, string(v))
	case Number:
		if !j.Valid([]byte(v)) {
			return fmt.Errorf("node: invalid number literal %q", string(v))
		}
		buf.WriteString(string(v))
	case Bool:
		buf.WriteString(strconv.FormatBool(bool(v)))
	case Null, nil:
		buf.WriteString("null")
	default:
		return fmt.Errorf("node: cannot encode %T", n)
	}
	return nil
}

func encodeString(buf *bytes.Buffer, s string) error {
	b, err := j.Marshal(s)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}
