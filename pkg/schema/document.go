package schema

import (
	"bytes"
	"errors"
	"fmt"
)

// Document is a fetched payload together with its origin and format.
type Document struct {
	source Source
	raw    []byte
	format Format
}

// NewDocument wraps raw. An empty format is detected from the source location
// and the payload bytes.
func NewDocument(src Source, raw []byte, format Format) (Document, error) {
	if src == nil {
		return Document{}, errors.New("schema: source is required")
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return Document{}, fmt.Errorf("schema: %s: payload is empty", src.Location())
	}
	if format == "" {
		format = DetectFormat(src.Location(), raw)
	}
	return Document{source: src, raw: append([]byte(nil), raw...), format: format}, nil
}

// MustNewDocument panics if the document cannot be created. Useful for tests.
func MustNewDocument(src Source, raw []byte, format Format) Document {
	doc, err := NewDocument(src, raw, format)
	if err != nil {
		panic(err)
	}
	return doc
}

// Source returns the origin of the payload.
func (d Document) Source() Source { return d.source }

// Format returns the payload encoding.
func (d Document) Format() Format { return d.format }

// Raw returns a copy of the payload bytes.
func (d Document) Raw() []byte {
	return append([]byte(nil), d.raw...)
}

// Location returns the origin identifier.
func (d Document) Location() string {
	if d.source == nil {
		return ""
	}
	return d.source.Location()
}

// Schema decodes the payload.
func (d Document) Schema() (FieldSchema, error) {
	s, err := Decode(d.raw, d.format)
	if err != nil {
		return FieldSchema{}, fmt.Errorf("schema: %s: %w", d.Location(), err)
	}
	return s, nil
}
