// Package testsupport holds helpers shared by package tests: schema and page
// fixtures, DOM queries and golden files gated by UPDATE_GOLDENS.
package testsupport

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/net/html"

	"github.com/goliatone/go-cmsform/pkg/dom"
	"github.com/goliatone/go-cmsform/pkg/schema"
)

// MustSchema decodes a JSON payload or fails the test.
func MustSchema(t *testing.T, payload string) schema.FieldSchema {
	t.Helper()
	s, err := schema.DecodeJSON([]byte(payload))
	if err != nil {
		t.Fatalf("decode schema: %v", err)
	}
	return s
}

// LoadSchema reads a fixture file, picking the decoder from its extension.
func LoadSchema(t *testing.T, path string) schema.FieldSchema {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read schema fixture: %v", err)
	}
	s, err := schema.Decode(data, schema.DetectFormat(path, data))
	if err != nil {
		t.Fatalf("decode schema fixture %s: %v", path, err)
	}
	return s
}

// ParseDocument parses page markup or fails the test.
func ParseDocument(t *testing.T, markup string) *dom.Document {
	t.Helper()
	doc, err := dom.Parse(strings.NewReader(markup))
	if err != nil {
		t.Fatalf("parse document: %v", err)
	}
	return doc
}

// QueryAll evaluates expr or fails the test.
func QueryAll(t *testing.T, doc *dom.Document, expr string) []*html.Node {
	t.Helper()
	nodes, err := doc.QueryAll(expr)
	if err != nil {
		t.Fatalf("query %s: %v", expr, err)
	}
	return nodes
}

// Values returns the control values matched by expr in document order.
func Values(t *testing.T, doc *dom.Document, expr string) []string {
	t.Helper()
	var out []string
	for _, node := range QueryAll(t, doc, expr) {
		out = append(out, doc.Value(node))
	}
	return out
}

// Attr returns attribute key of the single node matched by expr.
func Attr(t *testing.T, doc *dom.Document, expr, key string) string {
	t.Helper()
	nodes := QueryAll(t, doc, expr)
	if len(nodes) != 1 {
		t.Fatalf("query %s: expected one node, got %d", expr, len(nodes))
	}
	value, _ := doc.Attr(nodes[0], key)
	return value
}

// RenderNode serialises node or fails the test.
func RenderNode(t *testing.T, doc *dom.Document, node *html.Node) string {
	t.Helper()
	var buf bytes.Buffer
	if err := doc.RenderNode(&buf, node); err != nil {
		t.Fatalf("render node: %v", err)
	}
	return buf.String()
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

// CaptureTemplateOutput runs render against a buffer and returns both the
// returned string and what was written.
func CaptureTemplateOutput(t *testing.T, render func(io.Writer) (string, error)) (string, string) {
	t.Helper()

	var buf bytes.Buffer
	out, err := render(&buf)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}
	return out, buf.String()
}
