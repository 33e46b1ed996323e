package schema

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/goliatone/go-cmsform/pkg/dom"
)

// DefaultPayloadID is the id of the element that carries the page payload.
const DefaultPayloadID = "p-root-data"

// LocalPayloadID is the id of an optional page-local payload.
const LocalPayloadID = "p-local-data"

// ErrPayloadNotFound is returned when the page has no element with the
// requested id.
var ErrPayloadNotFound = errors.New("schema: payload element not found")

// ExtractEmbedded parses page and decodes the JSON text of the element whose
// id is elementID. An empty id means DefaultPayloadID.
func ExtractEmbedded(page io.Reader, elementID string) (FieldSchema, error) {
	if page == nil {
		return FieldSchema{}, errors.New("schema: page reader is nil")
	}
	if elementID == "" {
		elementID = DefaultPayloadID
	}
	root, err := html.Parse(page)
	if err != nil {
		return FieldSchema{}, fmt.Errorf("schema: parse page: %w", err)
	}
	return EmbeddedFromNode(root, elementID)
}

// EmbeddedFromNode decodes the payload element below an already parsed tree.
func EmbeddedFromNode(root *html.Node, elementID string) (FieldSchema, error) {
	if elementID == "" {
		elementID = DefaultPayloadID
	}
	expr := "//*[@id=" + dom.XPathLiteral(elementID) + "]"
	node, err := htmlquery.Query(root, expr)
	if err != nil {
		return FieldSchema{}, fmt.Errorf("schema: query payload %q: %w", elementID, err)
	}
	if node == nil {
		return FieldSchema{}, fmt.Errorf("%w: #%s", ErrPayloadNotFound, elementID)
	}
	text := strings.TrimSpace(htmlquery.InnerText(node))
	s, err := DecodeJSON([]byte(text))
	if err != nil {
		return FieldSchema{}, fmt.Errorf("schema: payload #%s: %w", elementID, err)
	}
	return s, nil
}
