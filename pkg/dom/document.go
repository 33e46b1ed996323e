package dom

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/antchfx/htmlquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Option configures a Document at construction time.
type Option func(*Document)

// WithLogger attaches a logger used for dispatch tracing. A nil logger keeps
// the default no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Document) {
		if logger != nil {
			d.logger = logger.Named("dom")
		}
	}
}

// Document wraps an *html.Node tree and adds the pieces of a browser host the
// form builder relies on: id lookups, XPath queries, event listeners with
// bubbling, and focus tracking. A Document is not safe for concurrent use.
type Document struct {
	root      *html.Node
	listeners map[*html.Node]map[string][]Listener
	focused   *html.Node
	logger    *zap.Logger
}

// New returns an empty document with html, head and body elements.
func New(options ...Option) *Document {
	root := &html.Node{Type: html.DocumentNode}
	htmlEl := newElement("html")
	htmlEl.AppendChild(newElement("head"))
	htmlEl.AppendChild(newElement("body"))
	root.AppendChild(htmlEl)
	return newDocument(root, options...)
}

// Parse builds a document from an HTML page.
func Parse(r io.Reader, options ...Option) (*Document, error) {
	if r == nil {
		return nil, errors.New("dom: reader is nil")
	}
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("dom: parse: %w", err)
	}
	return newDocument(root, options...), nil
}

func newDocument(root *html.Node, options ...Option) *Document {
	doc := &Document{
		root:      root,
		listeners: make(map[*html.Node]map[string][]Listener),
		logger:    zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(doc)
	}
	return doc
}

// Root returns the document node.
func (d *Document) Root() *html.Node {
	return d.root
}

// Body returns the body element, or nil when the tree has none.
func (d *Document) Body() *html.Node {
	return htmlquery.FindOne(d.root, "//body")
}

// Head returns the head element, or nil when the tree has none.
func (d *Document) Head() *html.Node {
	return htmlquery.FindOne(d.root, "//head")
}

// CreateElement returns a detached element. Attribute pairs are applied in
// order; a trailing key without a value is ignored.
func (d *Document) CreateElement(tag string, attrs ...string) *html.Node {
	node := newElement(tag)
	for i := 0; i+1 < len(attrs); i += 2 {
		setAttr(node, attrs[i], attrs[i+1])
	}
	return node
}

// CreateText returns a detached text node.
func (d *Document) CreateText(text string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: text}
}

// Append attaches child as the last child of parent, detaching it from any
// previous parent first.
func (d *Document) Append(parent, child *html.Node) *html.Node {
	return d.InsertBefore(parent, child, nil)
}

// InsertBefore attaches child before ref. A nil ref, or a ref that is not a
// child of parent, appends.
func (d *Document) InsertBefore(parent, child, ref *html.Node) *html.Node {
	if parent == nil || child == nil {
		return child
	}
	if child.Parent != nil {
		child.Parent.RemoveChild(child)
	}
	if ref != nil && ref.Parent != parent {
		ref = nil
	}
	parent.InsertBefore(child, ref)
	return child
}

// Remove detaches node from the tree and drops every listener registered on
// it or its descendants.
func (d *Document) Remove(node *html.Node) {
	if node == nil {
		return
	}
	if node.Parent != nil {
		node.Parent.RemoveChild(node)
	}
	walk(node, func(n *html.Node) {
		delete(d.listeners, n)
		if d.focused == n {
			d.focused = nil
		}
	})
}

// Attr returns the attribute value and whether it is present.
func (d *Document) Attr(node *html.Node, key string) (string, bool) {
	return getAttr(node, key)
}

// SetAttr sets or replaces an attribute.
func (d *Document) SetAttr(node *html.Node, key, value string) {
	setAttr(node, key, value)
}

// RemoveAttr deletes an attribute if present.
func (d *Document) RemoveAttr(node *html.Node, key string) {
	if node == nil {
		return
	}
	for i, attr := range node.Attr {
		if attr.Key == key {
			node.Attr = append(node.Attr[:i], node.Attr[i+1:]...)
			return
		}
	}
}

// Text returns the concatenated text content of node.
func (d *Document) Text(node *html.Node) string {
	if node == nil {
		return ""
	}
	return htmlquery.InnerText(node)
}

// SetText replaces the children of node with a single text node.
func (d *Document) SetText(node *html.Node, text string) {
	if node == nil {
		return
	}
	for child := node.FirstChild; child != nil; {
		next := child.NextSibling
		d.Remove(child)
		child = next
	}
	if text != "" {
		node.AppendChild(d.CreateText(text))
	}
}

// Value returns the current value of a form control. Inputs keep it in the
// value attribute; textareas in their text content.
func (d *Document) Value(node *html.Node) string {
	if node == nil || node.Type != html.ElementNode {
		return ""
	}
	if node.Data == "textarea" {
		return d.Text(node)
	}
	value, _ := getAttr(node, "value")
	return value
}

// SetValue updates the value of a form control without dispatching events.
func (d *Document) SetValue(node *html.Node, value string) {
	if node == nil || node.Type != html.ElementNode {
		return
	}
	if node.Data == "textarea" {
		d.SetText(node, value)
		return
	}
	setAttr(node, "value", value)
}

// ByID returns the first element whose id equals id.
func (d *Document) ByID(id string) *html.Node {
	if id == "" {
		return nil
	}
	var found *html.Node
	walk(d.root, func(n *html.Node) {
		if found != nil || n.Type != html.ElementNode {
			return
		}
		if value, ok := getAttr(n, "id"); ok && value == id {
			found = n
		}
	})
	return found
}

// Query returns the first node matching the XPath expression.
func (d *Document) Query(expr string) (*html.Node, error) {
	return d.QueryWithin(d.root, expr)
}

// QueryAll returns every node matching the XPath expression in document order.
func (d *Document) QueryAll(expr string) ([]*html.Node, error) {
	nodes, err := htmlquery.QueryAll(d.root, expr)
	if err != nil {
		return nil, fmt.Errorf("dom: query %q: %w", expr, err)
	}
	return nodes, nil
}

// QueryWithin evaluates expr relative to node and returns the first match.
func (d *Document) QueryWithin(node *html.Node, expr string) (*html.Node, error) {
	if node == nil {
		return nil, nil
	}
	found, err := htmlquery.Query(node, expr)
	if err != nil {
		return nil, fmt.Errorf("dom: query %q: %w", expr, err)
	}
	return found, nil
}

// QueryAllWithin evaluates expr relative to node and returns every match.
func (d *Document) QueryAllWithin(node *html.Node, expr string) ([]*html.Node, error) {
	if node == nil {
		return nil, nil
	}
	nodes, err := htmlquery.QueryAll(node, expr)
	if err != nil {
		return nil, fmt.Errorf("dom: query %q: %w", expr, err)
	}
	return nodes, nil
}

// Contains reports whether node is ancestor or a descendant of ancestor.
func (d *Document) Contains(ancestor, node *html.Node) bool {
	for n := node; n != nil; n = n.Parent {
		if n == ancestor {
			return true
		}
	}
	return false
}

// Focus marks node as the focused element.
func (d *Document) Focus(node *html.Node) {
	d.focused = node
}

// Focused returns the focused element, or nil.
func (d *Document) Focused() *html.Node {
	return d.focused
}

// Render writes the whole document as HTML.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

// RenderNode writes a single node and its subtree as HTML.
func (d *Document) RenderNode(w io.Writer, node *html.Node) error {
	if node == nil {
		return nil
	}
	return html.Render(w, node)
}

// XPathLiteral quotes value for use inside an XPath expression.
func XPathLiteral(value string) string {
	if !strings.Contains(value, "'") {
		return "'" + value + "'"
	}
	if !strings.Contains(value, `"`) {
		return `"` + value + `"`
	}
	parts := strings.Split(value, "'")
	quoted := make([]string, 0, len(parts)*2)
	for i, part := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		if part != "" {
			quoted = append(quoted, "'"+part+"'")
		}
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}

func newElement(tag string) *html.Node {
	tag = strings.ToLower(strings.TrimSpace(tag))
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
}

func getAttr(node *html.Node, key string) (string, bool) {
	if node == nil {
		return "", false
	}
	for _, attr := range node.Attr {
		if attr.Key == key {
			return attr.Val, true
		}
	}
	return "", false
}

func setAttr(node *html.Node, key, value string) {
	if node == nil || key == "" {
		return
	}
	for i, attr := range node.Attr {
		if attr.Key == key {
			node.Attr[i].Val = value
			return
		}
	}
	node.Attr = append(node.Attr, html.Attribute{Key: key, Val: value})
}

func walk(node *html.Node, fn func(*html.Node)) {
	if node == nil {
		return
	}
	fn(node)
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		walk(child, fn)
	}
}
