// Package form renders a field schema into an editable fieldset and wires the
// list fields to an arrays.Synchronizer.
package form

import (
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/goliatone/go-cmsform/pkg/arrays"
	"github.com/goliatone/go-cmsform/pkg/binding"
	"github.com/goliatone/go-cmsform/pkg/dom"
	"github.com/goliatone/go-cmsform/pkg/schema"
)

// ErrNoContainer is returned when Build has nowhere to put the fieldset.
var ErrNoContainer = errors.New("form: container is required")

// Builder turns field schemas into form markup.
type Builder struct {
	cfg config
}

// NewBuilder constructs a Builder.
func NewBuilder(options ...Option) *Builder {
	cfg := defaultConfig()
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &Builder{cfg: cfg}
}

// BindAttribute returns the reactive binding attribute set on controls.
func (b *Builder) BindAttribute() string { return b.cfg.bindAttr }

// Codec returns the list codec used for hidden controls.
func (b *Builder) Codec() arrays.Codec { return b.cfg.codec }

// Build appends a line break and a fieldset titled title to container, with
// one labelled control per field in schema order.
func (b *Builder) Build(doc *dom.Document, s schema.FieldSchema, container *html.Node, title string) (*Form, error) {
	if doc == nil || container == nil {
		return nil, ErrNoContainer
	}
	logger := b.cfg.logger.Named("form")

	doc.Append(container, doc.CreateElement("br"))
	fieldset := doc.Append(container, doc.CreateElement("fieldset"))
	setClass(doc, fieldset, b.cfg.classes.Fieldset)
	legend := doc.Append(fieldset, doc.CreateElement("legend"))
	b.writeTitle(doc, legend, title)

	sync := arrays.New(doc,
		arrays.WithCodec(b.cfg.codec),
		arrays.WithLogger(b.cfg.logger),
		arrays.WithMarkup(arrays.Markup{
			RowClass:    b.cfg.classes.Row,
			InputClass:  b.cfg.classes.RowInput,
			RemoveClass: b.cfg.classes.Remove,
			RemoveLabel: b.cfg.labels.Remove,
		}),
	)

	f := &Form{
		doc:      doc,
		fieldset: fieldset,
		sync:     sync,
		source:   s,
		controls: make(map[string]*html.Node, s.Len()),
	}

	for _, field := range s.Fields() {
		wrapper := doc.Append(fieldset, doc.CreateElement("div"))
		setClass(doc, wrapper, b.cfg.classes.Field)
		label := doc.Append(wrapper, doc.CreateElement("label", "for", field.Key))
		doc.SetText(label, field.Key)

		if field.Value.IsList() {
			if err := b.buildList(doc, f, fieldset, field); err != nil {
				return nil, err
			}
		} else {
			f.controls[field.Key] = b.buildScalar(doc, fieldset, field)
		}

		doc.Append(fieldset, doc.CreateElement("br"))
		doc.Append(fieldset, doc.CreateElement("br"))
	}

	logger.Debug("form built", zap.String("title", title), zap.Int("fields", s.Len()))
	return f, nil
}

func (b *Builder) buildScalar(doc *dom.Document, fieldset *html.Node, field schema.Field) *html.Node {
	inputType := "text"
	if field.Value.Kind == schema.KindNumber {
		inputType = "number"
	}
	input := doc.Append(fieldset, doc.CreateElement("input",
		"type", inputType,
		"id", field.Key,
		"name", field.Key,
		"placeholder", field.Key,
		"value", field.Value.Text,
	))
	binding.Bind(doc, input, field.Key, b.cfg.bindAttr)
	return input
}

func (b *Builder) buildList(doc *dom.Document, f *Form, fieldset *html.Node, field schema.Field) error {
	hidden := doc.Append(fieldset, doc.CreateElement("input",
		"type", "hidden",
		"id", field.Key,
		"name", field.Key,
	))
	binding.Bind(doc, hidden, field.Key, b.cfg.bindAttr)

	container := doc.Append(fieldset, doc.CreateElement("div", "id", field.Key+"-array-container"))
	setClass(doc, container, b.cfg.classes.ArrayContainer)
	add := doc.Append(container, doc.CreateElement("button",
		"type", "button",
		arrays.AttrArrayKey, field.Key,
	))
	setClass(doc, add, b.cfg.classes.Add)
	doc.SetText(add, b.cfg.labels.Add)

	if _, err := f.sync.Attach(arrays.Field{
		Key:       field.Key,
		Values:    field.Value.Items,
		Hidden:    hidden,
		Container: container,
		AddButton: add,
		Scope:     fieldset,
	}); err != nil {
		return err
	}
	f.controls[field.Key] = hidden
	return nil
}

func (b *Builder) writeTitle(doc *dom.Document, legend *html.Node, title string) {
	if b.cfg.titlePolicy == nil {
		doc.SetText(legend, title)
		return
	}
	clean := b.cfg.titlePolicy.Sanitize(title)
	parent := &html.Node{Type: html.ElementNode, Data: "legend", DataAtom: atom.Legend}
	nodes, err := html.ParseFragment(strings.NewReader(clean), parent)
	if err != nil {
		doc.SetText(legend, title)
		return
	}
	for _, node := range nodes {
		doc.Append(legend, node)
	}
}

func setClass(doc *dom.Document, node *html.Node, class string) {
	if class != "" {
		doc.SetAttr(node, "class", class)
	}
}
