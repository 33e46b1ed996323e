package form

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/goliatone/go-cmsform/pkg/arrays"
	"github.com/goliatone/go-cmsform/pkg/dom"
	"github.com/goliatone/go-cmsform/pkg/schema"
)

// Form is a built fieldset together with its list state.
type Form struct {
	doc      *dom.Document
	fieldset *html.Node
	sync     *arrays.Synchronizer
	source   schema.FieldSchema
	controls map[string]*html.Node
}

// Fieldset returns the generated fieldset element.
func (f *Form) Fieldset() *html.Node { return f.fieldset }

// Synchronizer returns the list synchronizer for this form.
func (f *Form) Synchronizer() *arrays.Synchronizer { return f.sync }

// Document returns the document the form lives in.
func (f *Form) Document() *dom.Document { return f.doc }

// Control returns the bound control of key: the scalar input, or the hidden
// input of a list field.
func (f *Form) Control(key string) *html.Node { return f.controls[key] }

// Snapshot reads the current values back from the document in schema order.
func (f *Form) Snapshot() schema.FieldSchema {
	fields := make([]schema.Field, 0, f.source.Len())
	for _, field := range f.source.Fields() {
		node := f.controls[field.Key]
		value := f.doc.Value(node)
		switch {
		case field.Value.IsList():
			fields = append(fields, schema.Field{Key: field.Key, Value: schema.List(f.sync.Codec().Decode(value)...)})
		case isNumberInput(f.doc, node) && isNumber(value):
			fields = append(fields, schema.Field{Key: field.Key, Value: schema.Number(strings.TrimSpace(value))})
		default:
			fields = append(fields, schema.Field{Key: field.Key, Value: schema.Text(value)})
		}
	}
	return schema.New(fields...)
}

func isNumberInput(doc *dom.Document, node *html.Node) bool {
	typ, _ := doc.Attr(node, "type")
	return typ == "number"
}

func isNumber(value string) bool {
	_, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	return err == nil
}
