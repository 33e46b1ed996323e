// Package arrays keeps the hidden control of a list field in step with its
// per-item inputs.
package arrays

import (
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/goliatone/go-cmsform/pkg/dom"
)

// Attribute names shared with the browser runtime.
const (
	AttrArrayKey   = "data-array-key"
	AttrArrayIndex = "data-array-index"
	AttrItemID     = "data-item-id"
	AttrError      = "data-cms-error"
	AttrInvalid    = "aria-invalid"

	// ErrorDelimiter marks an item the codec could not encode.
	ErrorDelimiter = "delimiter"
)

var (
	// ErrUnknownField is returned for a key that was never attached.
	ErrUnknownField = errors.New("arrays: unknown field")
	// ErrUnknownItem is returned when removing an id the list does not hold.
	ErrUnknownItem = errors.New("arrays: unknown item")
)

// Markup controls the classes and captions of generated rows.
type Markup struct {
	RowClass    string
	InputClass  string
	RemoveClass string
	RemoveLabel string
}

// DefaultMarkup returns the row markup used when none is configured.
func DefaultMarkup() Markup {
	return Markup{
		RowClass:    "cms-array-item",
		RemoveClass: "cms-array-remove",
		RemoveLabel: "×",
	}
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithCodec selects the list serialisation. Nil keeps CommaCodec.
func WithCodec(codec Codec) Option {
	return func(s *Synchronizer) {
		if codec != nil {
			s.codec = codec
		}
	}
}

// WithMarkup overrides row classes and captions. Empty fields keep defaults.
func WithMarkup(markup Markup) Option {
	return func(s *Synchronizer) {
		if markup.RowClass != "" {
			s.markup.RowClass = markup.RowClass
		}
		if markup.InputClass != "" {
			s.markup.InputClass = markup.InputClass
		}
		if markup.RemoveClass != "" {
			s.markup.RemoveClass = markup.RemoveClass
		}
		if markup.RemoveLabel != "" {
			s.markup.RemoveLabel = markup.RemoveLabel
		}
	}
}

// WithLogger attaches a logger. Nil keeps the no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Synchronizer) {
		if logger != nil {
			s.logger = logger.Named("arrays")
		}
	}
}

// Field describes the nodes of one list field. Hidden is only used to seed
// the initial value; later updates look the hidden control up by id inside
// Scope so a removed control turns resync into a no-op. Scope is the form
// root (usually the fieldset); nil searches the whole document. Item inputs
// are only collected from Container, so forms sharing a document and a key
// stay independent.
type Field struct {
	Key       string
	Values    []string
	Hidden    *html.Node
	Container *html.Node
	AddButton *html.Node
	Scope     *html.Node
}

// Result reports the outcome of a resync.
type Result struct {
	Key      string
	Encoded  string
	Items    []Item
	Rejected []Item
}

type entry struct {
	field Field
	list  *List
	rows  map[string]*html.Node
}

// Synchronizer owns the list fields of one document. Like the document it is
// not safe for concurrent use.
type Synchronizer struct {
	doc    *dom.Document
	codec  Codec
	markup Markup
	logger *zap.Logger

	fields map[string]*entry
	order  []string
}

// New returns a Synchronizer bound to doc.
func New(doc *dom.Document, options ...Option) *Synchronizer {
	s := &Synchronizer{
		doc:    doc,
		codec:  CommaCodec{},
		markup: DefaultMarkup(),
		logger: zap.NewNop(),
		fields: make(map[string]*entry),
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Codec returns the configured codec.
func (s *Synchronizer) Codec() Codec { return s.codec }

// Attach renders one row per value into field.Container, wires the add
// button and seeds the hidden control.
func (s *Synchronizer) Attach(field Field) (*List, error) {
	if s.doc == nil {
		return nil, errors.New("arrays: document is nil")
	}
	if field.Container == nil {
		return nil, fmt.Errorf("arrays: %q: container is nil", field.Key)
	}
	if _, exists := s.fields[field.Key]; exists {
		return nil, fmt.Errorf("arrays: %q: field already attached", field.Key)
	}

	e := &entry{
		field: field,
		list:  NewList(field.Key, nil),
		rows:  make(map[string]*html.Node),
	}
	s.fields[field.Key] = e
	s.order = append(s.order, field.Key)

	for i, value := range field.Values {
		item := e.list.Append(value)
		s.insertRow(e, item, i)
	}
	if field.AddButton != nil {
		s.doc.AddEventListener(field.AddButton, dom.EventClick, func(*dom.Event) {
			if _, err := s.AddItem(field.Key); err != nil {
				s.logger.Warn("add item failed", zap.String("key", field.Key), zap.Error(err))
			}
		})
	}

	encoded, rejected := s.codec.Encode(e.list.Values())
	s.markRejected(e, rejected)
	if field.Hidden != nil {
		s.doc.SetValue(field.Hidden, encoded)
	}
	return e.list, nil
}

// Resync rebuilds the hidden control of key from the item inputs currently in
// the field's container, in document order, then fires a bubbling input event
// on it.
func (s *Synchronizer) Resync(key string) (Result, error) {
	e, ok := s.fields[key]
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownField, key)
	}

	inputs, err := s.itemInputs(e)
	if err != nil {
		return Result{}, err
	}
	ids := make([]string, 0, len(inputs))
	seen := make(map[string]bool, len(inputs))
	for _, input := range inputs {
		id, _ := s.doc.Attr(input, AttrItemID)
		value := s.doc.Value(input)
		if id == "" || seen[id] || e.list.Index(id) < 0 {
			item := e.list.Append(value)
			id = item.ID
			s.doc.SetAttr(input, AttrItemID, id)
		} else {
			e.list.Set(id, value)
		}
		seen[id] = true
		ids = append(ids, id)
	}
	if err := e.list.Reorder(ids); err != nil {
		return Result{}, err
	}
	for id := range e.rows {
		if e.list.Index(id) < 0 {
			delete(e.rows, id)
		}
	}

	hidden, err := s.hiddenControl(e)
	if err != nil {
		return Result{}, err
	}
	if hidden == nil {
		s.logger.Debug("hidden control missing", zap.String("key", key))
		return Result{}, nil
	}

	encoded, rejected := s.codec.Encode(e.list.Values())
	s.markRejectedInputs(inputs, rejected)

	items := e.list.Items()
	result := Result{Key: key, Encoded: encoded, Items: items}
	for _, idx := range rejected {
		result.Rejected = append(result.Rejected, items[idx])
	}

	s.doc.SetValue(hidden, encoded)
	s.doc.Dispatch(hidden, &dom.Event{Type: dom.EventInput, Bubbles: true})
	s.logger.Debug("resync",
		zap.String("key", key),
		zap.String("encoded", encoded),
		zap.Int("items", len(items)),
		zap.Int("rejected", len(rejected)),
	)
	return result, nil
}

// AddItem inserts an empty row before the add button, focuses its input and
// resyncs.
func (s *Synchronizer) AddItem(key string) (Item, error) {
	e, ok := s.fields[key]
	if !ok {
		return Item{}, fmt.Errorf("%w: %q", ErrUnknownField, key)
	}
	inputs, err := s.itemInputs(e)
	if err != nil {
		return Item{}, err
	}
	item := e.list.Append("")
	input := s.insertRow(e, item, len(inputs))
	s.doc.Focus(input)
	if _, err := s.Resync(key); err != nil {
		return item, err
	}
	return item, nil
}

// RemoveItem detaches the row holding id and resyncs.
func (s *Synchronizer) RemoveItem(key, id string) error {
	e, ok := s.fields[key]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, key)
	}
	row, ok := e.rows[id]
	if !ok {
		return fmt.Errorf("%w: %s/%s", ErrUnknownItem, key, id)
	}
	s.doc.Remove(row)
	delete(e.rows, id)
	e.list.Remove(id)
	_, err := s.Resync(key)
	return err
}

// List returns the state of key.
func (s *Synchronizer) List(key string) (*List, bool) {
	e, ok := s.fields[key]
	if !ok {
		return nil, false
	}
	return e.list, true
}

// Input returns the text input of item id, or nil.
func (s *Synchronizer) Input(key, id string) *html.Node {
	e, ok := s.fields[key]
	if !ok {
		return nil
	}
	row := e.rows[id]
	if row == nil {
		return nil
	}
	found, _ := s.doc.QueryWithin(row, ".//input[@"+AttrItemID+"="+dom.XPathLiteral(id)+"]")
	return found
}

// Keys returns the attached keys in attach order.
func (s *Synchronizer) Keys() []string {
	return append([]string(nil), s.order...)
}

func (s *Synchronizer) itemInputs(e *entry) ([]*html.Node, error) {
	return s.doc.QueryAllWithin(e.field.Container, ".//input[@"+AttrArrayKey+"="+dom.XPathLiteral(e.field.Key)+"]")
}

// hiddenControl resolves the hidden input by id within the field's scope. An
// empty key never matches, like getElementById("").
func (s *Synchronizer) hiddenControl(e *entry) (*html.Node, error) {
	key := e.field.Key
	if key == "" {
		return nil, nil
	}
	if e.field.Scope == nil {
		return s.doc.ByID(key), nil
	}
	return s.doc.QueryWithin(e.field.Scope, ".//*[@id="+dom.XPathLiteral(key)+"]")
}

// insertRow builds a row for item and places it before the add button.
func (s *Synchronizer) insertRow(e *entry, item Item, index int) *html.Node {
	key := e.field.Key
	row := s.doc.CreateElement("div", "class", s.markup.RowClass, AttrItemID, item.ID)
	input := s.doc.Append(row, s.doc.CreateElement("input",
		"type", "text",
		AttrArrayKey, key,
		AttrArrayIndex, strconv.Itoa(index),
		AttrItemID, item.ID,
		"value", item.Value,
	))
	if s.markup.InputClass != "" {
		s.doc.SetAttr(input, "class", s.markup.InputClass)
	}
	remove := s.doc.Append(row, s.doc.CreateElement("button",
		"type", "button",
		"class", s.markup.RemoveClass,
		"aria-label", "Remove item",
	))
	s.doc.SetText(remove, s.markup.RemoveLabel)

	s.doc.AddEventListener(input, dom.EventInput, func(*dom.Event) {
		if _, err := s.Resync(key); err != nil {
			s.logger.Warn("resync failed", zap.String("key", key), zap.Error(err))
		}
	})
	id := item.ID
	s.doc.AddEventListener(remove, dom.EventClick, func(*dom.Event) {
		if err := s.RemoveItem(key, id); err != nil {
			s.logger.Warn("remove item failed", zap.String("key", key), zap.Error(err))
		}
	})

	s.doc.InsertBefore(e.field.Container, row, e.field.AddButton)
	e.rows[item.ID] = row
	return input
}

func (s *Synchronizer) markRejected(e *entry, rejected []int) {
	inputs := make([]*html.Node, 0, e.list.Len())
	for _, item := range e.list.Items() {
		inputs = append(inputs, s.Input(e.field.Key, item.ID))
	}
	s.markRejectedInputs(inputs, rejected)
}

func (s *Synchronizer) markRejectedInputs(inputs []*html.Node, rejected []int) {
	bad := make(map[int]bool, len(rejected))
	for _, idx := range rejected {
		bad[idx] = true
	}
	for i, input := range inputs {
		if input == nil {
			continue
		}
		if bad[i] {
			s.doc.SetAttr(input, AttrInvalid, "true")
			s.doc.SetAttr(input, AttrError, ErrorDelimiter)
			continue
		}
		s.doc.RemoveAttr(input, AttrInvalid)
		s.doc.RemoveAttr(input, AttrError)
	}
}
