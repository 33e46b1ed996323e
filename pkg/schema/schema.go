// Package schema decodes field schemas: ordered mappings from field name to a
// text, number or list default value.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrNotObject is returned when a payload does not decode to a key/value
// mapping at the top level.
var ErrNotObject = errors.New("schema: payload is not an object")

// Kind classifies how a field is rendered.
type Kind string

const (
	// KindText renders as a free-text input.
	KindText Kind = "text"
	// KindNumber renders as a numeric input.
	KindNumber Kind = "number"
	// KindList renders as a hidden serialised input plus one text input per
	// item.
	KindList Kind = "list"
)

// Value is the default value of a field. Text holds the display string for
// text and number kinds; Items holds the list entries for KindList.
type Value struct {
	Kind  Kind
	Text  string
	Items []string
}

// Text returns a text value.
func Text(value string) Value {
	return Value{Kind: KindText, Text: value}
}

// Number returns a number value keeping its textual form.
func Number(literal string) Value {
	return Value{Kind: KindNumber, Text: literal}
}

// List returns a list value. The slice is copied.
func List(items ...string) Value {
	return Value{Kind: KindList, Items: append([]string{}, items...)}
}

// IsList reports whether the value is rendered as a list field.
func (v Value) IsList() bool {
	return v.Kind == KindList
}

// String returns the display form used by inspection output.
func (v Value) String() string {
	if v.Kind == KindList {
		return "[" + strings.Join(v.Items, ", ") + "]"
	}
	return v.Text
}

func (v Value) clone() Value {
	out := v
	if v.Items != nil {
		out.Items = append([]string{}, v.Items...)
	}
	return out
}

// Field pairs a key with its value.
type Field struct {
	Key   string
	Value Value
}

// FieldSchema is an ordered set of fields. Order matches the source payload.
type FieldSchema struct {
	fields []Field
	index  map[string]int
}

// New builds a schema from fields. A repeated key keeps its first position and
// takes the later value.
func New(fields ...Field) FieldSchema {
	var s FieldSchema
	for _, field := range fields {
		s.set(field.Key, field.Value)
	}
	return s
}

// Fields returns a copy of the fields in order.
func (s FieldSchema) Fields() []Field {
	out := make([]Field, len(s.fields))
	for i, field := range s.fields {
		out[i] = Field{Key: field.Key, Value: field.Value.clone()}
	}
	return out
}

// Keys returns the field keys in order.
func (s FieldSchema) Keys() []string {
	keys := make([]string, len(s.fields))
	for i, field := range s.fields {
		keys[i] = field.Key
	}
	return keys
}

// Len returns the number of fields.
func (s FieldSchema) Len() int {
	return len(s.fields)
}

// Get returns the value for key.
func (s FieldSchema) Get(key string) (Value, bool) {
	idx, ok := s.index[key]
	if !ok {
		return Value{}, false
	}
	return s.fields[idx].Value.clone(), true
}

// WithValues returns a copy with overrides applied. Existing keys keep their
// position; unknown keys are appended in sorted order.
func (s FieldSchema) WithValues(values map[string]any) FieldSchema {
	out := New(s.Fields()...)
	if len(values) == 0 {
		return out
	}
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		_, iKnown := s.index[keys[i]]
		_, jKnown := s.index[keys[j]]
		if iKnown != jKnown {
			return iKnown
		}
		return keys[i] < keys[j]
	})
	for _, key := range keys {
		out.set(key, FromAny(values[key]))
	}
	return out
}

// Without returns a copy with keys removed.
func (s FieldSchema) Without(keys ...string) FieldSchema {
	drop := make(map[string]bool, len(keys))
	for _, key := range keys {
		drop[key] = true
	}
	var out FieldSchema
	for _, field := range s.fields {
		if drop[field.Key] {
			continue
		}
		out.set(field.Key, field.Value.clone())
	}
	return out
}

func (s *FieldSchema) set(key string, value Value) {
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if idx, ok := s.index[key]; ok {
		s.fields[idx].Value = value
		return
	}
	s.index[key] = len(s.fields)
	s.fields = append(s.fields, Field{Key: key, Value: value})
}

// FromAny converts a decoded value into a field Value. Lists become KindList
// with every element coerced to its display string; numeric types become
// KindNumber; anything else is KindText.
func FromAny(raw any) Value {
	switch v := raw.(type) {
	case Value:
		return v.clone()
	case []string:
		return List(v...)
	case []any:
		items := make([]string, len(v))
		for i, item := range v {
			items[i] = DisplayString(item)
		}
		return Value{Kind: KindList, Items: items}
	case json.Number, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return Number(DisplayString(v))
	default:
		return Text(DisplayString(v))
	}
}

// DisplayString renders a decoded value the way a browser would show it in
// an input: null is empty, nested lists are comma-joined, objects are compact
// JSON.
func DisplayString(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = DisplayString(item)
		}
		return strings.Join(parts, ",")
	case []string:
		return strings.Join(v, ",")
	case map[string]any:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	default:
		return fmt.Sprint(v)
	}
}
