package schema

import (
	"bytes"
	"encoding/json"
)

// MarshalJSON writes the schema as an object in field order. Lists become
// arrays, numbers stay raw when they are valid JSON numbers, everything else
// is a string. Output is HTML-escaped so it can sit inside a script element.
func (s FieldSchema) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, field := range s.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(field.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		value, err := marshalValue(field.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshalValue(v Value) ([]byte, error) {
	switch v.Kind {
	case KindList:
		items := v.Items
		if items == nil {
			items = []string{}
		}
		return json.Marshal(items)
	case KindNumber:
		if json.Valid([]byte(v.Text)) && v.Text != "" {
			var n json.Number
			if err := json.Unmarshal([]byte(v.Text), &n); err == nil {
				return []byte(n.String()), nil
			}
		}
		return json.Marshal(v.Text)
	default:
		return json.Marshal(v.Text)
	}
}

// MarshalIndent is MarshalJSON with indentation, used by inspection output.
func (s FieldSchema) MarshalIndent(prefix, indent string) ([]byte, error) {
	raw, err := s.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, prefix, indent); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
