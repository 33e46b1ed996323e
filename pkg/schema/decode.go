package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Format identifies a payload encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	// FormatHTML is a page carrying the payload in an element (see
	// ExtractEmbedded).
	FormatHTML Format = "html"
)

// Decode parses data using the given format. HTML payloads are looked up
// under DefaultPayloadID.
func Decode(data []byte, format Format) (FieldSchema, error) {
	switch format {
	case FormatJSON, "":
		return DecodeJSON(data)
	case FormatYAML:
		return DecodeYAML(data)
	case FormatTOML:
		return DecodeTOML(data)
	case FormatHTML:
		return ExtractEmbedded(bytes.NewReader(data), DefaultPayloadID)
	default:
		return FieldSchema{}, fmt.Errorf("schema: unsupported format %q", format)
	}
}

// DetectFormat picks a format from the file extension, falling back to a look
// at the first non-space byte.
func DetectFormat(name string, data []byte) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	case ".html", ".htm":
		return FormatHTML
	}
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0:
		return FormatJSON
	case trimmed[0] == '{':
		return FormatJSON
	case trimmed[0] == '<':
		return FormatHTML
	}
	if _, err := toml.Decode(string(trimmed), &map[string]any{}); err == nil {
		return FormatTOML
	}
	return FormatYAML
}

// DecodeJSON parses a JSON object keeping its key order.
func DecodeJSON(data []byte) (FieldSchema, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return FieldSchema{}, fmt.Errorf("schema: decode json: %w", ErrNotObject)
		}
		return FieldSchema{}, fmt.Errorf("schema: decode json: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return FieldSchema{}, ErrNotObject
	}

	var out FieldSchema
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return FieldSchema{}, fmt.Errorf("schema: decode json key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return FieldSchema{}, fmt.Errorf("schema: decode json: unexpected key token %v", keyTok)
		}
		var raw any
		if err := dec.Decode(&raw); err != nil {
			return FieldSchema{}, fmt.Errorf("schema: decode json value %q: %w", key, err)
		}
		out.set(key, FromAny(raw))
	}
	if _, err := dec.Token(); err != nil {
		return FieldSchema{}, fmt.Errorf("schema: decode json: %w", err)
	}
	if tok, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err != nil {
			return FieldSchema{}, fmt.Errorf("schema: decode json: trailing data: %w", err)
		}
		return FieldSchema{}, fmt.Errorf("schema: decode json: trailing data %v", tok)
	}
	return out, nil
}

// DecodeYAML parses a YAML mapping keeping its key order.
func DecodeYAML(data []byte) (FieldSchema, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return FieldSchema{}, fmt.Errorf("schema: decode yaml: %w", err)
	}
	node := &root
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return FieldSchema{}, ErrNotObject
		}
		node = node.Content[0]
	}
	if node.Kind != yaml.MappingNode {
		return FieldSchema{}, ErrNotObject
	}

	var out FieldSchema
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valueNode := node.Content[i], node.Content[i+1]
		value, err := yamlValue(valueNode)
		if err != nil {
			return FieldSchema{}, fmt.Errorf("schema: decode yaml value %q: %w", keyNode.Value, err)
		}
		out.set(keyNode.Value, value)
	}
	return out, nil
}

func yamlValue(node *yaml.Node) (Value, error) {
	if node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	if node.Kind == yaml.ScalarNode {
		switch node.ShortTag() {
		case "!!int", "!!float":
			return Number(node.Value), nil
		case "!!null":
			return Text(""), nil
		default:
			return Text(node.Value), nil
		}
	}
	var raw any
	if err := node.Decode(&raw); err != nil {
		return Value{}, err
	}
	return FromAny(normalizeYAML(raw)), nil
}

// normalizeYAML rewrites map[any]any produced for non-string keys so values
// can be marshalled as JSON by DisplayString.
func normalizeYAML(raw any) any {
	switch v := raw.(type) {
	case map[any]any:
		out := make(map[string]any, len(v))
		for key, value := range v {
			out[fmt.Sprint(key)] = normalizeYAML(value)
		}
		return out
	case map[string]any:
		for key, value := range v {
			v[key] = normalizeYAML(value)
		}
		return v
	case []any:
		for i, value := range v {
			v[i] = normalizeYAML(value)
		}
		return v
	default:
		return v
	}
}

// DecodeTOML parses a TOML document. Top-level key order follows the order in
// which keys appear in the document.
func DecodeTOML(data []byte) (FieldSchema, error) {
	var raw map[string]any
	meta, err := toml.Decode(string(data), &raw)
	if err != nil {
		return FieldSchema{}, fmt.Errorf("schema: decode toml: %w", err)
	}

	var out FieldSchema
	for _, key := range meta.Keys() {
		if len(key) != 1 {
			continue
		}
		name := key[0]
		if _, seen := out.index[name]; seen {
			continue
		}
		out.set(name, FromAny(raw[name]))
	}
	return out, nil
}
