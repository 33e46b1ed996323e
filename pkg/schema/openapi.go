package schema

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/getkin/kin-openapi/openapi3"
)

// FromOpenAPI derives a schema from the properties of a named component in an
// OpenAPI document. Each property contributes its default, else its example,
// else a zero value for its type. Properties are emitted in name order.
func FromOpenAPI(ctx context.Context, raw []byte, component string) (FieldSchema, error) {
	if err := ctx.Err(); err != nil {
		return FieldSchema{}, err
	}
	if component == "" {
		return FieldSchema{}, errors.New("schema: openapi component name is required")
	}

	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return FieldSchema{}, fmt.Errorf("schema: load openapi: %w", err)
	}
	if doc.Components == nil || doc.Components.Schemas == nil {
		return FieldSchema{}, fmt.Errorf("schema: openapi document has no component schemas")
	}
	ref, ok := doc.Components.Schemas[component]
	if !ok || ref == nil || ref.Value == nil {
		return FieldSchema{}, fmt.Errorf("schema: openapi component %q not found", component)
	}

	names := make([]string, 0, len(ref.Value.Properties))
	for name := range ref.Value.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	var out FieldSchema
	for _, name := range names {
		prop := ref.Value.Properties[name]
		if prop == nil || prop.Value == nil {
			out.set(name, Text(""))
			continue
		}
		out.set(name, propertyValue(prop.Value))
	}
	return out, nil
}

func propertyValue(prop *openapi3.Schema) Value {
	typ := primaryType(prop.Type)
	for _, candidate := range []any{prop.Default, prop.Example} {
		if candidate == nil {
			continue
		}
		value := FromAny(normalizeNumber(candidate))
		if typ == openapi3.TypeArray && !value.IsList() {
			return List(value.Text)
		}
		return value
	}
	switch typ {
	case openapi3.TypeArray:
		return List()
	case openapi3.TypeNumber, openapi3.TypeInteger:
		return Number("0")
	default:
		return Text("")
	}
}

func primaryType(types *openapi3.Types) string {
	if types == nil {
		return ""
	}
	for _, typ := range types.Slice() {
		if typ != openapi3.TypeNull {
			return typ
		}
	}
	return ""
}

// normalizeNumber turns float64 values that hold integers into json.Number so
// 5 is not rendered as 5.0 by callers that format floats differently.
func normalizeNumber(v any) any {
	if f, ok := v.(float64); ok && f == float64(int64(f)) {
		return json.Number(fmt.Sprintf("%d", int64(f)))
	}
	return v
}
