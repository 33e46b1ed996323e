package arrays

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Codec serialises list values into the hidden control.
type Codec interface {
	Name() string
	// Encode returns the serialised form of values and the indices it refused
	// to encode. Empty values are skipped and never reported as rejected.
	Encode(values []string) (string, []int)
	Decode(encoded string) []string
}

// CommaCodec joins values with a comma. A value that itself contains a comma
// cannot survive a split and is rejected.
type CommaCodec struct{}

// Name implements Codec.
func (CommaCodec) Name() string { return "comma" }

// Encode implements Codec.
func (CommaCodec) Encode(values []string) (string, []int) {
	kept := make([]string, 0, len(values))
	var rejected []int
	for i, value := range values {
		switch {
		case value == "":
		case strings.Contains(value, ","):
			rejected = append(rejected, i)
		default:
			kept = append(kept, value)
		}
	}
	return strings.Join(kept, ","), rejected
}

// Decode implements Codec.
func (CommaCodec) Decode(encoded string) []string {
	if encoded == "" {
		return []string{}
	}
	parts := strings.Split(encoded, ",")
	out := parts[:0]
	for _, part := range parts {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// JSONCodec stores values as a JSON array and accepts any value.
type JSONCodec struct{}

// Name implements Codec.
func (JSONCodec) Name() string { return "json" }

// Encode implements Codec.
func (JSONCodec) Encode(values []string) (string, []int) {
	kept := make([]string, 0, len(values))
	for _, value := range values {
		if value != "" {
			kept = append(kept, value)
		}
	}
	data, _ := json.Marshal(kept)
	return string(data), nil
}

// Decode implements Codec. Malformed input decodes to an empty list.
func (JSONCodec) Decode(encoded string) []string {
	var out []string
	if err := json.Unmarshal([]byte(encoded), &out); err != nil || out == nil {
		return []string{}
	}
	return out
}

// CodecByName resolves "comma" (or "") and "json".
func CodecByName(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "comma":
		return CommaCodec{}, nil
	case "json":
		return JSONCodec{}, nil
	default:
		return nil, fmt.Errorf("arrays: unknown codec %q", name)
	}
}
