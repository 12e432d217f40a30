// Package json wraps the project's JSON codec so call sites never import
// the codec directly. Backed by bytedance/sonic.
package json

import (
	"github.com/bytedance/sonic"
)

// Marshal serializes v into JSON bytes.
func Marshal(v interface{}) ([]byte, error) {
	return sonic.Marshal(v)
}

// MarshalIndent serializes v into indented JSON bytes.
func MarshalIndent(v interface{}, prefix, indent string) ([]byte, error) {
	return sonic.MarshalIndent(v, prefix, indent)
}

// MarshalString serializes v into a JSON string.
func MarshalString(v interface{}) (string, error) {
	return sonic.MarshalString(v)
}

// Unmarshal parses JSON bytes into v.
func Unmarshal(data []byte, v interface{}) error {
	return sonic.Unmarshal(data, v)
}

// UnmarshalString parses a JSON string into v.
func UnmarshalString(data string, v interface{}) error {
	return sonic.UnmarshalString(data, v)
}

// Roundtrip re-encodes v through JSON so the result contains only plain
// JSON value types (map[string]interface{}, []interface{}, float64, ...).
func Roundtrip(v interface{}) (interface{}, error) {
	data, err := sonic.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out interface{}
	if err := sonic.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
