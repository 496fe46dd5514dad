package parse

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

// Value is a decoded JSON document. It keeps the source text, so object key
// order survives decoding.
type Value struct {
	result gjson.Result
}

// EmptyObject returns the value {}.
func EmptyObject() Value {
	return Value{result: gjson.Parse("{}")}
}

// Decode strictly decodes s. Anything that is not a single well-formed JSON
// document is rejected.
func Decode(s string) (Value, error) {
	var raw json.RawMessage
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return Value{}, fmt.Errorf("invalid JSON: %w", err)
	}
	return Value{result: gjson.ParseBytes(raw)}, nil
}

// Result exposes the underlying gjson document for ordered traversal.
func (v Value) Result() gjson.Result {
	return v.result
}

// IsObject reports whether v is a JSON object.
func (v Value) IsObject() bool {
	return v.result.IsObject()
}

// IsArray reports whether v is a JSON array.
func (v Value) IsArray() bool {
	return v.result.IsArray()
}

// Raw returns the JSON text as it was decoded.
func (v Value) Raw() string {
	if v.result.Raw == "" {
		return "{}"
	}
	return v.result.Raw
}

// String returns the compact form of the document.
func (v Value) String() string {
	return string(pretty.Ugly([]byte(v.Raw())))
}
