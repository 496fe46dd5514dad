package parse

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// EnvelopeSchema is the shape the extraction prompt asks for: an object with
// a "data" array of record objects.
const EnvelopeSchema = `{
  "type": "object",
  "required": ["data"],
  "properties": {
    "data": {
      "type": "array",
      "items": {"type": "object"}
    }
  }
}`

var envelope = jsonschema.MustCompileString("envelope.json", EnvelopeSchema)

// CheckEnvelope reports whether v matches EnvelopeSchema. A mismatch is not
// fatal: the normalizer still accepts bare arrays and other record keys.
func CheckEnvelope(v Value) error {
	var doc any
	dec := json.NewDecoder(strings.NewReader(v.Raw()))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("decode value: %w", err)
	}
	if err := envelope.Validate(doc); err != nil {
		return fmt.Errorf("response does not match envelope: %w", err)
	}
	return nil
}
