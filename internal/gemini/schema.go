package gemini

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// receiptSchemaJSON is permissive about value types, since the model
// sends numbers and strings interchangeably, but strict about the
// overall shape: a JSON object whose items, if present, form an array of
// objects. Anything else is a response-parsing failure.
const receiptSchemaJSON = `{
  "type": "object",
  "properties": {
    "merchant_name":  {"type": ["string", "null"]},
    "total_amount":   {"type": ["number", "string", "null"]},
    "purchased_at":   {"type": ["string", "null"]},
    "receipt_number": {"type": ["string", "null"]},
    "payment_method": {"type": ["string", "null"]},
    "tax_amount":     {"type": ["number", "string", "null"]},
    "currency":       {"type": ["string", "null"]},
    "items": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "properties": {
          "description": {"type": ["string", "null"]},
          "quantity":    {"type": ["number", "string", "null"]},
          "unit_price":  {"type": ["number", "string", "null"]},
          "total_price": {"type": ["number", "string", "null"]}
        }
      }
    }
  }
}`

var receiptSchema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("receipt.json", strings.NewReader(receiptSchemaJSON)); err != nil {
		panic(fmt.Sprintf("add receipt schema: %v", err))
	}
	return c.MustCompile("receipt.json")
}

// validatePayload checks that the fence-stripped model output is valid
// JSON matching the receipt shape.
func validatePayload(payload string) error {
	dec := json.NewDecoder(strings.NewReader(payload))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	if err := receiptSchema.Validate(v); err != nil {
		return fmt.Errorf("payload schema: %w", err)
	}
	return nil
}
