package extract

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildFieldsJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map describing the shape a well-extracted record has. It is used
// as an advisory check: a mismatch flags a document for review, it never
// fails the pipeline.
func BuildFieldsJSONSchema() map[string]any {
	sentinel := func(pattern string) map[string]any {
		return map[string]any{
			"type":    "string",
			"pattern": fmt.Sprintf(`^(%s|N/A)$`, pattern),
		}
	}
	props := map[string]any{
		"issuerName":      map[string]any{"type": "string"},
		"invoiceNumber":   sentinel(`\d+`),
		"operationNature": map[string]any{"type": "string", "minLength": 1},
		"taxId":           sentinel(`[\d./-]+`),
		"issueDate":       sentinel(`\d{2}/\d{2}/\d{4}`),
		"totalValue":      sentinel(`[\d.,]+`),
		"referenceNumber": map[string]any{"type": "string", "pattern": `^(\d*)$`},
		"reasonText":      map[string]any{"type": "string"},
		"operationCode":   sentinel(`\d{4}`),
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required": []string{
			"invoiceNumber", "operationNature", "taxId",
			"issueDate", "totalValue", "operationCode",
		},
	}
}

// ValidateFields checks an extracted record against the fields schema.
func ValidateFields(f Fields) error {
	schemaBytes, err := json.Marshal(BuildFieldsJSONSchema())
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("fields.json", bytes.NewReader(schemaBytes)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("fields.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal fields: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("fields do not match schema: %w", err)
	}
	return nil
}
