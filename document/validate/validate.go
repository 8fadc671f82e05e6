// Package validate checks document trees against a compiled JSON Schema,
// an addition beyond the core binding pipeline that gives
// github.com/santhosh-tekuri/jsonschema/v6 a concrete home (SPEC_FULL.md §4
// "Document validation"). The execution pipeline does not call it.
package validate

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"goa.design/schemarpc/document"
)

// Schema is a compiled JSON Schema a Document can be validated against.
type Schema struct {
	compiled *jsonschema.Schema
}

// Compile parses schemaJSON as a JSON Schema document and compiles it,
// following the teacher's AddResource/Compile two-step
// (registry/service.go's validatePayloadJSONAgainstSchema).
func Compile(resourceName string, schemaJSON []byte) (*Schema, error) {
	var schemaDoc any
	if err := json.Unmarshal(schemaJSON, &schemaDoc); err != nil {
		return nil, fmt.Errorf("validate: unmarshal schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(resourceName, schemaDoc); err != nil {
		return nil, fmt.Errorf("validate: add schema resource: %w", err)
	}
	compiled, err := c.Compile(resourceName)
	if err != nil {
		return nil, fmt.Errorf("validate: compile schema: %w", err)
	}
	return &Schema{compiled: compiled}, nil
}

// Validate checks v against s, converting the document tree to the plain
// any representation jsonschema/v6 expects (map[string]any/[]any/...) via a
// JSON round trip through document.MarshalJSON/encoding/json, so Map's
// explicit key order has no bearing on the validation result.
func (s *Schema) Validate(v document.Value) error {
	raw, err := document.MarshalJSON(v)
	if err != nil {
		return fmt.Errorf("validate: marshal document: %w", err)
	}
	var native any
	if err := json.Unmarshal(raw, &native); err != nil {
		return fmt.Errorf("validate: unmarshal document: %w", err)
	}
	if err := s.compiled.Validate(native); err != nil {
		return err
	}
	return nil
}

// ValidateJSON checks raw JSON bytes directly, for callers holding a wire
// payload rather than an already-parsed document.Value.
func (s *Schema) ValidateJSON(raw []byte) error {
	var native any
	if err := json.Unmarshal(raw, &native); err != nil {
		return fmt.Errorf("validate: unmarshal json: %w", err)
	}
	if err := s.compiled.Validate(native); err != nil {
		return err
	}
	return nil
}
