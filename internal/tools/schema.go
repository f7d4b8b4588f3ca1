package tools

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/agentcore/core/pkg/models"
)

// GenerateParamSchema builds an invopop/jsonschema document for a Go type
// describing one tool's decoded parameters, used by callers that want a
// strongly-typed struct (rather than models.ToolSpec.Schema's map-based
// rendering) reflected into the same JSON Schema shape sent to providers
// that support structured tool-call validation.
func GenerateParamSchema(paramStruct any) (json.RawMessage, error) {
	reflector := &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	schema := reflector.Reflect(paramStruct)
	b, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("tools: marshal generated schema: %w", err)
	}
	return b, nil
}

// Validator checks decoded tool-call arguments against a compiled JSON
// Schema before dispatch, catching malformed parameters the action parser's
// line grammar can't (wrong types, missing nested fields) ahead of the
// sandbox RPC that would otherwise surface the error late.
type Validator struct {
	compiled map[models.ToolID]*jsonschema.Schema
}

// NewValidator compiles every tool's schema once at startup.
func NewValidator(registry *Registry) (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	v := &Validator{compiled: make(map[models.ToolID]*jsonschema.Schema)}

	for _, spec := range registry.All() {
		var doc any
		if err := json.Unmarshal(spec.Schema(), &doc); err != nil {
			return nil, fmt.Errorf("tools: decode schema for %s: %w", spec.ID, err)
		}
		resourceName := string(spec.ID) + ".json"
		if err := compiler.AddResource(resourceName, doc); err != nil {
			return nil, fmt.Errorf("tools: add schema resource for %s: %w", spec.ID, err)
		}
		schema, err := compiler.Compile(resourceName)
		if err != nil {
			return nil, fmt.Errorf("tools: compile schema for %s: %w", spec.ID, err)
		}
		v.compiled[spec.ID] = schema
	}
	return v, nil
}

// Validate checks params (as decoded JSON, typically string-valued per the
// action grammar) against the compiled schema for toolID.
func (v *Validator) Validate(toolID models.ToolID, params map[string]string) error {
	schema, ok := v.compiled[toolID]
	if !ok {
		return fmt.Errorf("tools: no compiled schema for %s", toolID)
	}
	instance := make(map[string]any, len(params))
	for k, val := range params {
		instance[k] = val
	}
	if err := schema.Validate(instance); err != nil {
		return fmt.Errorf("tools: %s parameters invalid: %w", toolID, err)
	}
	return nil
}
