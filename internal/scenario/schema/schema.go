// Package schema performs the core's own shape check on simulation responses.
// A response is trusted only after passing both the JSON Schema and the typed
// validators; a response that fails either is a contract mismatch, classified
// validation_failure rather than a transport error.
package schema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/axisgrid/concentra/api/scenario"
)

//go:embed scenario_result.schema.json
var scenarioResultSchema string

// Validator checks simulation responses against the wire contract.
type Validator struct {
	compiled *jsonschema.Schema
}

// NewValidator compiles the embedded response schema.
func NewValidator() (*Validator, error) {
	compiled, err := jsonschema.CompileString("scenario_result.schema.json", scenarioResultSchema)
	if err != nil {
		return nil, fmt.Errorf("compile scenario result schema: %w", err)
	}
	return &Validator{compiled: compiled}, nil
}

// ValidateResult decodes and shape-checks a raw response body. Every failure
// is returned as a classified validation_failure.
func (v *Validator) ValidateResult(raw []byte) (scenario.ScenarioResult, error) {
	var generic any
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if err := decoder.Decode(&generic); err != nil {
		return scenario.ScenarioResult{}, scenario.NewFailure(scenario.FailureValidation,
			fmt.Sprintf("response is not valid JSON: %v", err))
	}
	if err := v.compiled.Validate(generic); err != nil {
		return scenario.ScenarioResult{}, scenario.NewFailure(scenario.FailureValidation,
			fmt.Sprintf("response violates scenario result schema: %v", err))
	}

	var result scenario.ScenarioResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return scenario.ScenarioResult{}, scenario.NewFailure(scenario.FailureValidation,
			fmt.Sprintf("decode scenario result: %v", err))
	}
	if err := result.Validate(); err != nil {
		return scenario.ScenarioResult{}, scenario.NewFailure(scenario.FailureValidation,
			fmt.Sprintf("scenario result shape check: %v", err))
	}
	return result, nil
}
