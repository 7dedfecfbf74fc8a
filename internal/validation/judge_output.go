// Package validation applies one uniform schema-validation step to every
// provider's parsed output before it enters consolidation, so a single
// malformed judge response cannot poison the merge.
package validation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/chatlens/chatlens/internal/rubric"
)

// JudgeOutput is the canonical shape every judge must produce: one score per
// rubric subcriterion plus free-text evidence.
type JudgeOutput struct {
	Scores        map[string]float64 `json:"scores"`
	Supporting    []string           `json:"supporting,omitempty"`
	Contradicting []string           `json:"contradicting,omitempty"`
	Improvements  []string           `json:"improvements,omitempty"`
}

// Validator checks raw judge responses against a JSON schema derived from
// the rubric. Compile once, validate per response.
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator compiles the judge-output schema for the given rubric.
func NewValidator(r *rubric.Rubric) (*Validator, error) {
	schemaMap := buildSchema(r)

	// Round-trip through JSON so the compiler sees plain decoded values.
	schemaJSON, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("validation: serialize schema: %w", err)
	}
	var schemaValue any
	if err := json.Unmarshal(schemaJSON, &schemaValue); err != nil {
		return nil, fmt.Errorf("validation: parse schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("judge_output.json", schemaValue); err != nil {
		return nil, fmt.Errorf("validation: add schema resource: %w", err)
	}

	schema, err := compiler.Compile("judge_output.json")
	if err != nil {
		return nil, fmt.Errorf("validation: compile schema: %w", err)
	}

	return &Validator{schema: schema}, nil
}

// Parse extracts the JSON object from a raw judge response (tolerating
// surrounding prose and markdown code fences), validates it against the
// rubric-derived schema, and decodes it. Any failure here is a provider
// failure, never a crash.
func (v *Validator) Parse(raw string) (*JudgeOutput, error) {
	body, err := extractJSON(raw)
	if err != nil {
		return nil, err
	}

	var value any
	if err := json.Unmarshal([]byte(body), &value); err != nil {
		return nil, fmt.Errorf("validation: response is not valid JSON: %w", err)
	}

	if err := v.schema.Validate(value); err != nil {
		return nil, fmt.Errorf("validation: response failed schema check: %w", err)
	}

	var out JudgeOutput
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		return nil, fmt.Errorf("validation: decode response: %w", err)
	}

	return &out, nil
}

// buildSchema derives the judge-output JSON schema from the rubric: every
// subcriterion score is required and bounded to the rubric's score range.
func buildSchema(r *rubric.Rubric) map[string]any {
	scoreProps := map[string]any{}
	required := []string{}
	for _, key := range r.SubcriterionKeys() {
		scoreProps[key] = map[string]any{
			"type":    "number",
			"minimum": rubric.MinScore,
			"maximum": rubric.MaxScore,
		}
		required = append(required, key)
	}

	stringList := map[string]any{
		"type":  "array",
		"items": map[string]any{"type": "string"},
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"scores": map[string]any{
				"type":                 "object",
				"properties":           scoreProps,
				"required":             required,
				"additionalProperties": false,
			},
			"supporting":    stringList,
			"contradicting": stringList,
			"improvements":  stringList,
		},
		"required":             []string{"scores"},
		"additionalProperties": false,
	}
}

// extractJSON returns the outermost JSON object in raw, stripping any prose
// or markdown fencing a model wrapped around it.
func extractJSON(raw string) (string, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return "", fmt.Errorf("validation: no JSON object found in response")
	}
	return raw[start : end+1], nil
}
