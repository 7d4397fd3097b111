package llm

import "github.com/joseph-ayodele/wz-splitter/constants"

// BuildVerdictJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a generic map.
// We pass this to OpenAI as a structured output constraint and also use it locally to validate.
func BuildVerdictJSONSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"label":      map[string]any{"type": "string", "enum": constants.LabelsAsStrings()},
			"confidence": map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
			"identifier": map[string]any{"type": "string"},
			"reason":     map[string]any{"type": "string"},
		},
		"required": []string{"label", "confidence"},
	}
}
