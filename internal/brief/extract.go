package brief

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

var (
	schemaOnce     sync.Once
	compiledSchema *gojsonschema.Schema
	schemaErr      error
)

func briefSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiledSchema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewGoLoader(schemaDocument()))
	})
	return compiledSchema, schemaErr
}

// ExtractBrief recovers a RawBrief from the model's raw text. The text may be
// wrapped in markdown fences or surrounded by conversational prose; the
// candidate payload is the substring from the first opening brace to the last
// closing brace after fences are stripped. Extraction is deterministic:
// identical input always yields an identical RawBrief or the same error.
//
// A literal unbalanced '{' in a free-text field after the true object end can
// still defeat the scan; the prompt forbids such content but nothing enforces
// it, so that case surfaces as a MalformedOutputError.
func ExtractBrief(raw string) (*RawBrief, error) {
	candidate := braceSpan(stripFences(raw))
	if candidate == "" {
		return nil, &MalformedOutputError{Message: "no JSON object found in response"}
	}

	schema, err := briefSchema()
	if err != nil {
		return nil, &MalformedOutputError{Message: "schema compilation failed", Cause: err}
	}

	result, err := schema.Validate(gojsonschema.NewStringLoader(candidate))
	if err != nil {
		return nil, &MalformedOutputError{Message: "response is not valid JSON", Cause: err}
	}
	if !result.Valid() {
		var missing []string
		for _, verr := range result.Errors() {
			if verr.Type() == "required" {
				if prop, ok := verr.Details()["property"].(string); ok {
					missing = append(missing, prop)
				}
			}
		}
		return nil, &MalformedOutputError{Message: "response does not match the output contract", Missing: missing}
	}

	var rb RawBrief
	if err := json.Unmarshal([]byte(candidate), &rb); err != nil {
		return nil, &MalformedOutputError{Message: "failed to decode payload", Cause: err}
	}
	return &rb, nil
}

// stripFences removes markdown code fence markers so the brace scan does not
// trip over them. Models wrap JSON in ```json blocks even when told not to.
func stripFences(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(text)
}

// braceSpan returns the substring from the first '{' to the last '}'
// inclusive, or an empty string when no such span exists.
func braceSpan(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return ""
	}
	return text[start : end+1]
}
