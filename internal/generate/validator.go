package generate

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/papermint/papermint/internal/catalog"
)

// Content is validated generated output in one of two shapes: flowing text
// or a structured field map.
type Content struct {
	Mode   catalog.OutputMode
	Text   string
	Fields map[string]any
}

// Validator checks raw provider output for the shape a service expects and
// exposes the repair battery applicable to that shape.
type Validator interface {
	Validate(raw string) (Content, error)
	Repairs() []Repair
}

// ValidatorFor selects the validator matching the service output mode.
func ValidatorFor(def catalog.ServiceDefinition) Validator {
	if def.OutputMode == catalog.OutputJSON {
		return &JSONValidator{RequiredKeys: def.RequiredKeys}
	}
	return &PlainTextValidator{MinLength: defaultMinTextLength}
}

// JSONValidator requires a parsable JSON object with the configured
// top-level keys present and non-empty.
type JSONValidator struct {
	RequiredKeys []string
}

func (v *JSONValidator) Validate(raw string) (Content, error) {
	var fields map[string]any
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return Content{}, fmt.Errorf("not a JSON object: %w", err)
	}

	for _, key := range v.RequiredKeys {
		value, ok := fields[key]
		if !ok {
			return Content{}, fmt.Errorf("missing required key %q", key)
		}
		if s, isString := value.(string); isString && strings.TrimSpace(s) == "" {
			return Content{}, fmt.Errorf("required key %q is empty", key)
		}
	}
	for key, value := range fields {
		if s, isString := value.(string); isString && strings.TrimSpace(s) == "" {
			return Content{}, fmt.Errorf("key %q has an empty value", key)
		}
	}

	return Content{Mode: catalog.OutputJSON, Fields: fields}, nil
}

func (v *JSONValidator) Repairs() []Repair {
	return jsonRepairs
}

const defaultMinTextLength = 120

// PlainTextValidator applies quality thresholds to flowing text output.
type PlainTextValidator struct {
	MinLength int
}

func (v *PlainTextValidator) Validate(raw string) (Content, error) {
	text := strings.TrimSpace(raw)
	minLen := v.MinLength
	if minLen <= 0 {
		minLen = defaultMinTextLength
	}

	if len(text) < minLen {
		return Content{}, fmt.Errorf("text too short: %d < %d", len(text), minLen)
	}
	if strings.Contains(text, "```") {
		return Content{}, fmt.Errorf("text contains code fences")
	}
	if strings.HasPrefix(text, "{") || strings.HasPrefix(text, "[") {
		return Content{}, fmt.Errorf("text looks like JSON")
	}

	return Content{Mode: catalog.OutputText, Text: text}, nil
}

func (v *PlainTextValidator) Repairs() []Repair {
	return textRepairs
}
