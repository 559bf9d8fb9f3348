// internal/common/validation/schema.go
package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Schema is a compiled JSON schema.
type Schema struct {
	name   string
	schema *gojsonschema.Schema
}

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Error joins all field errors into one line.
func (r *ValidationResult) Error() string {
	parts := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		parts[i] = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return strings.Join(parts, "; ")
}

// Compile parses a JSON schema document.
func Compile(name, schemaJSON string) (*Schema, error) {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return &Schema{name: name, schema: s}, nil
}

// MustCompile is like Compile but panics on an invalid schema. Use it for package-level schemas.
func MustCompile(name, schemaJSON string) *Schema {
	s, err := Compile(name, schemaJSON)
	if err != nil {
		panic(err)
	}
	return s
}

// ValidateJSON validates a raw JSON document. Malformed JSON is returned as an error,
// schema violations as an invalid result.
func (s *Schema) ValidateJSON(doc []byte) (*ValidationResult, error) {
	return s.validate(gojsonschema.NewBytesLoader(doc))
}

// Validate validates a Go value (struct, map or slice).
func (s *Schema) Validate(v interface{}) (*ValidationResult, error) {
	return s.validate(gojsonschema.NewGoLoader(v))
}

func (s *Schema) validate(loader gojsonschema.JSONLoader) (*ValidationResult, error) {
	result, err := s.schema.Validate(loader)
	if err != nil {
		return nil, fmt.Errorf("validate %s: %w", s.name, err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   strings.TrimPrefix(desc.Field(), "(root)."),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	return out, nil
}

// LeadAnalysisSchema describes the JSON object the LLM must return.
var LeadAnalysisSchema = MustCompile("leadAnalysis", `{
  "type": "object",
  "required": ["digitalPresenceSummary", "opportunityScore", "keyGaps", "aiAuditPitch"],
  "properties": {
    "digitalPresenceSummary": {"type": "string", "minLength": 1},
    "opportunityScore": {"type": "string", "enum": ["HIGH", "MEDIUM", "LOW"]},
    "keyGaps": {"type": "array", "items": {"type": "string"}},
    "aiAuditPitch": {"type": "string", "minLength": 1},
    "recommendedTools": {"type": "array", "items": {"type": "string"}}
  }
}`)

// SearchParamsSchema describes the variables of a search-leads job.
var SearchParamsSchema = MustCompile("searchParams", `{
  "type": "object",
  "required": ["industry", "city"],
  "properties": {
    "industry": {"type": "string", "minLength": 2, "maxLength": 100},
    "city": {"type": "string", "minLength": 2, "maxLength": 100},
    "filters": {
      "type": ["object", "null"],
      "properties": {
        "minRating": {"type": "number", "minimum": 1, "maximum": 5},
        "maxRating": {"type": "number", "minimum": 1, "maximum": 5},
        "maxReviews": {"type": "integer", "minimum": 0},
        "requireMissingChatbot": {"type": "boolean"},
        "requireManualBooking": {"type": "boolean"},
        "sentimentThreshold": {"type": "string", "enum": ["POSITIVE", "MIXED", "NEGATIVE", "ANY"]},
        "radiusMiles": {"type": "number", "minimum": 1, "maximum": 50}
      }
    }
  }
}`)
