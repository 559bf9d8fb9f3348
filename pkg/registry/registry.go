// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
)

const Version = "1.0.0"

// LoadRegistry reads a registry document from path.
func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}
	return &reg, nil
}

// Default returns the built-in catalog of lead and outreach tasks.
func Default() *ActivityRegistry {
	return &ActivityRegistry{
		Version:    Version,
		Activities: activities(),
	}
}

// Find returns the activity registered for taskType.
func (r *ActivityRegistry) Find(taskType string) (Activity, bool) {
	for _, a := range r.Activities {
		if a.TaskType == taskType {
			return a, true
		}
	}
	return Activity{}, false
}

// TaskTypes lists the registered task types in catalog order.
func (r *ActivityRegistry) TaskTypes() []string {
	out := make([]string, len(r.Activities))
	for i, a := range r.Activities {
		out[i] = a.TaskType
	}
	return out
}

func activities() []Activity {
	return []Activity{
		{
			ID:          "search-leads",
			DisplayName: "Search Leads",
			Description: "Text search for businesses of an industry in a city",
			Category:    "leads",
			TaskType:    "search-leads",
			Inputs:      map[string]string{"industry": "string", "city": "string", "filters": "object"},
			Outputs:     map[string]string{"leads": "array", "total": "number", "cached": "boolean"},
			ErrorCodes:  []string{"INVALID_SEARCH_PARAMS", "PLACES_API_FAILED", "RATE_LIMIT_EXCEEDED"},
			Timeout:     "30s",
		},
		{
			ID:          "analyze-lead",
			DisplayName: "Analyze Lead",
			Description: "Full website and review analysis of one place",
			Category:    "leads",
			TaskType:    "analyze-lead",
			Inputs:      map[string]string{"placeId": "string"},
			Outputs:     map[string]string{"analysis": "object", "technicalDetails": "object", "cached": "boolean"},
			ErrorCodes:  []string{"INVALID_INPUT", "LEAD_NOT_FOUND", "PLACES_API_FAILED", "LLM_TIMEOUT", "LLM_ANALYSIS_FAILED", "RATE_LIMIT_EXCEEDED"},
			Timeout:     "90s",
		},
		{
			ID:          "enrich-web-search",
			DisplayName: "Enrich Web Search",
			Description: "Third-party review coverage for a business",
			Category:    "leads",
			TaskType:    "enrich-web-search",
			Inputs:      map[string]string{"businessName": "string", "address": "string"},
			Outputs:     map[string]string{"searchResults": "array"},
			ErrorCodes:  []string{},
			Timeout:     "30s",
		},
		{
			ID:          "score-opportunity",
			DisplayName: "Score Opportunity",
			Description: "LLM assessment of a business context",
			Category:    "leads",
			TaskType:    "score-opportunity",
			Inputs:      map[string]string{"name": "string", "industry": "string", "rating": "number"},
			Outputs:     map[string]string{"analysis": "object"},
			ErrorCodes:  []string{"INVALID_INPUT", "LLM_TIMEOUT", "LLM_ANALYSIS_FAILED", "RATE_LIMIT_EXCEEDED"},
			Timeout:     "60s",
		},
		{
			ID:          "find-email",
			DisplayName: "Find Email",
			Description: "Contact address discovery on a company website",
			Category:    "outreach",
			TaskType:    "find-email",
			Inputs:      map[string]string{"domain": "string", "companyName": "string"},
			Outputs:     map[string]string{"found": "boolean", "email": "string", "source": "string", "confidence": "number"},
			ErrorCodes:  []string{"INVALID_INPUT"},
			Timeout:     "30s",
		},
		{
			ID:          "notify-opportunity",
			DisplayName: "Notify Opportunity",
			Description: "Publishes an analyzed lead event to SNS",
			Category:    "outreach",
			TaskType:    "notify-opportunity",
			Inputs:      map[string]string{"placeId": "string", "name": "string", "opportunityScore": "string", "aiAuditPitch": "string"},
			Outputs:     map[string]string{"published": "boolean", "messageId": "string"},
			ErrorCodes:  []string{"INVALID_INPUT", "NOTIFICATION_SEND_FAILED"},
			Timeout:     "15s",
		},
	}
}
