// internal/workers/leads/search-leads/models.go
package searchleads

import "leadgenius/internal/models"

type Input struct {
	Industry string                `json:"industry"`
	City     string                `json:"city"`
	Filters  *models.SearchFilters `json:"filters,omitempty"`
}

type Output struct {
	Leads  []models.Lead `json:"leads"`
	Total  int           `json:"total"`
	Cached bool          `json:"cached"`
}
