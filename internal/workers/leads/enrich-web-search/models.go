// internal/workers/leads/enrich-web-search/models.go
package enrichwebsearch

import "leadgenius/internal/models"

type Input struct {
	BusinessName string `json:"businessName"`
	Address      string `json:"address"`
}

type Output struct {
	SearchResults []models.SearchResult `json:"searchResults"`
}
