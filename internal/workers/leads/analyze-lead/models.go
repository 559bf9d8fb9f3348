// internal/workers/leads/analyze-lead/models.go
package analyzelead

import "leadgenius/internal/models"

type Input struct {
	PlaceID string `json:"placeId"`
}

type Output struct {
	Analysis         models.LeadAnalysis     `json:"analysis"`
	TechnicalDetails models.TechnicalDetails `json:"technicalDetails"`
	Cached           bool                    `json:"cached"`
}
