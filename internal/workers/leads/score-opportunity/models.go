// internal/workers/leads/score-opportunity/models.go
package scoreopportunity

import "leadgenius/internal/models"

// Input carries the business context assembled by earlier tasks.
type Input struct {
	models.BusinessContext
}

type Output struct {
	Analysis models.LeadAnalysis `json:"analysis"`
}
