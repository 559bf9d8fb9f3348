// internal/workers/outreach/notify-opportunity/models.go
package notifyopportunity

type Input struct {
	PlaceID          string `json:"placeId"`
	Name             string `json:"name"`
	OpportunityScore string `json:"opportunityScore"`
	AIAuditPitch     string `json:"aiAuditPitch"`
}

type Output struct {
	Published bool   `json:"published"`
	MessageID string `json:"messageId,omitempty"`
}
