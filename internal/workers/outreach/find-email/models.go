// internal/workers/outreach/find-email/models.go
package findemail

type Input struct {
	Domain      string `json:"domain"`
	CompanyName string `json:"companyName"`
}

type Output struct {
	Found      bool   `json:"found"`
	Email      string `json:"email,omitempty"`
	Source     string `json:"source,omitempty"`
	Confidence int    `json:"confidence"`
}
