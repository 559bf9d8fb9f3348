// internal/models/lead.go
package models

import "time"

// Opportunity scores returned by the LLM.
const (
	OpportunityHigh   = "HIGH"
	OpportunityMedium = "MEDIUM"
	OpportunityLow    = "LOW"
)

// Lead is a business surfaced by a places search. Nullable fields encode as JSON null.
type Lead struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	Category         *string           `json:"category"`
	Address          string            `json:"address"`
	Rating           *float64          `json:"rating"`
	ReviewCount      *int              `json:"reviewCount"`
	Location         LatLng            `json:"location"`
	MapsURL          string            `json:"mapsUrl"`
	WebsiteURL       *string           `json:"websiteUrl"`
	Phone            *string           `json:"phone"`
	Analyzed         bool              `json:"analyzed"`
	Analysis         *LeadAnalysis     `json:"analysis,omitempty"`
	TechnicalDetails *TechnicalDetails `json:"technicalDetails,omitempty"`
}

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// GeoPoint is a location in the object form of an Elasticsearch geo_point.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// GeoPointOf converts a Places coordinate.
func GeoPointOf(l LatLng) GeoPoint {
	return GeoPoint{Lat: l.Lat, Lon: l.Lng}
}

// LeadAnalysis is the LLM's assessment of a lead.
type LeadAnalysis struct {
	DigitalPresenceSummary string   `json:"digitalPresenceSummary"`
	OpportunityScore       string   `json:"opportunityScore"`
	KeyGaps                []string `json:"keyGaps"`
	AIAuditPitch           string   `json:"aiAuditPitch"`
	RecommendedTools       []string `json:"recommendedTools"`
}

// TechnicalDetails collects the heuristic analyzer outputs.
type TechnicalDetails struct {
	Chatbot   ChatbotDetection  `json:"chatbot"`
	Booking   BookingDetection  `json:"booking"`
	Sentiment SentimentAnalysis `json:"sentiment"`
	SEO       *SEOAnalysis      `json:"seo,omitempty"`
}

// SearchParams is the body of a lead search.
type SearchParams struct {
	Industry string         `json:"industry" binding:"required,min=2,max=100"`
	City     string         `json:"city" binding:"required,min=2,max=100"`
	Filters  *SearchFilters `json:"filters,omitempty"`
}

type SearchFilters struct {
	MinRating             *float64 `json:"minRating,omitempty" binding:"omitempty,min=1,max=5"`
	MaxRating             *float64 `json:"maxRating,omitempty" binding:"omitempty,min=1,max=5"`
	MaxReviews            *int     `json:"maxReviews,omitempty" binding:"omitempty,min=0"`
	RequireMissingChatbot *bool    `json:"requireMissingChatbot,omitempty"`
	RequireManualBooking  *bool    `json:"requireManualBooking,omitempty"`
	SentimentThreshold    *string  `json:"sentimentThreshold,omitempty" binding:"omitempty,oneof=POSITIVE MIXED NEGATIVE ANY"`
	RadiusMiles           *float64 `json:"radiusMiles,omitempty" binding:"omitempty,min=1,max=50"`
}

// LeadsResponse is returned by a lead search.
type LeadsResponse struct {
	Leads  []Lead `json:"leads"`
	Total  int    `json:"total"`
	Cached bool   `json:"cached"`
}

// AnalysisResponse is returned by a deep analysis.
type AnalysisResponse struct {
	PlaceID          string           `json:"placeId"`
	Analysis         LeadAnalysis     `json:"analysis"`
	TechnicalDetails TechnicalDetails `json:"technicalDetails"`
	Cached           bool             `json:"cached"`
}

// AnalyzedLead is the document stored in the lead archive.
type AnalyzedLead struct {
	PlaceID          string           `json:"placeId"`
	Name             string           `json:"name"`
	Address          string           `json:"address"`
	Category         string           `json:"category,omitempty"`
	Rating           float64          `json:"rating"`
	ReviewCount      int              `json:"reviewCount"`
	Website          string           `json:"website,omitempty"`
	Phone            string           `json:"phone,omitempty"`
	Location         GeoPoint         `json:"location"`
	Summary          string           `json:"summary"`
	OpportunityScore string           `json:"opportunityScore"`
	KeyGaps          []string         `json:"keyGaps"`
	AIAuditPitch     string           `json:"aiAuditPitch"`
	RecommendedTools []string         `json:"recommendedTools"`
	TechnicalDetails TechnicalDetails `json:"technicalDetails"`
	AnalyzedAt       time.Time        `json:"analyzedAt"`
}

// LeadEvent is published when a lead has been analyzed.
type LeadEvent struct {
	Type             string    `json:"type"`
	PlaceID          string    `json:"placeId"`
	Name             string    `json:"name"`
	OpportunityScore string    `json:"opportunityScore"`
	AIAuditPitch     string    `json:"aiAuditPitch,omitempty"`
	OccurredAt       time.Time `json:"occurredAt"`
}
