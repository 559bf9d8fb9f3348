// internal/models/health.go
package models

const (
	HealthHealthy  = "healthy"
	HealthDegraded = "degraded"
	HealthCritical = "critical"

	ServiceUp   = "up"
	ServiceDown = "down"
)

type HealthCheck struct {
	Status    string         `json:"status"`
	Timestamp string         `json:"timestamp"`
	Services  HealthServices `json:"services"`
	Usage     *UsageStats    `json:"usage,omitempty"`
}

type HealthServices struct {
	Maps     *ServiceStatus `json:"maps,omitempty"`
	Gemini   *ServiceStatus `json:"gemini,omitempty"`
	Database *ServiceStatus `json:"database,omitempty"`
	Cache    *ServiceStatus `json:"cache,omitempty"`
	Search   *ServiceStatus `json:"search,omitempty"`
}

type ServiceStatus struct {
	Status       string `json:"status"`
	Error        string `json:"error,omitempty"`
	ResponseTime int64  `json:"responseTime,omitempty"`
}

// UsageStats holds today's counters per upstream service.
type UsageStats struct {
	PlacesSearchToday  int64 `json:"placesSearchToday"`
	PlaceDetailsToday  int64 `json:"placeDetailsToday"`
	GeminiCallsToday   int64 `json:"geminiCallsToday"`
	SearchQueriesToday int64 `json:"searchQueriesToday"`
}
