// internal/api/health.go
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"leadgenius/internal/common/logger"
	"leadgenius/internal/models"
)

const healthTimeout = 10 * time.Second

// Checker reports whether an upstream API answers.
type Checker interface {
	HealthCheck(ctx context.Context) bool
}

// CachePinger reports whether Redis answers.
type CachePinger interface {
	Ping(ctx context.Context) bool
}

// DatabasePinger is satisfied by the Postgres client.
type DatabasePinger interface {
	Ping(ctx context.Context) error
}

type UsageReporter interface {
	Today(ctx context.Context) models.UsageStats
}

// HealthHandler serves GET /api/health. Maps and Gemini decide the overall
// status; search, cache and database are informational. Database is omitted
// when nil.
type HealthHandler struct {
	Maps     Checker
	Gemini   Checker
	Search   Checker
	Cache    CachePinger
	Database DatabasePinger
	Usage    UsageReporter
	Logger   logger.Logger
	now      func() time.Time
}

// Check builds the health report.
func (h *HealthHandler) Check(ctx context.Context) models.HealthCheck {
	now := time.Now
	if h.now != nil {
		now = h.now
	}

	health := models.HealthCheck{
		Status:    models.HealthHealthy,
		Timestamp: now().UTC().Format(time.RFC3339),
	}

	health.Services.Maps = timedCheck(ctx, h.Maps, "Maps API not responding. Check API key and billing.")
	if health.Services.Maps.Status != models.ServiceUp {
		health.Status = models.HealthDegraded
	}

	health.Services.Gemini = timedCheck(ctx, h.Gemini, "Gemini API unavailable")
	if health.Services.Gemini.Status != models.ServiceUp {
		health.Status = models.HealthDegraded
	}

	health.Services.Search = status(h.Search != nil && h.Search.HealthCheck(ctx), "Search API unavailable")
	health.Services.Cache = status(h.Cache != nil && h.Cache.Ping(ctx), "Redis unavailable - caching disabled")

	if h.Database != nil {
		err := h.Database.Ping(ctx)
		if err != nil && h.Logger != nil {
			h.Logger.Warn("database health check failed", map[string]interface{}{"error": err.Error()})
		}
		health.Services.Database = status(err == nil, "Database unavailable")
	}

	if h.Usage != nil {
		usage := h.Usage.Today(ctx)
		health.Usage = &usage
	}

	return health
}

// Handle writes the report with 200 when healthy and 503 otherwise.
func (h *HealthHandler) Handle(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	health := h.Check(ctx)
	code := http.StatusOK
	if health.Status != models.HealthHealthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, health)
}

func timedCheck(ctx context.Context, checker Checker, errMsg string) *models.ServiceStatus {
	if checker == nil {
		return status(false, errMsg)
	}
	start := time.Now()
	ok := checker.HealthCheck(ctx)
	s := status(ok, errMsg)
	s.ResponseTime = time.Since(start).Milliseconds()
	return s
}

func status(up bool, errMsg string) *models.ServiceStatus {
	if up {
		return &models.ServiceStatus{Status: models.ServiceUp}
	}
	return &models.ServiceStatus{Status: models.ServiceDown, Error: errMsg}
}
