// internal/api/router.go
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"leadgenius/internal/common/logger"
	"leadgenius/internal/models"
	"leadgenius/internal/services/leadindex"
)

const defaultBodyLimit int64 = 10 << 20

// LeadService runs searches and analyses.
type LeadService interface {
	Search(ctx context.Context, params models.SearchParams) (*models.LeadsResponse, error)
	Analyze(ctx context.Context, placeID string) (*models.AnalysisResponse, error)
	Archive(ctx context.Context, text, opportunity string, limit int) (*leadindex.SearchResult, error)
}

type EmailFinder interface {
	FindEmail(ctx context.Context, domain, companyName string) (*models.EmailResult, error)
}

type OrganizationStore interface {
	GetForUser(ctx context.Context, userID string) (*models.Organization, error)
	UpdateBranding(ctx context.Context, userID string, update models.BrandingUpdate) (*models.Organization, error)
}

// Config controls the router middleware.
type Config struct {
	AllowedOrigins []string
	BodyLimitBytes int64
	Auth           AuthConfig
	SentryEnabled  bool
}

// Services are the handlers' collaborators. Organizations is nil when no
// database is configured.
type Services struct {
	Leads         LeadService
	Emails        EmailFinder
	Organizations OrganizationStore
	Health        *HealthHandler
}

// NewRouter wires middleware and routes.
func NewRouter(cfg Config, svc Services, log logger.Logger) *gin.Engine {
	if cfg.BodyLimitBytes <= 0 {
		cfg.BodyLimitBytes = defaultBodyLimit
	}

	r := gin.New()
	r.HandleMethodNotAllowed = false

	r.Use(
		RequestIDMiddleware(),
		RecoveryMiddleware(log, cfg.SentryEnabled),
		LoggerMiddleware(log),
		MetricsMiddleware(),
		CORSMiddleware(cfg.AllowedOrigins),
		BodyLimitMiddleware(cfg.BodyLimitBytes),
	)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if svc.Health != nil {
		r.GET("/api/health", svc.Health.Handle)
	}

	protected := r.Group("/api", AuthMiddleware(cfg.Auth))

	leads := &leadsHandler{service: svc.Leads, logger: log}
	protected.POST("/leads", leads.search)
	protected.POST("/leads/:id/analyze", leads.analyze)
	protected.GET("/leads/analyzed", leads.archive)

	outreach := &outreachHandler{finder: svc.Emails, logger: log}
	protected.POST("/outreach/find-email", outreach.findEmail)

	orgs := &organizationHandler{store: svc.Organizations, logger: log}
	protected.GET("/organization", orgs.get)
	protected.PATCH("/organization", orgs.update)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Not Found",
			"message": fmt.Sprintf("Cannot %s %s", c.Request.Method, c.Request.URL.Path),
		})
	})

	return r
}
