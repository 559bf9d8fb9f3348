package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

// ==========================
// Load Tests
// ==========================

func TestLoadFromFile_Defaults(t *testing.T) {
	path := writeConfig(t, `
app:
  name: leadgenius
database:
  redis:
    url: redis://localhost:6379
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 3001, cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, int64(10<<20), cfg.Server.BodyLimitBytes)
	assert.Equal(t, "gemini-2.0-flash-exp", cfg.APIs.Gemini.Model)
	assert.Equal(t, 3600, cfg.Cache.LeadSearchTTL)
	assert.Equal(t, 86400, cfg.Cache.LeadAnalysisTTL)
	assert.Equal(t, 7200, cfg.Cache.SearchResultsTTL)
	assert.Equal(t, 500, cfg.RateLimits.PlacesSearch)
	assert.Equal(t, 1000, cfg.RateLimits.PlaceDetails)
	assert.Equal(t, 2000, cfg.RateLimits.Gemini)
	assert.Equal(t, 200, cfg.RateLimits.Search)
	assert.False(t, cfg.RateLimits.Enforce)
	assert.Equal(t, int64(5<<20), cfg.Scraper.MaxBodyBytes)
	assert.Equal(t, "leads-analyzed", cfg.Database.Elasticsearch.Index)
}

func TestLoadFromFile_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "4000")
	t.Setenv("ALLOWED_ORIGINS", "https://app.example.com, http://localhost:5173")
	t.Setenv("GOOGLE_MAPS_API_KEY", "maps-key")
	t.Setenv("GEMINI_MODEL", "gemini-1.5-pro")
	t.Setenv("DAILY_GEMINI_LIMIT", "50")
	t.Setenv("REDIS_URL", "redis://cache:6379/1")

	path := writeConfig(t, `
apis:
  gemini:
    model: ${GEMINI_MODEL}
database:
  redis:
    url: ${REDIS_URL}
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 4000, cfg.Server.Port)
	assert.Equal(t, []string{"https://app.example.com", "http://localhost:5173"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "maps-key", cfg.APIs.PlacesKey())
	assert.Equal(t, "gemini-1.5-pro", cfg.APIs.Gemini.Model)
	assert.Equal(t, 50, cfg.RateLimits.Gemini)
	assert.Equal(t, "redis://cache:6379/1", cfg.Database.Redis.URL)
}

func TestLoadFromFile_ProductionRequiresKeys(t *testing.T) {
	t.Setenv("GOOGLE_MAPS_API_KEY", "")
	t.Setenv("GOOGLE_PLACES_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")

	path := writeConfig(t, `
app:
  environment: production
`)

	_, err := LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GOOGLE_MAPS_API_KEY")
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
}

func TestLoadFromFile_AuthRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	path := writeConfig(t, `
auth:
  enabled: true
`)

	_, err := LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")

	t.Setenv("JWT_SECRET", "s3cret")
	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
}

func TestLoadFromFile_ShippedConfig(t *testing.T) {
	t.Setenv("APP_ENVIRONMENT", "development")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("REDIS_URL", "redis://localhost:6379")

	cfg, err := LoadFromFile(filepath.Join("..", "..", "..", "configs", "config.yaml"))
	require.NoError(t, err)

	assert.True(t, cfg.Auth.Enabled)
	assert.Equal(t, "dev_user", cfg.Auth.DevUserID)
	assert.Equal(t, "HIGH", cfg.Integrations.AWS.SNS.MinScore)
}

func TestLoadFromFile_NormalizesMinScore(t *testing.T) {
	path := writeConfig(t, `
database:
  redis:
    url: redis://localhost:6379
integrations:
  aws:
    sns:
      min_score: medium
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "MEDIUM", cfg.Integrations.AWS.SNS.MinScore)
}

func TestLoadFromFile_CamundaRequiresBroker(t *testing.T) {
	t.Setenv("ZEEBE_ADDRESS", "")

	path := writeConfig(t, `
camunda:
  enabled: true
`)

	_, err := LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker_address")
}

func TestLoadFromFile_InvalidOrigin(t *testing.T) {
	path := writeConfig(t, `
server:
  allowed_origins: ["not a url"]
`)

	_, err := LoadFromFile(path)
	require.Error(t, err)
}

// ==========================
// Helper Tests
// ==========================

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
}

func TestGetWorkerConfig_Fallback(t *testing.T) {
	cfg := &Config{Workers: map[string]WorkerConfig{
		"analyze-lead": {Enabled: false, MaxJobsActive: 2, Timeout: 1000, MaxRetries: 1},
	}}

	assert.Equal(t, 2, GetWorkerConfig(cfg, "analyze-lead").MaxJobsActive)
	assert.Equal(t, 5, GetWorkerConfig(cfg, "search-leads").MaxJobsActive)
	assert.False(t, IsWorkerEnabled(cfg, "analyze-lead"))
	assert.True(t, IsWorkerEnabled(cfg, "search-leads"))
}

func TestPostgresConfig_GetDSN(t *testing.T) {
	assert.Equal(t, "postgres://u:p@db/leads", PostgresConfig{URL: "postgres://u:p@db/leads"}.GetDSN())
	assert.Equal(t,
		"host=db port=5432 user=u password=p dbname=leads sslmode=disable",
		PostgresConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "leads", SSLMode: "disable"}.GetDSN())
}
