// internal/app/app.go
package app

import (
	"context"
	"fmt"
	"time"

	commonaws "leadgenius/internal/common/aws"
	"leadgenius/internal/common/config"
	"leadgenius/internal/common/database"
	"leadgenius/internal/common/logger"
	"leadgenius/internal/common/observability"
	"leadgenius/internal/common/retry"
	"leadgenius/internal/leads"
	"leadgenius/internal/services/cache"
	"leadgenius/internal/services/emailfinder"
	"leadgenius/internal/services/gemini"
	"leadgenius/internal/services/leadindex"
	"leadgenius/internal/services/notifier"
	"leadgenius/internal/services/organization"
	"leadgenius/internal/services/places"
	"leadgenius/internal/services/scraper"
	"leadgenius/internal/services/search"
	"leadgenius/internal/services/usage"

	"go.uber.org/zap"
)

// Container holds every long-lived service shared by the API server and the
// worker manager. Archive, Postgres and Organizations are nil when their
// backing store is not configured.
type Container struct {
	Config        *config.Config
	Redis         *database.RedisClient
	Postgres      *database.PostgresClient
	Cache         *cache.Service
	Usage         *usage.Tracker
	Places        *places.Service
	Scraper       *scraper.Service
	Search        *search.Service
	Gemini        *gemini.Service
	Archive       *leadindex.Store
	Organizations *organization.Store
	Notifier      *notifier.Notifier
	Emails        *emailfinder.Finder
	Leads         *leads.Service
	Observability *observability.Observability
}

// New connects to the stores and builds the services. Only a broken
// Places or Gemini client setup is fatal; optional stores that cannot be
// reached are logged and left out.
func New(ctx context.Context, cfg *config.Config, serviceName string, zapLog *zap.Logger) (*Container, error) {
	log := logger.NewZapAdapter(zapLog)
	c := &Container{Config: cfg}

	// --- Redis ---
	redisClient, err := database.NewRedis(cfg.Database.Redis)
	if err != nil {
		return nil, err
	}
	if err := connect(ctx, log, "Redis connection", 5, redisClient.Ping); err != nil {
		zapLog.Warn("redis unavailable, cache and usage counters degraded", zap.Error(err))
	} else {
		zapLog.Info("Redis connected successfully")
	}
	c.Redis = redisClient
	c.Cache = cache.New(redisClient.Client, log)
	c.Usage = usage.New(c.Cache, usage.Limits{
		PlacesSearch: cfg.RateLimits.PlacesSearch,
		PlaceDetails: cfg.RateLimits.PlaceDetails,
		Gemini:       cfg.RateLimits.Gemini,
		Search:       cfg.RateLimits.Search,
		Enforce:      cfg.RateLimits.Enforce,
	}, log)

	// --- External APIs ---
	c.Places, err = places.New(places.Config{
		APIKey:  cfg.APIs.PlacesKey(),
		BaseURL: cfg.APIs.Places.BaseURL,
		Timeout: config.GetDuration(cfg.APIs.Places.Timeout),
	}, log)
	if err != nil {
		return nil, fmt.Errorf("places client: %w", err)
	}

	c.Scraper = scraper.New(scraper.Config{
		UserAgent:         cfg.Scraper.UserAgent,
		Timeout:           config.GetDuration(cfg.Scraper.Timeout),
		MaxRetries:        cfg.Scraper.MaxRetries,
		RetryDelay:        config.GetDuration(cfg.Scraper.RetryDelay),
		Concurrency:       cfg.Scraper.Concurrency,
		RequestsPerSecond: cfg.Scraper.RequestsPerSecond,
		MaxBodyBytes:      cfg.Scraper.MaxBodyBytes,
	}, log)

	c.Search = search.New(search.Config{
		BaseURL:  cfg.APIs.WebSearch.BaseURL,
		APIKey:   cfg.APIs.WebSearch.APIKey,
		EngineID: cfg.APIs.WebSearch.EngineID,
		Timeout:  config.GetDuration(cfg.APIs.WebSearch.Timeout),
		CacheTTL: time.Duration(cfg.Cache.SearchResultsTTL) * time.Second,
	}, c.Cache, c.Usage, log)

	c.Gemini, err = gemini.New(ctx, gemini.Config{
		APIKey:      cfg.APIs.Gemini.APIKey,
		Model:       cfg.APIs.Gemini.Model,
		BaseURL:     cfg.APIs.Gemini.BaseURL,
		Temperature: float32(cfg.APIs.Gemini.Temperature),
		Timeout:     config.GetDuration(cfg.APIs.Gemini.Timeout),
	}, log)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}

	c.Emails = emailfinder.New(c.Scraper, log)

	// --- Elasticsearch archive ---
	if esCfg := cfg.Database.Elasticsearch; esCfg.GetURL() != "" {
		c.Archive = openArchive(ctx, esCfg, log, zapLog)
	} else {
		zapLog.Info("elasticsearch not configured, lead archive disabled")
	}

	// --- PostgreSQL organizations ---
	if cfg.Database.Postgres.Configured() {
		c.Postgres, c.Organizations = openOrganizations(ctx, cfg.Database.Postgres, log, zapLog)
	} else {
		zapLog.Info("postgres not configured, organization endpoints disabled")
	}

	// --- SNS notifier ---
	snsCfg := cfg.Integrations.AWS.SNS
	var publisher commonaws.SNSPublisher
	if snsCfg.Enabled && snsCfg.TopicARN != "" {
		client, err := commonaws.NewSNSClient(ctx, cfg.Integrations.AWS.Region)
		if err != nil {
			zapLog.Warn("sns client unavailable, lead events disabled", zap.Error(err))
		} else {
			publisher = client
		}
	}
	c.Notifier = notifier.New(publisher, notifier.Config{
		Enabled:  snsCfg.Enabled,
		TopicARN: snsCfg.TopicARN,
		MinScore: snsCfg.MinScore,
	}, log)

	c.Observability = observability.New(serviceName, zapLog)

	deps := leads.Dependencies{
		Places:   c.Places,
		Scraper:  c.Scraper,
		Search:   c.Search,
		Scorer:   c.Gemini,
		Cache:    c.Cache,
		Usage:    c.Usage,
		Events:   c.Notifier,
		Recorder: c.Observability,
	}
	if c.Archive != nil {
		deps.Archive = c.Archive
	}
	c.Leads = leads.NewService(deps, leads.TTLs{
		LeadSearch:   time.Duration(cfg.Cache.LeadSearchTTL) * time.Second,
		LeadAnalysis: time.Duration(cfg.Cache.LeadAnalysisTTL) * time.Second,
		PlaceDetails: time.Duration(cfg.Cache.PlaceDetailsTTL) * time.Second,
	}, log)

	return c, nil
}

func openArchive(ctx context.Context, esCfg config.ElasticsearchConfig, log logger.Logger, zapLog *zap.Logger) *leadindex.Store {
	es, err := database.NewElasticsearch(esCfg)
	if err != nil {
		zapLog.Warn("elasticsearch client failed, lead archive disabled", zap.Error(err))
		return nil
	}
	if err := connect(ctx, log, "Elasticsearch connection", 5, es.Ping); err != nil {
		zapLog.Warn("elasticsearch unreachable, lead archive disabled", zap.Error(err))
		return nil
	}
	if err := es.EnsureIndex(ctx, esCfg.Index, leadindex.Mapping); err != nil {
		zapLog.Warn("failed to ensure lead index", zap.String("index", esCfg.Index), zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully", zap.String("index", esCfg.Index))
	return leadindex.New(es.Client, esCfg.Index, log)
}

func openOrganizations(ctx context.Context, pgCfg config.PostgresConfig, log logger.Logger, zapLog *zap.Logger) (*database.PostgresClient, *organization.Store) {
	pg, err := database.NewPostgres(pgCfg)
	if err != nil {
		zapLog.Warn("postgres client failed, organization endpoints disabled", zap.Error(err))
		return nil, nil
	}
	if err := connect(ctx, log, "PostgreSQL connection", 10, pg.Ping); err != nil {
		zapLog.Warn("postgres unreachable, organization endpoints disabled", zap.Error(err))
		pg.Close()
		return nil, nil
	}

	store := organization.New(pg.DB, log)
	if err := store.Migrate(ctx); err != nil {
		zapLog.Warn("organization migration failed", zap.Error(err))
	}
	zapLog.Info("PostgreSQL connected successfully")
	return pg, store
}

// connect retries ping with exponential backoff starting at two seconds.
func connect(ctx context.Context, log logger.Logger, operation string, attempts int, ping func(context.Context) error) error {
	return retry.Do(ctx, retry.Config{
		MaxAttempts: attempts,
		Delay:       2 * time.Second,
		Backoff:     true,
		MaxDelay:    15 * time.Second,
		Logger:      log,
		Operation:   operation,
	}, ping)
}

// Close releases the store connections and flushes metrics.
func (c *Container) Close() {
	if c.Observability != nil {
		c.Observability.Shutdown()
	}
	if c.Postgres != nil {
		c.Postgres.Close()
	}
	if c.Redis != nil {
		c.Redis.Close()
	}
}
