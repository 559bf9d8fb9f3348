// internal/services/search/search.go
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"leadgenius/internal/common/errors"
	httpclient "leadgenius/internal/common/http"
	"leadgenius/internal/common/logger"
	"leadgenius/internal/common/metrics"
	"leadgenius/internal/common/retry"
	"leadgenius/internal/models"
)

const (
	DefaultBaseURL = "https://www.googleapis.com/customsearch/v1"
	serviceName    = "Google Search"
	usageService   = "search"
	maxResults     = 10
)

type Config struct {
	BaseURL    string
	APIKey     string
	EngineID   string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
	CacheTTL   time.Duration
}

// Cache stores search results between calls.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) bool
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration)
}

// UsageTracker counts outbound calls.
type UsageTracker interface {
	Track(ctx context.Context, service string) error
}

// Service queries Google Custom Search. Results are supplementary, so
// failures are logged and come back as an empty list.
type Service struct {
	client *httpclient.Client
	config Config
	cache  Cache
	usage  UsageTracker
	logger logger.Logger
}

func New(cfg Config, cache Cache, usage UsageTracker, log logger.Logger) *Service {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 2
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}

	return &Service{
		client: httpclient.NewClient(httpclient.Options{Timeout: cfg.Timeout}),
		config: cfg,
		cache:  cache,
		usage:  usage,
		logger: log.With(map[string]interface{}{"service": "search"}),
	}
}

// Configured reports whether both the API key and engine id are set.
func (s *Service) Configured() bool {
	return s.config.APIKey != "" && s.config.EngineID != ""
}

type searchResponse struct {
	Items []struct {
		Title       string `json:"title"`
		Link        string `json:"link"`
		Snippet     string `json:"snippet"`
		DisplayLink string `json:"displayLink"`
	} `json:"items"`
}

// Search returns up to numResults (max 10) web results for query.
func (s *Service) Search(ctx context.Context, query string, numResults int) []models.SearchResult {
	if !s.Configured() {
		s.logger.Warn("Google Search API not configured, skipping search", nil)
		return []models.SearchResult{}
	}
	if numResults > maxResults {
		numResults = maxResults
	}

	key := fmt.Sprintf("search:%s:%d", query, numResults)
	var cached []models.SearchResult
	if s.cache != nil && s.cache.Get(ctx, key, &cached) {
		return cached
	}

	if s.usage != nil {
		if err := s.usage.Track(ctx, usageService); err != nil {
			s.logger.Warn("search skipped", map[string]interface{}{"error": err.Error()})
			return []models.SearchResult{}
		}
	}

	s.logger.Info("searching google", map[string]interface{}{"query": query})
	results, err := s.query(ctx, query, numResults)
	if err != nil {
		s.logger.Error("google search error", map[string]interface{}{"query": query, "error": err.Error()})
		return []models.SearchResult{}
	}

	if s.cache != nil && len(results) > 0 {
		s.cache.Set(ctx, key, results, s.config.CacheTTL)
	}
	return results
}

// SearchBusinessReviews looks up review coverage for a business.
func (s *Service) SearchBusinessReviews(ctx context.Context, businessName, location string) []models.SearchResult {
	return s.Search(ctx, fmt.Sprintf("%s %s reviews", businessName, location), 3)
}

// HealthCheck issues a one-result query and reports whether it succeeded.
func (s *Service) HealthCheck(ctx context.Context) bool {
	if !s.Configured() {
		return false
	}
	if _, err := s.query(ctx, "test", 1); err != nil {
		s.logger.Error("search health check failed", map[string]interface{}{"error": err.Error()})
		return false
	}
	return true
}

func (s *Service) query(ctx context.Context, query string, num int) ([]models.SearchResult, error) {
	params := url.Values{}
	params.Set("key", s.config.APIKey)
	params.Set("cx", s.config.EngineID)
	params.Set("q", query)
	params.Set("num", strconv.Itoa(num))
	endpoint := s.config.BaseURL + "?" + params.Encode()

	body, err := retry.DoValue(ctx, retry.Config{
		MaxAttempts: s.config.MaxRetries,
		Delay:       s.config.RetryDelay,
		Backoff:     true,
		Logger:      s.logger,
		Operation:   "customSearch",
	}, func(ctx context.Context) ([]byte, error) {
		resp, err := s.client.Fetch(ctx, endpoint)
		if err != nil {
			return nil, err
		}
		if !resp.IsSuccess() {
			apiErr := errors.NewExternalAPIError(serviceName, fmt.Sprintf("Search failed: %d", resp.StatusCode))
			if resp.StatusCode < 500 {
				return nil, retry.Permanent(apiErr)
			}
			return nil, apiErr
		}
		return resp.Body, nil
	})
	metrics.ObserveExternalCall("search", err)
	if err != nil {
		return nil, err
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, errors.NewExternalAPIError(serviceName, "Invalid search response")
	}

	results := make([]models.SearchResult, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		results = append(results, models.SearchResult{
			Title:       item.Title,
			Link:        item.Link,
			Snippet:     item.Snippet,
			DisplayLink: item.DisplayLink,
		})
	}
	return results, nil
}
