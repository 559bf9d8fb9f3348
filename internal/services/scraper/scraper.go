// internal/services/scraper/scraper.go
package scraper

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	httpclient "leadgenius/internal/common/http"
	"leadgenius/internal/common/logger"
	"leadgenius/internal/common/metrics"
	"leadgenius/internal/common/retry"

	"golang.org/x/sync/errgroup"
)

const DefaultUserAgent = "Mozilla/5.0 (compatible; LeadGenius/1.0; +https://leadgenius.app)"

type Config struct {
	UserAgent         string
	Timeout           time.Duration
	MaxRetries        int
	RetryDelay        time.Duration
	Concurrency       int
	RequestsPerSecond float64
	MaxBodyBytes      int64
}

// Service fetches business websites. Failures never surface as errors: a page
// that cannot be fetched is simply absent.
type Service struct {
	client *httpclient.Client
	config Config
	logger logger.Logger
}

func New(cfg Config, log logger.Logger) *Service {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
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
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 5 << 20
	}

	return &Service{
		client: httpclient.NewClient(httpclient.Options{
			Timeout:           cfg.Timeout,
			UserAgent:         cfg.UserAgent,
			RequestsPerSecond: cfg.RequestsPerSecond,
			Burst:             cfg.Concurrency,
			MaxBodyBytes:      cfg.MaxBodyBytes,
		}),
		config: cfg,
		logger: log.With(map[string]interface{}{"service": "scraper"}),
	}
}

// NormalizeURL prefixes https:// when the URL has no scheme.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	return "https://" + raw
}

// FetchWebsite returns the page HTML, or false when the page is unreachable,
// non-2xx or not text/html.
func (s *Service) FetchWebsite(ctx context.Context, rawURL string) (string, bool) {
	url := NormalizeURL(rawURL)
	s.logger.Info("fetching website", map[string]interface{}{"url": url})

	resp, err := retry.DoValue(ctx, retry.Config{
		MaxAttempts: s.config.MaxRetries,
		Delay:       s.config.RetryDelay,
		Backoff:     true,
		Logger:      s.logger,
		Operation:   "fetchWebsite",
	}, func(ctx context.Context) (*httpclient.Response, error) {
		return s.client.Fetch(ctx, url)
	})
	metrics.ObserveExternalCall("scraper", err)
	if err != nil {
		s.logger.Error("website fetch error", map[string]interface{}{"url": url, "error": err.Error()})
		return "", false
	}

	if !resp.IsSuccess() {
		s.logger.Warn("website returned non-success status", map[string]interface{}{"url": url, "status": resp.StatusCode})
		return "", false
	}

	if !strings.Contains(strings.ToLower(resp.ContentType), "text/html") {
		s.logger.Warn("non-HTML content type", map[string]interface{}{"url": url, "contentType": resp.ContentType})
		return "", false
	}

	return string(resp.Body), true
}

// FetchMultiple fetches urls with at most Concurrency requests in flight.
// Pages that could not be fetched map to nil.
func (s *Service) FetchMultiple(ctx context.Context, urls []string) map[string]*string {
	results := make(map[string]*string, len(urls))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Concurrency)

	for _, u := range urls {
		u := u
		g.Go(func() error {
			html, ok := s.FetchWebsite(gctx, u)
			mu.Lock()
			defer mu.Unlock()
			if ok {
				results[u] = &html
			} else {
				results[u] = nil
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.logger.Error("fetch multiple aborted", map[string]interface{}{"error": fmt.Sprint(err)})
	}
	return results
}
