// internal/services/usage/usage.go
package usage

import (
	"context"
	"fmt"
	"time"

	"leadgenius/internal/common/errors"
	"leadgenius/internal/common/logger"
	"leadgenius/internal/common/metrics"
	"leadgenius/internal/models"
)

// Tracked services.
const (
	PlacesSearch = "placesSearch"
	PlaceDetails = "placeDetails"
	Gemini       = "gemini"
	Search       = "search"
)

const counterTTL = 24 * time.Hour

// Counter is the subset of the cache the tracker needs.
type Counter interface {
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration)
	GetInt(ctx context.Context, key string) (int64, error)
}

// Limits are daily call ceilings per service.
type Limits struct {
	PlacesSearch int
	PlaceDetails int
	Gemini       int
	Search       int
	// Enforce turns an exceeded limit into a rate limit error.
	Enforce bool
}

func (l Limits) of(service string) int {
	switch service {
	case PlacesSearch:
		return l.PlacesSearch
	case PlaceDetails:
		return l.PlaceDetails
	case Gemini:
		return l.Gemini
	case Search:
		return l.Search
	}
	return 0
}

type Tracker struct {
	counter Counter
	limits  Limits
	logger  logger.Logger
	now     func() time.Time
}

func New(counter Counter, limits Limits, log logger.Logger) *Tracker {
	return &Tracker{
		counter: counter,
		limits:  limits,
		logger:  log.With(map[string]interface{}{"service": "usage"}),
		now:     time.Now,
	}
}

// Key returns the counter key for service on the UTC day of t.
func Key(service string, t time.Time) string {
	return fmt.Sprintf("usage:%s:%s", service, t.UTC().Format("2006-01-02"))
}

// Track counts one call. It only returns an error when limits are enforced
// and the call goes over the daily ceiling.
func (t *Tracker) Track(ctx context.Context, service string) error {
	key := Key(service, t.now())

	count, err := t.counter.Incr(ctx, key)
	if err != nil {
		t.logger.Error("failed to track usage", map[string]interface{}{"usageService": service, "error": err.Error()})
		return nil
	}
	t.counter.Expire(ctx, key, counterTTL)

	limit := t.limits.of(service)
	if limit <= 0 || count <= int64(limit) {
		return nil
	}

	metrics.UsageLimitExceeded.WithLabelValues(service).Inc()
	t.logger.Warn("daily usage limit exceeded", map[string]interface{}{
		"usageService": service,
		"count":        count,
		"limit":        limit,
	})

	if t.limits.Enforce {
		return errors.NewRateLimitError(fmt.Sprintf("Daily %s limit reached", service))
	}
	return nil
}

// Today reads the four counters for the current UTC day.
func (t *Tracker) Today(ctx context.Context) models.UsageStats {
	now := t.now()
	read := func(service string) int64 {
		n, err := t.counter.GetInt(ctx, Key(service, now))
		if err != nil {
			t.logger.Error("failed to read usage", map[string]interface{}{"usageService": service, "error": err.Error()})
			return 0
		}
		return n
	}

	return models.UsageStats{
		PlacesSearchToday:  read(PlacesSearch),
		PlaceDetailsToday:  read(PlaceDetails),
		GeminiCallsToday:   read(Gemini),
		SearchQueriesToday: read(Search),
	}
}
