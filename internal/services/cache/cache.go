// internal/services/cache/cache.go
package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"leadgenius/internal/common/logger"
	"leadgenius/internal/common/metrics"

	"github.com/redis/go-redis/v9"
)

// Service is a JSON cache-aside layer over Redis. Only Incr reports errors;
// every other failure is logged and treated as a miss or a no-op.
type Service struct {
	client *redis.Client
	logger logger.Logger
}

// New wraps client. A nil client disables caching.
func New(client *redis.Client, log logger.Logger) *Service {
	return &Service{client: client, logger: log.With(map[string]interface{}{"service": "cache"})}
}

// Get decodes the value stored under key into dest and reports whether it was found.
func (s *Service) Get(ctx context.Context, key string, dest interface{}) bool {
	if s.client == nil {
		return false
	}

	raw, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		metrics.CacheLookups.WithLabelValues(namespace(key), "miss").Inc()
		return false
	}
	if err != nil {
		metrics.CacheLookups.WithLabelValues(namespace(key), "error").Inc()
		s.logger.Error("cache get failed", map[string]interface{}{"key": key, "error": err.Error()})
		return false
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		metrics.CacheLookups.WithLabelValues(namespace(key), "error").Inc()
		s.logger.Error("cache decode failed", map[string]interface{}{"key": key, "error": err.Error()})
		return false
	}

	metrics.CacheLookups.WithLabelValues(namespace(key), "hit").Inc()
	return true
}

// Set stores value as JSON. A zero ttl keeps the key forever.
func (s *Service) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if s.client == nil {
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		s.logger.Error("cache encode failed", map[string]interface{}{"key": key, "error": err.Error()})
		return
	}

	if err := s.client.Set(ctx, key, data, ttl).Err(); err != nil {
		s.logger.Error("cache set failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
}

func (s *Service) Del(ctx context.Context, key string) {
	if s.client == nil {
		return
	}
	if err := s.client.Del(ctx, key).Err(); err != nil {
		s.logger.Error("cache delete failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
}

func (s *Service) Expire(ctx context.Context, key string, ttl time.Duration) {
	if s.client == nil {
		return
	}
	if err := s.client.Expire(ctx, key, ttl).Err(); err != nil {
		s.logger.Error("cache expire failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
}

// Incr increments a counter and returns its new value.
func (s *Service) Incr(ctx context.Context, key string) (int64, error) {
	if s.client == nil {
		return 0, redis.ErrClosed
	}
	return s.client.Incr(ctx, key).Result()
}

// GetInt reads a counter. A missing key reads as 0.
func (s *Service) GetInt(ctx context.Context, key string) (int64, error) {
	if s.client == nil {
		return 0, redis.ErrClosed
	}
	n, err := s.client.Get(ctx, key).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return n, err
}

func (s *Service) Ping(ctx context.Context) bool {
	if s.client == nil {
		return false
	}
	return s.client.Ping(ctx).Err() == nil
}

// namespace is the key prefix up to the first colon, used as a metric label.
func namespace(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return key
}
