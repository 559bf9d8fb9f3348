package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadgenius/internal/common/logger"
	"leadgenius/internal/models"
)

type memoryCache struct {
	values map[string][]models.SearchResult
}

func (m *memoryCache) Get(_ context.Context, key string, dest interface{}) bool {
	v, ok := m.values[key]
	if ok {
		*(dest.(*[]models.SearchResult)) = v
	}
	return ok
}

func (m *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) {
	m.values[key] = value.([]models.SearchResult)
}

type countingUsage struct {
	calls map[string]int
}

func (c *countingUsage) Track(_ context.Context, service string) error {
	c.calls[service]++
	return nil
}

const itemsJSON = `{"items":[
	{"title":"Joe's Plumbing - Yelp","link":"https://yelp.com/joes","snippet":"Great service","displayLink":"yelp.com"},
	{"title":"Joe's Plumbing reviews","link":"https://bbb.org/joes","snippet":"A+ rating","displayLink":"bbb.org"}
]}`

func newTestService(t *testing.T, handler http.HandlerFunc) (*Service, *memoryCache, *countingUsage) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c := &memoryCache{values: map[string][]models.SearchResult{}}
	u := &countingUsage{calls: map[string]int{}}
	svc := New(Config{
		BaseURL:    server.URL,
		APIKey:     "key",
		EngineID:   "cx",
		RetryDelay: time.Millisecond,
		CacheTTL:   time.Hour,
	}, c, u, logger.NewTestLogger(t))
	return svc, c, u
}

// ==========================
// Search Tests
// ==========================

func TestSearch_Success(t *testing.T) {
	var gotQuery map[string]string
	svc, c, u := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotQuery = map[string]string{"key": q.Get("key"), "cx": q.Get("cx"), "q": q.Get("q"), "num": q.Get("num")}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(itemsJSON))
	})

	results := svc.SearchBusinessReviews(context.Background(), "Joe's Plumbing", "Austin, TX")

	require.Len(t, results, 2)
	assert.Equal(t, "yelp.com", results[0].DisplayLink)
	assert.Equal(t, map[string]string{"key": "key", "cx": "cx", "q": "Joe's Plumbing Austin, TX reviews", "num": "3"}, gotQuery)
	assert.Equal(t, 1, u.calls["search"])
	assert.Len(t, c.values, 1)
}

func TestSearch_CachedResultSkipsUpstream(t *testing.T) {
	var hits int32
	svc, _, u := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte(itemsJSON))
	})
	ctx := context.Background()

	svc.Search(ctx, "plumbers", 5)
	svc.Search(ctx, "plumbers", 5)

	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	assert.Equal(t, 1, u.calls["search"])
}

func TestSearch_NumCappedAtTen(t *testing.T) {
	var num string
	svc, _, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		num = r.URL.Query().Get("num")
		w.Write([]byte(`{}`))
	})

	results := svc.Search(context.Background(), "plumbers", 25)

	assert.Equal(t, "10", num)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestSearch_ErrorsReturnEmpty(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantCalls int32
	}{
		{"client error not retried", http.StatusForbidden, 1},
		{"server error retried", http.StatusServiceUnavailable, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits int32
			svc, _, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&hits, 1)
				w.WriteHeader(tt.status)
			})

			results := svc.Search(context.Background(), "plumbers", 3)

			assert.Empty(t, results)
			assert.Equal(t, tt.wantCalls, atomic.LoadInt32(&hits))
		})
	}
}

func TestSearch_NotConfigured(t *testing.T) {
	svc := New(Config{}, nil, nil, logger.NewNoOpLogger())

	assert.Equal(t, []models.SearchResult{}, svc.Search(context.Background(), "x", 1))
	assert.False(t, svc.HealthCheck(context.Background()))
}

func TestHealthCheck(t *testing.T) {
	healthy, _, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(itemsJSON))
	})
	assert.True(t, healthy.HealthCheck(context.Background()))

	broken, _, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	assert.False(t, broken.HealthCheck(context.Background()))
}
