package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetch_SetsUserAgentAndCapsBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "LeadGeniusTest/1.0", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(strings.Repeat("a", 100)))
	}))
	defer server.Close()

	client := NewClient(Options{Timeout: time.Second, UserAgent: "LeadGeniusTest/1.0", MaxBodyBytes: 10})
	resp, err := client.Fetch(context.Background(), server.URL)
	require.NoError(t, err)

	assert.True(t, resp.IsSuccess())
	assert.Equal(t, "text/html; charset=utf-8", resp.ContentType)
	assert.Len(t, resp.Body, 10)
}

func TestFetch_FollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("moved"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(Options{Timeout: time.Second})
	resp, err := client.Fetch(context.Background(), server.URL+"/old")
	require.NoError(t, err)
	assert.Equal(t, "moved", string(resp.Body))
	assert.Equal(t, server.URL+"/new", resp.FinalURL)
}

func TestDo_RateLimiterHonoursContext(t *testing.T) {
	client := NewClient(Options{Timeout: time.Second, RequestsPerSecond: 0.001, Burst: 1})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	_, err := client.Fetch(context.Background(), server.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = client.Fetch(ctx, server.URL)
	assert.Error(t, err)
}
