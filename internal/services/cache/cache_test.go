package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadgenius/internal/common/logger"
)

type lead struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func newTestService(t *testing.T) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return New(client, logger.NewTestLogger(t)), mr
}

// ==========================
// Cache-Aside Tests
// ==========================

func TestSetAndGet(t *testing.T) {
	svc, mr := newTestService(t)
	ctx := context.Background()

	svc.Set(ctx, "leads:plumbers:austin:{}", []lead{{ID: "p1", Name: "Joe's"}}, time.Hour)

	var got []lead
	require.True(t, svc.Get(ctx, "leads:plumbers:austin:{}", &got))
	assert.Equal(t, []lead{{ID: "p1", Name: "Joe's"}}, got)
	assert.Equal(t, time.Hour, mr.TTL("leads:plumbers:austin:{}"))
}

func TestGet_Miss(t *testing.T) {
	svc, _ := newTestService(t)

	var got lead
	assert.False(t, svc.Get(context.Background(), "analysis:missing", &got))
}

func TestGet_CorruptValue(t *testing.T) {
	svc, mr := newTestService(t)
	require.NoError(t, mr.Set("analysis:p1", "{not json"))

	var got lead
	assert.False(t, svc.Get(context.Background(), "analysis:p1", &got))
}

func TestSet_ZeroTTLPersists(t *testing.T) {
	svc, mr := newTestService(t)

	svc.Set(context.Background(), "place:p1", lead{ID: "p1"}, 0)

	assert.True(t, mr.Exists("place:p1"))
	assert.Equal(t, time.Duration(0), mr.TTL("place:p1"))
}

func TestDelAndExpire(t *testing.T) {
	svc, mr := newTestService(t)
	ctx := context.Background()

	svc.Set(ctx, "a", 1, 0)
	svc.Expire(ctx, "a", time.Minute)
	assert.Equal(t, time.Minute, mr.TTL("a"))

	svc.Del(ctx, "a")
	assert.False(t, mr.Exists("a"))
}

func TestIncrAndGetInt(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	n, err := svc.Incr(ctx, "usage:gemini:2026-01-01")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = svc.GetInt(ctx, "usage:gemini:2026-01-01")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = svc.GetInt(ctx, "usage:search:2026-01-01")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestPing(t *testing.T) {
	svc, mr := newTestService(t)
	assert.True(t, svc.Ping(context.Background()))

	mr.Close()
	assert.False(t, svc.Ping(context.Background()))
}

// ==========================
// Error Path Tests
// ==========================

func TestRedisErrorsAreSwallowed(t *testing.T) {
	client, mock := redismock.NewClientMock()
	svc := New(client, logger.NewTestLogger(t))
	ctx := context.Background()

	mock.ExpectGet("analysis:p1").SetErr(errors.New("connection reset"))
	var got lead
	assert.False(t, svc.Get(ctx, "analysis:p1", &got))

	mock.ExpectSet("analysis:p1", []byte(`{"id":"p1","name":""}`), time.Minute).SetErr(errors.New("READONLY"))
	svc.Set(ctx, "analysis:p1", lead{ID: "p1"}, time.Minute)

	mock.ExpectIncr("usage:gemini:2026-01-01").SetErr(errors.New("connection reset"))
	_, err := svc.Incr(ctx, "usage:gemini:2026-01-01")
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNilClientDisablesCache(t *testing.T) {
	svc := New(nil, logger.NewNoOpLogger())
	ctx := context.Background()

	svc.Set(ctx, "k", 1, 0)
	var got int
	assert.False(t, svc.Get(ctx, "k", &got))
	assert.False(t, svc.Ping(ctx))
	_, err := svc.Incr(ctx, "k")
	assert.Error(t, err)
}

func TestNamespace(t *testing.T) {
	assert.Equal(t, "leads", namespace("leads:a:b"))
	assert.Equal(t, "plain", namespace("plain"))
}
