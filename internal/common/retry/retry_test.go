package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	warnings int
}

func (l *recordingLogger) Warn(msg string, fields map[string]interface{}) {
	l.warnings++
}

func TestDo_SucceedsAfterFailures(t *testing.T) {
	log := &recordingLogger{}
	calls := 0

	err := Do(context.Background(), Config{MaxAttempts: 3, Delay: time.Millisecond, Backoff: true, Logger: log}, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("503")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 2, log.warnings)
}

func TestDo_ReturnsLastError(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Config{MaxAttempts: 2, Delay: time.Millisecond}, func(ctx context.Context) error {
		calls++
		return errors.New("still down")
	})

	assert.EqualError(t, err, "still down")
	assert.Equal(t, 2, calls)
}

func TestDo_PermanentStopsImmediately(t *testing.T) {
	notFound := errors.New("NOT_FOUND")
	calls := 0
	err := Do(context.Background(), Config{MaxAttempts: 5, Delay: time.Millisecond}, func(ctx context.Context) error {
		calls++
		return Permanent(notFound)
	})

	assert.Same(t, notFound, err)
	assert.Equal(t, 1, calls)
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	err := Do(ctx, Config{MaxAttempts: 5, Delay: time.Hour}, func(ctx context.Context) error {
		calls++
		cancel()
		return errors.New("boom")
	})

	assert.EqualError(t, err, "boom")
	assert.Equal(t, 1, calls)
}

func TestDoValue_ReturnsValue(t *testing.T) {
	got, err := DoValue(context.Background(), Config{MaxAttempts: 1}, func(ctx context.Context) (string, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
}
