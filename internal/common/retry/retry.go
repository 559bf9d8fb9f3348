// internal/common/retry/retry.go
package retry

import (
	"context"
	"errors"
	"time"
)

// Logger is the subset of the common logger used to report retries.
type Logger interface {
	Warn(msg string, fields map[string]interface{})
}

// Config configures retry behavior.
type Config struct {
	// MaxAttempts counts the initial call.
	MaxAttempts int
	Delay       time.Duration
	// Backoff doubles the delay after every failed attempt.
	Backoff  bool
	MaxDelay time.Duration
	Logger   Logger
	// Operation names the call in retry logs.
	Operation string
}

type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying. Do returns the wrapped error unchanged.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Do calls fn until it succeeds, returns a Permanent error, runs out of attempts,
// or ctx is cancelled. The last error from fn is returned as is.
func Do(ctx context.Context, cfg Config, fn func(ctx context.Context) error) error {
	_, err := DoValue(ctx, cfg, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoValue is Do for functions that return a value.
func DoValue[T any](ctx context.Context, cfg Config, fn func(ctx context.Context) (T, error)) (T, error) {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.Delay < 0 {
		cfg.Delay = 0
	}

	var zero T
	var lastErr error
	delay := cfg.Delay

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		value, err := fn(ctx)
		if err == nil {
			return value, nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return zero, perm.err
		}
		lastErr = err

		if attempt == cfg.MaxAttempts {
			break
		}

		if cfg.Logger != nil {
			cfg.Logger.Warn("retrying after failure", map[string]interface{}{
				"operation":   cfg.Operation,
				"attempt":     attempt,
				"maxAttempts": cfg.MaxAttempts,
				"nextRetryIn": delay.String(),
				"error":       err.Error(),
			})
		}

		select {
		case <-ctx.Done():
			return zero, lastErr
		case <-time.After(delay):
		}

		if cfg.Backoff {
			delay *= 2
			if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
				delay = cfg.MaxDelay
			}
		}
	}

	return zero, lastErr
}
