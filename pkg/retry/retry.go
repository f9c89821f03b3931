package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	DefaultMaxRetries = 2

	InitialBackoffInterval = 500 * time.Millisecond
	MaxBackoffInterval     = 5 * time.Second
)

// Operation is a retryable unit of work. It returns nil on success.
type Operation func() error

// ShouldRetryFunc decides whether err is worth another attempt.
type ShouldRetryFunc func(error) bool

// NotifyFunc is called before every retry with the failed attempt's error and the wait.
type NotifyFunc func(err error, wait time.Duration)

// Config controls retry behaviour.
type Config struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultConfig returns the default retry settings.
func DefaultConfig() Config {
	return Config{
		MaxRetries:      DefaultMaxRetries,
		InitialInterval: InitialBackoffInterval,
		MaxInterval:     MaxBackoffInterval,
	}
}

func newBackOffPolicy(ctx context.Context, cfg Config) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.InitialInterval
	b.MaxInterval = cfg.MaxInterval
	// MaxRetries bounds the attempts, not wall time.
	b.MaxElapsedTime = 0

	return backoff.WithContext(backoff.WithMaxRetries(b, cfg.MaxRetries), ctx)
}

// Do runs op, retrying with exponential backoff while shouldRetry approves the
// error and the retry budget lasts. The returned error wraps the last failure.
func Do(ctx context.Context, cfg Config, operationName string, op Operation, shouldRetry ShouldRetryFunc, notify NotifyFunc) error {
	var lastErr error
	permanent := false

	retryableOp := func() error {
		err := op()
		if err == nil {
			return nil
		}
		lastErr = err
		if shouldRetry != nil && shouldRetry(err) {
			return err
		}
		permanent = true
		return backoff.Permanent(err)
	}

	var backoffNotify backoff.Notify
	if notify != nil {
		backoffNotify = backoff.Notify(notify)
	}

	err := backoff.RetryNotify(retryableOp, newBackOffPolicy(ctx, cfg), backoffNotify)
	switch {
	case err == nil:
		return nil
	case permanent:
		return lastErr
	case lastErr == nil || ctx.Err() != nil:
		return fmt.Errorf("%s cancelled: %w", operationName, err)
	default:
		return fmt.Errorf("%s failed after %d retries: %w", operationName, cfg.MaxRetries, lastErr)
	}
}
