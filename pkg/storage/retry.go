package storage

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// RetryConfig controls how SaveRun retries failed writes.
type RetryConfig struct {
	// MaxAttempts is the number of attempts including the first.
	// Default: 3
	MaxAttempts int

	// InitialBackoff is the wait before the first retry.
	// Default: 50ms
	InitialBackoff time.Duration

	// MaxBackoff caps the wait between attempts.
	// Default: 2s
	MaxBackoff time.Duration

	// BackoffMultiplier grows the wait after each attempt.
	// Default: 2.0
	BackoffMultiplier float64

	// JitterFraction is the fraction of the wait to randomize (0.0 to 1.0).
	// Default: 0.1
	JitterFraction float64
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    50 * time.Millisecond,
		MaxBackoff:        2 * time.Second,
		BackoffMultiplier: 2.0,
		JitterFraction:    0.1,
	}
}

// retryWithBackoff calls operation until it succeeds, returns a
// non-retryable error, or runs out of attempts. The last error is returned.
func retryWithBackoff(ctx context.Context, config RetryConfig, operation func() error) error {
	var lastErr error
	backoff := config.InitialBackoff

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		lastErr = operation()
		if lastErr == nil {
			return nil
		}
		if !IsRetryableError(lastErr) || attempt >= config.MaxAttempts {
			break
		}

		wait := backoff + time.Duration(float64(backoff)*config.JitterFraction*(rand.Float64()*2-1))
		if wait < 0 {
			wait = backoff
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}

		backoff = time.Duration(float64(backoff) * config.BackoffMultiplier)
		if backoff > config.MaxBackoff {
			backoff = config.MaxBackoff
		}
	}

	return lastErr
}

// IsRetryableError reports whether a storage error may succeed on retry.
// Context errors are permanent; everything else is assumed transient
// (lock contention, dropped connections, timeouts).
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}
