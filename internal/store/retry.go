package store

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"
)

// RetryConfig bounds the commit retry loop.
type RetryConfig struct {
	MaxAttempts int           // total attempts including the first (default: 5)
	BaseBackoff time.Duration // first backoff, doubled per attempt (default: 100ms)
	MaxBackoff  time.Duration // backoff ceiling (default: 5s)
}

// DefaultRetryConfig returns the standard commit retry bounds.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 5,
		BaseBackoff: 100 * time.Millisecond,
		MaxBackoff:  5 * time.Second,
	}
}

func (c RetryConfig) withDefaults() RetryConfig {
	def := DefaultRetryConfig()
	if c.MaxAttempts == 0 {
		c.MaxAttempts = def.MaxAttempts
	}
	if c.BaseBackoff == 0 {
		c.BaseBackoff = def.BaseBackoff
	}
	if c.MaxBackoff == 0 {
		c.MaxBackoff = def.MaxBackoff
	}
	return c
}

// withRetry runs op, retrying transient failures with exponential backoff
// and jitter. Permanent errors and context cancellation stop immediately.
// Returns the number of attempts made.
func withRetry(ctx context.Context, cfg RetryConfig, logger *slog.Logger, op func(context.Context) error) (int, error) {
	cfg = cfg.withDefaults()
	backoff := cfg.BaseBackoff

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			// Jitter: backoff * (0.5 to 1.5)
			jitter := backoff/2 + time.Duration(rand.Int64N(int64(backoff)))
			logger.Debug("retrying commit",
				"attempt", attempt,
				"backoff", jitter,
			)

			select {
			case <-ctx.Done():
				return attempt - 1, ctx.Err()
			case <-time.After(jitter):
			}

			backoff *= 2
			if backoff > cfg.MaxBackoff {
				backoff = cfg.MaxBackoff
			}
		}

		err := op(ctx)
		if err == nil {
			return attempt, nil
		}
		lastErr = err

		if !isTransient(err) {
			return attempt, err
		}
	}

	return cfg.MaxAttempts, fmt.Errorf("max attempts exceeded: %w", lastErr)
}
