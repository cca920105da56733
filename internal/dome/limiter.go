package dome

import (
	"context"
	"sync"
	"time"
)

// limiter spaces requests out by a minimum delay. The delay doubles
// after a rate-limit response and decays back toward the minimum after
// successes, capped at maxDelay.
type limiter struct {
	mu       sync.Mutex
	minDelay time.Duration
	maxDelay time.Duration
	current  time.Duration
	last     time.Time
}

func newLimiter(minDelay, maxDelay time.Duration) *limiter {
	if minDelay <= 0 {
		minDelay = 100 * time.Millisecond
	}
	return &limiter{
		minDelay: minDelay,
		maxDelay: maxDelay,
		current:  minDelay,
	}
}

// wait blocks until the current delay since the previous request has
// elapsed, or the context is done. Idle time beyond the delay earns no
// credit: the next request is anchored to the present, never the past.
func (l *limiter) wait(ctx context.Context) error {
	l.mu.Lock()
	now := time.Now()
	sleep := l.current - now.Sub(l.last)
	if sleep < 0 {
		sleep = 0
	}
	l.last = now.Add(sleep)
	l.mu.Unlock()

	if sleep == 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(sleep):
		return nil
	}
}

// throttled widens the delay after a 429.
func (l *limiter) throttled() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.current = min(l.current*2, l.maxDelay)
}

// succeeded narrows the delay back toward the minimum.
func (l *limiter) succeeded() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.current > l.minDelay {
		l.current = max(l.current/2, l.minDelay)
	}
}
