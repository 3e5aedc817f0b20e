// Package ratelimit implements a per-key sliding-window call limiter.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter admits at most Max calls per key within the trailing Window.
// Denied calls are not recorded, so a denial never extends the window.
type Limiter struct {
	window time.Duration
	max    int

	mu    sync.Mutex
	calls map[string][]time.Time
	now   func() time.Time // injectable clock for testing
}

// New creates a limiter admitting max calls per key within window.
func New(max int, window time.Duration) *Limiter {
	return &Limiter{
		window: window,
		max:    max,
		calls:  make(map[string][]time.Time),
		now:    time.Now,
	}
}

// Allow reports whether a call for key is admitted right now. The
// prune-count-append sequence runs under one lock so concurrent calls for
// the same key cannot both be admitted past the quota.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	kept := l.calls[key][:0]
	for _, ts := range l.calls[key] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= l.max {
		l.calls[key] = kept
		return false
	}

	l.calls[key] = append(kept, now)
	return true
}

// SetClock overrides the limiter's clock. Intended for tests.
func (l *Limiter) SetClock(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}
