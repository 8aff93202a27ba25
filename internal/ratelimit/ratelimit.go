// Package ratelimit provides a sliding-window request limiter keyed by client
// IP. It protects the public API from bursts; per-account quotas are not a
// product requirement.
package ratelimit

import (
	"sync"
	"time"
)

// Result reports the outcome of a limit check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Limiter tracks request timestamps per key inside a sliding window. The
// window is sliding rather than fixed to prevent boundary bursts of up to
// twice the limit.
type Limiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	buckets map[string][]time.Time
	sweeps  int
}

// sweepEvery bounds how often idle buckets are pruned. Pruning on a counter
// instead of a timer keeps the limiter free of background goroutines.
const sweepEvery = 4096

func New(limit int, window time.Duration) *Limiter {
	return &Limiter{
		limit:   limit,
		window:  window,
		buckets: make(map[string][]time.Time),
	}
}

// Allow records a request for key and reports whether it fits the window.
func (l *Limiter) Allow(key string, now time.Time) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := now.Add(-l.window)
	kept := l.buckets[key][:0]
	for _, ts := range l.buckets[key] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	resetAt := now.Add(l.window)
	if len(kept) > 0 {
		resetAt = kept[0].Add(l.window)
	}

	if len(kept) >= l.limit {
		l.buckets[key] = kept
		l.maybeSweep(cutoff)
		return Result{Allowed: false, Limit: l.limit, Remaining: 0, ResetAt: resetAt}
	}

	kept = append(kept, now)
	l.buckets[key] = kept
	l.maybeSweep(cutoff)
	return Result{Allowed: true, Limit: l.limit, Remaining: l.limit - len(kept), ResetAt: resetAt}
}

// maybeSweep drops buckets whose every timestamp has aged out. Called with
// the lock held.
func (l *Limiter) maybeSweep(cutoff time.Time) {
	l.sweeps++
	if l.sweeps < sweepEvery {
		return
	}
	l.sweeps = 0
	for key, timestamps := range l.buckets {
		live := false
		for _, ts := range timestamps {
			if ts.After(cutoff) {
				live = true
				break
			}
		}
		if !live {
			delete(l.buckets, key)
		}
	}
}
