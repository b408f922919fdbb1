// Package ratelimit bounds answer submissions per (identity, match) pair.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Default limiter configuration constants.
const (
	defaultWindow  = 1000 * time.Millisecond
	defaultQuota   = 3
	defaultIdleTTL = 60 * time.Second
)

// Limiter answers whether a submission may proceed right now.
type Limiter interface {
	// Allow atomically consumes one slot for the (identity, match) key.
	// Returns false when the key is at or over quota within the current window.
	Allow(ctx context.Context, identity, matchID int64) bool

	// Sweep evicts keys whose window closed longer than the idle TTL ago.
	// Routine maintenance, not a correctness requirement.
	Sweep(ctx context.Context)

	Size() int64
}

// window tracks one key's counter for the current fixed window.
type window struct {
	start time.Time
	count int
}

// fixedWindowLimiter implements Limiter with a mutex-guarded map of
// fixed windows. Keys are disjoint across matches, so one limiter
// instance serves the whole process.
type fixedWindowLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	length  time.Duration
	quota   int
	idleTTL time.Duration
	size    atomic.Int64
	now     func() time.Time
}

// New creates a fixed-window limiter with configuration options.
func New(opts ...Option) Limiter {
	l := &fixedWindowLimiter{
		length:  defaultWindow,
		quota:   defaultQuota,
		idleTTL: defaultIdleTTL,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(l)
	}

	l.windows = make(map[string]*window)
	return l
}

func key(identity, matchID int64) string {
	return fmt.Sprintf("%d:%d", identity, matchID)
}

// Allow consumes one slot for the key, opening a fresh window when none
// exists or the previous one has elapsed.
func (l *fixedWindowLimiter) Allow(ctx context.Context, identity, matchID int64) bool {
	if ctx.Err() != nil {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	k := key(identity, matchID)

	w, ok := l.windows[k]
	if !ok || now.Sub(w.start) >= l.length {
		if !ok {
			l.size.Add(1)
		}
		l.windows[k] = &window{start: now, count: 1}
		return true
	}

	if w.count >= l.quota {
		// denied calls do not consume further slots
		return false
	}
	w.count++
	return true
}

// Sweep drops keys idle past the TTL, bounding memory growth.
func (l *fixedWindowLimiter) Sweep(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-(l.length + l.idleTTL))
	for k, w := range l.windows {
		if w.start.Before(cutoff) {
			delete(l.windows, k)
			l.size.Add(-1)
		}
	}
}

// Size returns the current number of tracked keys.
func (l *fixedWindowLimiter) Size() int64 {
	return l.size.Load()
}
