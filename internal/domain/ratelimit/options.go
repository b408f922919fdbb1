package ratelimit

import "time"

// Option applies a configuration option to the fixed-window limiter.
type Option func(*fixedWindowLimiter)

// WithWindow sets the fixed window length.
func WithWindow(d time.Duration) Option {
	return func(l *fixedWindowLimiter) {
		if d > 0 {
			l.length = d
		}
	}
}

// WithQuota sets the number of submissions allowed per window.
func WithQuota(n int) Option {
	return func(l *fixedWindowLimiter) {
		if n > 0 {
			l.quota = n
		}
	}
}

// WithIdleTTL sets how long a closed window lingers before Sweep evicts it.
func WithIdleTTL(d time.Duration) Option {
	return func(l *fixedWindowLimiter) {
		if d > 0 {
			l.idleTTL = d
		}
	}
}

// WithNow overrides the clock, for tests.
func WithNow(now func() time.Time) Option {
	return func(l *fixedWindowLimiter) {
		if now != nil {
			l.now = now
		}
	}
}
