// Package ratelimit throttles abuse-prone operations such as legacy
// credential checks during account linking.
package ratelimit

import (
	"context"
	"time"
)

// Config holds rate limiting settings
type Config struct {
	MaxAttempts int
	Window      time.Duration
}

// DefaultLinkConfig returns the default limit for link attempts
func DefaultLinkConfig() Config {
	return Config{
		MaxAttempts: 10,
		Window:      time.Hour,
	}
}

// Result is the outcome of a rate limit check
type Result struct {
	Allowed      bool
	AttemptsUsed int
	AttemptsLeft int
	RetryAfter   time.Duration
}

// Limiter counts attempts per key within a rolling window
type Limiter interface {
	// Check records an attempt for key and reports whether it is allowed
	Check(ctx context.Context, key string) (Result, error)
	// Reset clears the counter for key (e.g. after a successful link)
	Reset(ctx context.Context, key string) error
}
