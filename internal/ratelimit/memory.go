package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/mkarls/gatekeeper/internal/dependencies/clock"
)

type entry struct {
	attempts  int
	expiresAt time.Time
}

// MemoryLimiter is an in-process Limiter for single-instance deployments
type MemoryLimiter struct {
	cfg   Config
	clock clock.Clock

	mu    sync.Mutex
	store map[string]*entry
}

var _ Limiter = (*MemoryLimiter)(nil)

// NewMemoryLimiter creates an in-memory rate limiter
func NewMemoryLimiter(cfg Config, clk clock.Clock) *MemoryLimiter {
	return &MemoryLimiter{
		cfg:   cfg,
		clock: clk,
		store: make(map[string]*entry),
	}
}

func (l *MemoryLimiter) Check(ctx context.Context, key string) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	e, ok := l.store[key]
	if !ok || now.After(e.expiresAt) {
		l.store[key] = &entry{
			attempts:  1,
			expiresAt: now.Add(l.cfg.Window),
		}
		return Result{
			Allowed:      true,
			AttemptsUsed: 1,
			AttemptsLeft: l.cfg.MaxAttempts - 1,
		}, nil
	}

	if e.attempts >= l.cfg.MaxAttempts {
		return Result{
			Allowed:      false,
			AttemptsUsed: e.attempts,
			RetryAfter:   e.expiresAt.Sub(now),
		}, nil
	}

	e.attempts++
	return Result{
		Allowed:      true,
		AttemptsUsed: e.attempts,
		AttemptsLeft: l.cfg.MaxAttempts - e.attempts,
	}, nil
}

func (l *MemoryLimiter) Reset(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.store, key)
	return nil
}

// Sweep drops expired entries. Call periodically from a background
// goroutine; Check never reads expired entries so this is purely about
// memory usage.
func (l *MemoryLimiter) Sweep() {
	now := l.clock.Now()
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, e := range l.store {
		if now.After(e.expiresAt) {
			delete(l.store, key)
		}
	}
}
