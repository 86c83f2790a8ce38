package ratelimit

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter is a Redis-backed Limiter shared across instances.
// Counters live in Redis with the window as their TTL, so limits hold
// across restarts and multiple portal replicas.
type RedisLimiter struct {
	client *redis.Client
	cfg    Config
}

var _ Limiter = (*RedisLimiter)(nil)

// NewRedisLimiter creates a rate limiter backed by the given Redis URL
func NewRedisLimiter(url string, cfg Config) (*RedisLimiter, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return NewRedisLimiterWithClient(redis.NewClient(opts), cfg), nil
}

// NewRedisLimiterWithClient creates a Redis limiter with an existing client (for testing)
func NewRedisLimiterWithClient(client *redis.Client, cfg Config) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (l *RedisLimiter) Close() error {
	return l.client.Close()
}

func (l *RedisLimiter) Check(ctx context.Context, key string) (Result, error) {
	rkey := redisKey(key)

	attempts, err := l.client.Incr(ctx, rkey).Result()
	if err != nil {
		return Result{}, fmt.Errorf("incrementing rate limit counter: %w", err)
	}

	// First attempt in the window starts the TTL
	if attempts == 1 {
		if err := l.client.Expire(ctx, rkey, l.cfg.Window).Err(); err != nil {
			return Result{}, fmt.Errorf("setting rate limit ttl: %w", err)
		}
	}

	if int(attempts) > l.cfg.MaxAttempts {
		ttl, err := l.client.TTL(ctx, rkey).Result()
		if err != nil {
			return Result{}, err
		}
		return Result{
			Allowed:      false,
			AttemptsUsed: int(attempts),
			RetryAfter:   ttl,
		}, nil
	}

	return Result{
		Allowed:      true,
		AttemptsUsed: int(attempts),
		AttemptsLeft: l.cfg.MaxAttempts - int(attempts),
	}, nil
}

func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	return l.client.Del(ctx, redisKey(key)).Err()
}

func redisKey(key string) string {
	return "ratelimit:" + key
}
