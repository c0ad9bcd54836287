// Package ratelimit implements fixed-window request budgets. Counters live in
// Redis when one is configured and in process memory otherwise.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrRedisUnavailable = errors.New("redis unavailable")

// Counter records hits against a key within a fixed window.
type Counter interface {
	// Hit adds one to key and returns the count in the current window.
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
}

// Limiter allows at most Max hits per key per Window.
type Limiter struct {
	name    string
	counter Counter
	max     int
	window  time.Duration
}

func New(name string, counter Counter, max int, window time.Duration) *Limiter {
	return &Limiter{name: name, counter: counter, max: max, window: window}
}

func (l *Limiter) Name() string {
	return l.name
}

// Allow records a hit for key and reports whether it is within budget.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	count, err := l.counter.Hit(ctx, l.name+":"+key, l.window)
	if err != nil {
		return false, err
	}
	return count <= int64(l.max), nil
}

type RedisCounter struct {
	rdb redis.UniversalClient
}

func NewRedisCounter(rdb redis.UniversalClient) *RedisCounter {
	return &RedisCounter{rdb: rdb}
}

func (c *RedisCounter) Hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	key = "ratelimit:" + key

	count, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// Fixed window: the TTL is set only by the first hit.
	if count == 1 {
		if err := c.rdb.Expire(ctx, key, window).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return count, nil
}
