// Package ratelimit implements a Redis-backed fixed-window request limiter.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// window counts hits in a key that expires with the window.
var window = redis.NewScript(`
local current = redis.call('INCR', KEYS[1])
if current == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
return {current, ttl}
`)

// Result is the outcome of a limit check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetIn   time.Duration
}

// Limiter allows Limit hits per key in every Window.
type Limiter struct {
	client redis.Scripter
	prefix string
	limit  int
	window time.Duration
}

// New creates a Limiter storing its counters under prefix.
func New(client redis.Scripter, prefix string, limit int, window time.Duration) *Limiter {
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{client: client, prefix: prefix, limit: limit, window: window}
}

// Allow records a hit for key and reports whether it is within the limit.
func (l *Limiter) Allow(ctx context.Context, key string) (*Result, error) {
	redisKey := fmt.Sprintf("%s:%s", l.prefix, key)
	vals, err := window.Run(ctx, l.client, []string{redisKey}, l.window.Milliseconds()).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("rate limit %s: %w", redisKey, err)
	}
	if len(vals) != 2 {
		return nil, fmt.Errorf("rate limit %s: unexpected reply %v", redisKey, vals)
	}

	count, ttl := int(vals[0]), time.Duration(vals[1])*time.Millisecond
	if ttl < 0 {
		ttl = l.window
	}
	remaining := l.limit - count
	if remaining < 0 {
		remaining = 0
	}
	return &Result{
		Allowed:   count <= l.limit,
		Limit:     l.limit,
		Remaining: remaining,
		ResetIn:   ttl,
	}, nil
}
