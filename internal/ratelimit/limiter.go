// Package ratelimit implements a fixed-window request limiter backed by Redis,
// shared across API replicas.
package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  ttl = tonumber(ARGV[1])
end
return {current, ttl}
`)

type Result struct {
	Allowed    bool
	Count      int
	RetryAfter time.Duration
}

type Limiter struct {
	client redis.UniversalClient
	prefix string
}

func NewLimiter(client redis.UniversalClient, prefix string) *Limiter {
	prefix = strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = "wallet:rl"
	}
	return &Limiter{client: client, prefix: prefix}
}

// Allow counts one hit for subject in scope and reports whether it is within
// limit hits per window.
func (l *Limiter) Allow(ctx context.Context, scope, subject string, limit int, window time.Duration) (Result, error) {
	if l == nil || l.client == nil || limit <= 0 || window <= 0 {
		return Result{Allowed: true}, nil
	}

	windowMs := window.Milliseconds()
	if windowMs < 1000 {
		windowMs = 1000
	}

	key := fmt.Sprintf("%s:%s:%s", l.prefix, scope, subject)
	raw, err := fixedWindowScript.Run(ctx, l.client, []string{key}, windowMs).Result()
	if err != nil {
		return Result{}, fmt.Errorf("Allow: %w", err)
	}

	values, ok := raw.([]any)
	if !ok || len(values) != 2 {
		return Result{}, fmt.Errorf("Allow: unexpected response %T", raw)
	}
	count, ok := values[0].(int64)
	if !ok {
		return Result{}, fmt.Errorf("Allow: unexpected count type %T", values[0])
	}
	ttlMs, ok := values[1].(int64)
	if !ok || ttlMs < 0 {
		ttlMs = windowMs
	}

	retry := time.Duration(ttlMs) * time.Millisecond
	if retry < time.Second {
		retry = time.Second
	}

	return Result{
		Allowed:    count <= int64(limit),
		Count:      int(count),
		RetryAfter: retry,
	}, nil
}
