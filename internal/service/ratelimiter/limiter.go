// Package ratelimiter implements a Redis-backed token bucket shared by all
// replicas. It throttles oracle calls so a burst of submissions cannot
// exhaust the provider quota.
package ratelimiter

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

type Limiter interface {
	Allow(ctx context.Context, key string, cost int64) (allowed bool, retryAfter time.Duration, err error)
}

type BucketConfig struct {
	Capacity   int64
	RefillRate float64 // tokens per second
}

func NewBucketConfigFromPerMinute(perMinute int) BucketConfig {
	if perMinute <= 0 {
		return BucketConfig{}
	}
	return BucketConfig{
		Capacity:   int64(perMinute),
		RefillRate: float64(perMinute) / 60.0,
	}
}

// RedisLimiter evaluates the bucket atomically inside a Lua script.
type RedisLimiter struct {
	rdb     *redis.Client
	script  *redis.Script
	buckets map[string]BucketConfig
	now     func() time.Time
}

// NewRedisLimiter returns nil when rdb is nil; a nil limiter allows everything.
// The bucket set is fixed for the life of the limiter.
func NewRedisLimiter(rdb *redis.Client, buckets map[string]BucketConfig) *RedisLimiter {
	if rdb == nil {
		return nil
	}
	if buckets == nil {
		buckets = map[string]BucketConfig{}
	}
	return &RedisLimiter{
		rdb:     rdb,
		script:  redis.NewScript(tokenBucketScript),
		buckets: buckets,
		now:     time.Now,
	}
}

// Times are in milliseconds. Idle buckets expire once they would be full again.
const tokenBucketScript = `
local key = KEYS[1]
local capacity = tonumber(ARGV[1])
local per_ms = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local cost = tonumber(ARGV[4])

local state = redis.call("HMGET", key, "tokens", "ts")
local tokens = tonumber(state[1]) or capacity
local ts = tonumber(state[2]) or now

local elapsed = math.max(0, now - ts)
tokens = math.min(capacity, tokens + elapsed * per_ms)

local allowed = 0
local wait_ms = 0
if tokens >= cost then
  tokens = tokens - cost
  allowed = 1
elseif per_ms > 0 then
  wait_ms = math.ceil((cost - tokens) / per_ms)
end

redis.call("HSET", key, "tokens", tostring(tokens), "ts", tostring(now))
if per_ms > 0 then
  redis.call("PEXPIRE", key, math.ceil(capacity / per_ms) + 1000)
end
return { allowed, wait_ms }
`

// Allow takes cost tokens from the bucket named key. Unknown keys and Redis
// failures are allowed so the limiter never becomes an outage of its own.
func (l *RedisLimiter) Allow(ctx context.Context, key string, cost int64) (bool, time.Duration, error) {
	if l == nil || l.rdb == nil {
		return true, 0, nil
	}
	cfg, ok := l.buckets[key]
	if !ok || cfg.Capacity <= 0 || cfg.RefillRate <= 0 {
		return true, 0, nil
	}
	if cost <= 0 {
		cost = 1
	}

	nowMs := l.now().UnixMilli()
	perMs := cfg.RefillRate / 1000.0
	res, err := l.script.Run(ctx, l.rdb, []string{"ratelimit:" + key}, cfg.Capacity, perMs, nowMs, cost).Int64Slice()
	if err != nil {
		slog.Error("rate limiter script failed", slog.String("key", key), slog.Any("error", err))
		return true, 0, err
	}
	if len(res) < 2 {
		return true, 0, nil
	}
	return res[0] == 1, time.Duration(res[1]) * time.Millisecond, nil
}
