package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/lead-intake/pkg/logging"
)

// The script increments the counter and arms the expiry on the first hit of a
// window so the two steps are atomic across processes.
var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {current, ttl}
`)

// RedisLimiter shares fixed-window counters across processes through Redis. When
// Redis is unreachable it degrades to a process-local MemoryLimiter instead of
// admitting traffic unchecked.
type RedisLimiter struct {
	client   *redis.Client
	policy   Policy
	prefix   string
	timeout  time.Duration
	fallback *MemoryLimiter
	logger   *logging.Logger
}

// NewRedis returns a Redis-backed limiter.
func NewRedis(client *redis.Client, policy Policy, logger *logging.Logger) *RedisLimiter {
	if logger == nil {
		logger = logging.Default()
	}
	policy = policy.normalized()
	return &RedisLimiter{
		client:   client,
		policy:   policy,
		prefix:   "leads:ratelimit:",
		timeout:  2 * time.Second,
		fallback: NewMemory(policy),
		logger:   logger,
	}
}

// Allow increments the shared counter for key.
func (l *RedisLimiter) Allow(ctx context.Context, key string) Decision {
	if l.client == nil {
		return l.fallback.Allow(ctx, key)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	res, err := fixedWindowScript.Run(ctx, l.client, []string{l.prefix + key}, l.policy.Window.Milliseconds()).Int64Slice()
	if err != nil || len(res) < 2 {
		l.logger.Warn("redis rate limit unavailable, using local counter", "error", err)
		return l.fallback.Allow(ctx, key)
	}

	count, ttlMs := int(res[0]), res[1]
	if ttlMs < 0 {
		ttlMs = l.policy.Window.Milliseconds()
	}
	remaining := l.policy.Limit - count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   count <= l.policy.Limit,
		Count:     count,
		Limit:     l.policy.Limit,
		Remaining: remaining,
		ResetAt:   time.Now().Add(time.Duration(ttlMs) * time.Millisecond),
	}
}
