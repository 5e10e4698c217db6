package ratelimit

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// allowScript increments the window counter and starts the window on the
// first hit, atomically.
var allowScript = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if n == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return n
`)

// RedisLimiter shares limits across API instances with a fixed-window
// counter per key. It allows short bursts of up to twice the capacity across
// a window boundary, which the in-memory bucket does not.
type RedisLimiter struct {
	rdb    *redis.Client
	policy Policy
	prefix string
}

// NewRedisClient parses redisURL and pings the server before returning.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}

// NewRedisLimiter creates a limiter whose keys live under prefix.
func NewRedisLimiter(rdb *redis.Client, policy Policy, prefix string) (*RedisLimiter, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &RedisLimiter{rdb: rdb, policy: policy, prefix: prefix}, nil
}

// Allow counts one hit for key in the current window.
func (l *RedisLimiter) Allow(ctx context.Context, key string) error {
	n, err := allowScript.Run(ctx, l.rdb, []string{l.prefix + key}, l.policy.Window.Milliseconds()).Int64()
	if err != nil {
		return fmt.Errorf("checking rate limit: %w", err)
	}
	if n > int64(l.policy.Capacity) {
		return ErrLimitExceeded
	}
	return nil
}
