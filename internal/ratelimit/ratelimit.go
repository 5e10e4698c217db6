// Package ratelimit gates requests per client key (the client IP for the
// auth endpoints) with a token bucket per key.
package ratelimit

import (
	"context"
	"errors"
	"time"
)

// ErrLimitExceeded is returned when the key has no tokens left.
var ErrLimitExceeded = errors.New("rate limit exceeded")

// Policy describes a bucket: Capacity tokens, refilled greedily at a rate of
// Capacity tokens per Window.
type Policy struct {
	Capacity int
	Window   time.Duration
}

// Validate checks that the policy can back a bucket.
func (p Policy) Validate() error {
	if p.Capacity <= 0 {
		return errors.New("ratelimit: capacity must be positive")
	}
	if p.Window <= 0 {
		return errors.New("ratelimit: window must be positive")
	}
	return nil
}

// Limiter consumes one token for key, returning ErrLimitExceeded when the
// bucket is empty. Any other error means the limiter itself failed.
type Limiter interface {
	Allow(ctx context.Context, key string) error
}
