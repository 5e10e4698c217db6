package ratelimit

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

type bucket struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64
}

// MemoryLimiter keeps one bucket per key in process memory. The map lock is
// only held to find or create a bucket; each bucket synchronizes itself, so
// requests from different keys never contend on the same token state.
type MemoryLimiter struct {
	policy  Policy
	idleTTL time.Duration
	now     func() time.Time

	mu      sync.RWMutex
	buckets map[string]*bucket
}

// MemoryOption configures a MemoryLimiter.
type MemoryOption func(*MemoryLimiter)

// WithClock overrides the limiter's time source.
func WithClock(now func() time.Time) MemoryOption {
	return func(l *MemoryLimiter) { l.now = now }
}

// WithIdleTTL sets how long an unused bucket is kept before Sweep drops it.
// Values shorter than the policy window are raised to the window, since a
// bucket idle for a full window is back at capacity anyway.
func WithIdleTTL(ttl time.Duration) MemoryOption {
	return func(l *MemoryLimiter) { l.idleTTL = ttl }
}

// NewMemoryLimiter creates an in-memory limiter for policy.
func NewMemoryLimiter(policy Policy, opts ...MemoryOption) (*MemoryLimiter, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	l := &MemoryLimiter{
		policy:  policy,
		idleTTL: 30 * time.Minute,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.idleTTL < policy.Window {
		l.idleTTL = policy.Window
	}
	return l, nil
}

// Allow consumes one token from key's bucket.
func (l *MemoryLimiter) Allow(_ context.Context, key string) error {
	now := l.now()
	b := l.bucketFor(key, now)
	b.lastSeen.Store(now.UnixNano())
	if !b.limiter.AllowN(now, 1) {
		return ErrLimitExceeded
	}
	return nil
}

func (l *MemoryLimiter) bucketFor(key string, now time.Time) *bucket {
	l.mu.RLock()
	b, ok := l.buckets[key]
	l.mu.RUnlock()
	if ok {
		return b
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok = l.buckets[key]; ok {
		return b
	}
	b = &bucket{
		limiter: rate.NewLimiter(rate.Every(l.policy.Window/time.Duration(l.policy.Capacity)), l.policy.Capacity),
	}
	b.lastSeen.Store(now.UnixNano())
	l.buckets[key] = b
	return b
}

// Sweep drops buckets that have not been used for longer than the idle TTL
// and returns how many were removed.
func (l *MemoryLimiter) Sweep(now time.Time) int {
	cutoff := now.Add(-l.idleTTL).UnixNano()

	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for key, b := range l.buckets {
		if b.lastSeen.Load() < cutoff {
			delete(l.buckets, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of live buckets.
func (l *MemoryLimiter) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.buckets)
}

// Run sweeps idle buckets every interval until ctx is cancelled.
func (l *MemoryLimiter) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return errors.New("ratelimit: sweep interval must be positive")
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			l.Sweep(l.now())
		}
	}
}
