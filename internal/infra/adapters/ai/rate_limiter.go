// File: internal/infra/adapters/ai/rate_limiter.go
package ai

import (
	"context"
	"sync"
	"time"
)

type bucket struct {
	tokens float64
	last   time.Time
}

// RateLimiter is a per-provider token bucket. Capacity equals the
// configured requests-per-minute; refill is continuous at capacity/60
// tokens per second of wall-clock time. Providers without a configured
// limit are not throttled.
type RateLimiter struct {
	mu      sync.Mutex
	rpm     map[string]int
	buckets map[string]*bucket

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewRateLimiter(rpm map[string]int) *RateLimiter {
	return &RateLimiter{
		rpm:     rpm,
		buckets: make(map[string]*bucket),
		now:     time.Now,
		sleep:   sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Acquire consumes one token for the provider, suspending the caller
// until one refills when the bucket is empty. The wait is cooperative
// (timer + ctx), never an OS-thread block of other goroutines.
func (r *RateLimiter) Acquire(ctx context.Context, provider string) error {
	limit := r.rpm[provider]
	if limit <= 0 {
		return nil
	}
	rate := float64(limit) / 60.0 // tokens per second

	for {
		r.mu.Lock()
		b := r.buckets[provider]
		now := r.now()
		if b == nil {
			b = &bucket{tokens: float64(limit), last: now}
			r.buckets[provider] = b
		}
		elapsed := now.Sub(b.last).Seconds()
		if elapsed > 0 {
			b.tokens += elapsed * rate
			if b.tokens > float64(limit) {
				b.tokens = float64(limit)
			}
			b.last = now
		}
		if b.tokens >= 1 {
			b.tokens--
			r.mu.Unlock()
			return nil
		}
		wait := time.Duration((1 - b.tokens) / rate * float64(time.Second))
		r.mu.Unlock()
		if err := r.sleep(ctx, wait); err != nil {
			return err
		}
	}
}
