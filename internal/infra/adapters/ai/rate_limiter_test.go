// File: internal/infra/adapters/ai/rate_limiter_test.go
package ai

import (
	"context"
	"testing"
	"time"
)

func TestRateLimiter_Acquire(t *testing.T) {
	ctx := context.Background()

	t.Run("providers without a limit pass through", func(t *testing.T) {
		r := NewRateLimiter(map[string]int{})
		r.sleep = func(ctx context.Context, d time.Duration) error {
			t.Fatal("unexpected sleep")
			return nil
		}
		for i := 0; i < 100; i++ {
			if err := r.Acquire(ctx, "gemini"); err != nil {
				t.Fatalf("acquire: %v", err)
			}
		}
	})

	t.Run("burst up to capacity, then wait for refill", func(t *testing.T) {
		clock := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
		var slept []time.Duration

		r := NewRateLimiter(map[string]int{"gemini": 2})
		r.now = func() time.Time { return clock }
		r.sleep = func(ctx context.Context, d time.Duration) error {
			slept = append(slept, d)
			clock = clock.Add(d) // simulate the wait
			return nil
		}

		// Two immediate acquisitions drain the bucket.
		for i := 0; i < 2; i++ {
			if err := r.Acquire(ctx, "gemini"); err != nil {
				t.Fatalf("acquire %d: %v", i, err)
			}
		}
		if len(slept) != 0 {
			t.Fatalf("expected no wait while burst capacity lasts, got %v", slept)
		}

		// Third must wait one refill interval: 2 rpm = 30s per token.
		if err := r.Acquire(ctx, "gemini"); err != nil {
			t.Fatalf("acquire: %v", err)
		}
		if len(slept) == 0 {
			t.Fatal("expected a wait on the empty bucket")
		}
		total := time.Duration(0)
		for _, d := range slept {
			total += d
		}
		if total < 29*time.Second || total > 31*time.Second {
			t.Errorf("expected ~30s total wait, got %v", total)
		}
	})

	t.Run("buckets are independent per provider", func(t *testing.T) {
		clock := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
		r := NewRateLimiter(map[string]int{"gemini": 1, "groq": 1})
		r.now = func() time.Time { return clock }
		r.sleep = func(ctx context.Context, d time.Duration) error {
			t.Fatal("unexpected sleep")
			return nil
		}

		if err := r.Acquire(ctx, "gemini"); err != nil {
			t.Fatalf("gemini: %v", err)
		}
		if err := r.Acquire(ctx, "groq"); err != nil {
			t.Fatalf("groq must have its own bucket: %v", err)
		}
	})

	t.Run("cancelled context aborts the wait", func(t *testing.T) {
		clock := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
		r := NewRateLimiter(map[string]int{"gemini": 1})
		r.now = func() time.Time { return clock }
		r.sleep = func(ctx context.Context, d time.Duration) error {
			return context.Canceled
		}

		if err := r.Acquire(ctx, "gemini"); err != nil {
			t.Fatalf("first acquire: %v", err)
		}
		if err := r.Acquire(ctx, "gemini"); err != context.Canceled {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}
