// File: internal/usecase/wit_usage_uc_test.go
package usecase

import (
	"context"
	"strings"
	"testing"
	"time"
)

type witFixture struct {
	uc       *witUsageUC
	usage    *memWitUsageRepo
	alerts   *memAlertRepo
	notifier *mockNotifier
}

func newWitFixture(limit int) *witFixture {
	f := &witFixture{
		usage:    newMemWitUsageRepo(),
		alerts:   newMemAlertRepo(),
		notifier: &mockNotifier{},
	}
	f.uc = NewWitUsageUseCase(f.usage, f.alerts, f.notifier, limit, newTestLogger())
	return f
}

func TestWitUsageUC_IsAvailable(t *testing.T) {
	ctx := context.Background()

	t.Run("strictly below the ceiling is available", func(t *testing.T) {
		f := newWitFixture(100)
		for i := 0; i < 99; i++ {
			if _, err := f.uc.Increment(ctx, "en", 1); err != nil {
				t.Fatalf("increment: %v", err)
			}
		}
		ok, err := f.uc.IsAvailable(ctx, "en")
		if err != nil || !ok {
			t.Errorf("expected available at 99/100, got %v (%v)", ok, err)
		}
	})

	t.Run("exactly at the ceiling is unavailable", func(t *testing.T) {
		f := newWitFixture(100)
		if _, err := f.uc.Increment(ctx, "en", 100); err != nil {
			t.Fatalf("increment: %v", err)
		}
		ok, err := f.uc.IsAvailable(ctx, "en")
		if err != nil || ok {
			t.Errorf("expected unavailable at 100/100, got %v (%v)", ok, err)
		}
	})

	t.Run("languages are tracked independently", func(t *testing.T) {
		f := newWitFixture(100)
		_, _ = f.uc.Increment(ctx, "en", 100)
		ok, err := f.uc.IsAvailable(ctx, "fa")
		if err != nil || !ok {
			t.Errorf("expected fa untouched, got %v (%v)", ok, err)
		}
	})
}

func TestWitUsageUC_Increment(t *testing.T) {
	ctx := context.Background()

	t.Run("non-positive count registers as one", func(t *testing.T) {
		f := newWitFixture(100)
		total, err := f.uc.Increment(ctx, "en", 0)
		if err != nil || total != 1 {
			t.Errorf("expected total 1, got %d (%v)", total, err)
		}
	})

	t.Run("counters are scoped by month", func(t *testing.T) {
		f := newWitFixture(100)
		f.uc.now = func() time.Time { return time.Date(2025, 3, 31, 23, 0, 0, 0, time.UTC) }
		_, _ = f.uc.Increment(ctx, "en", 42)

		f.uc.now = func() time.Time { return time.Date(2025, 4, 1, 1, 0, 0, 0, time.UTC) }
		used, err := f.uc.UsageThisMonth(ctx, "en")
		if err != nil || used != 0 {
			t.Errorf("expected fresh month at 0, got %d (%v)", used, err)
		}
	})
}

func TestWitUsageUC_QuotaAlerts(t *testing.T) {
	ctx := context.Background()

	t.Run("crossing 80 percent alerts once", func(t *testing.T) {
		f := newWitFixture(100)
		_, _ = f.uc.Increment(ctx, "en", 80)
		_, _ = f.uc.Increment(ctx, "en", 5)

		msgs := f.notifier.sent()
		if len(msgs) != 1 {
			t.Fatalf("expected exactly one alert, got %d: %v", len(msgs), msgs)
		}
		if !strings.Contains(msgs[0], `"en"`) {
			t.Errorf("expected language in alert, got %q", msgs[0])
		}
	})

	t.Run("reaching the ceiling alerts again", func(t *testing.T) {
		f := newWitFixture(100)
		_, _ = f.uc.Increment(ctx, "en", 85)
		_, _ = f.uc.Increment(ctx, "en", 15)

		if got := len(f.notifier.sent()); got != 2 {
			t.Errorf("expected 80%% and 100%% alerts, got %d", got)
		}
		// Further traffic past the ceiling stays silent.
		_, _ = f.uc.Increment(ctx, "en", 1)
		if got := len(f.notifier.sent()); got != 2 {
			t.Errorf("expected no duplicate alerts, got %d", got)
		}
	})

	t.Run("notifier failure never fails the increment", func(t *testing.T) {
		f := newWitFixture(100)
		f.notifier.err = context.DeadlineExceeded

		total, err := f.uc.Increment(ctx, "en", 90)
		if err != nil || total != 90 {
			t.Errorf("expected increment to succeed, got %d (%v)", total, err)
		}
	})
}
