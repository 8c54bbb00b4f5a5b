//go:build !integration

package model

import (
	"errors"
	"testing"
	"time"

	"voicebridge/internal/domain"
)

// --- Credit Account Tests ---

func TestNewCreditAccount(t *testing.T) {
	now := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

	t.Run("should stamp the current month on creation", func(t *testing.T) {
		acc, err := NewCreditAccount("user-1", 10, now)
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if acc.FreeCredits != 10 {
			t.Errorf("expected 10 free credits, got %d", acc.FreeCredits)
		}
		if acc.FreeCreditsMonth != "2025-03" {
			t.Errorf("expected month key 2025-03, got %s", acc.FreeCreditsMonth)
		}
		if acc.Tier != TierFree {
			t.Errorf("expected free tier by default, got %s", acc.Tier)
		}
	})

	t.Run("should fail with empty user id", func(t *testing.T) {
		if _, err := NewCreditAccount("", 10, now); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestMonthKey(t *testing.T) {
	t.Run("should normalize to UTC before formatting", func(t *testing.T) {
		// 2025-03-31 23:30 at UTC-5 is already April in UTC.
		loc := time.FixedZone("UTC-5", -5*3600)
		ts := time.Date(2025, 3, 31, 23, 30, 0, 0, loc)
		if got := MonthKey(ts); got != "2025-04" {
			t.Errorf("expected 2025-04, got %s", got)
		}
	})
}

func TestResetIfNewMonth(t *testing.T) {
	march := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	april := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	t.Run("should be a no-op within the same month", func(t *testing.T) {
		acc, _ := NewCreditAccount("user-1", 10, march)
		acc.FreeCredits = 3
		if acc.ResetIfNewMonth(march.Add(13*24*time.Hour), 10) {
			t.Fatal("expected no reset within the same month")
		}
		if acc.FreeCredits != 3 {
			t.Errorf("expected balance untouched, got %d", acc.FreeCredits)
		}
	})

	t.Run("should replenish exactly once on month rollover", func(t *testing.T) {
		acc, _ := NewCreditAccount("user-1", 10, march)
		acc.FreeCredits = 0

		if !acc.ResetIfNewMonth(april, 10) {
			t.Fatal("expected a reset on rollover")
		}
		if acc.FreeCredits != 10 {
			t.Errorf("expected 10 after reset, got %d", acc.FreeCredits)
		}
		// A second pass in the same month must not stack.
		acc.FreeCredits = 4
		if acc.ResetIfNewMonth(april.Add(time.Hour), 10) {
			t.Fatal("expected reset to be idempotent within the month")
		}
		if acc.FreeCredits != 4 {
			t.Errorf("expected 4, got %d", acc.FreeCredits)
		}
	})

	t.Run("should not preserve leftover free credits across months", func(t *testing.T) {
		acc, _ := NewCreditAccount("user-1", 10, march)
		acc.FreeCredits = 7
		acc.ResetIfNewMonth(april, 10)
		if acc.FreeCredits != 10 {
			t.Errorf("free credits replace, not accumulate: expected 10, got %d", acc.FreeCredits)
		}
	})
}

func TestDeduct(t *testing.T) {
	t.Run("should consume free credits before purchased", func(t *testing.T) {
		acc := &CreditAccount{UserID: "u", FreeCredits: 10, PurchasedCredits: 5}
		res := acc.Deduct(12)
		if res.FreeUsed != 10 || res.PurchasedUsed != 2 {
			t.Errorf("expected 10 free + 2 purchased, got %d + %d", res.FreeUsed, res.PurchasedUsed)
		}
		if res.Overdraft {
			t.Error("expected no overdraft")
		}
		if acc.FreeCredits != 0 || acc.PurchasedCredits != 3 {
			t.Errorf("expected balances 0/3, got %d/%d", acc.FreeCredits, acc.PurchasedCredits)
		}
		if acc.TokensSpent != 12 {
			t.Errorf("expected 12 tokens spent, got %d", acc.TokensSpent)
		}
	})

	t.Run("should clamp to zero and flag overdraft when short", func(t *testing.T) {
		acc := &CreditAccount{UserID: "u", FreeCredits: 10, PurchasedCredits: 0}
		res := acc.Deduct(50)
		if !res.Overdraft {
			t.Fatal("expected overdraft flag")
		}
		if res.FreeUsed != 10 || res.PurchasedUsed != 0 {
			t.Errorf("expected to drain 10/0, got %d/%d", res.FreeUsed, res.PurchasedUsed)
		}
		if acc.FreeCredits != 0 || acc.PurchasedCredits != 0 {
			t.Errorf("balances must never go negative, got %d/%d", acc.FreeCredits, acc.PurchasedCredits)
		}
		if acc.TokensSpent != 10 {
			t.Errorf("spent counter tracks actual consumption, expected 10, got %d", acc.TokensSpent)
		}
	})

	t.Run("should ignore non-positive amounts", func(t *testing.T) {
		acc := &CreditAccount{UserID: "u", FreeCredits: 5}
		res := acc.Deduct(0)
		if res.FreeUsed != 0 || res.PurchasedUsed != 0 || res.Overdraft {
			t.Errorf("expected zero-value result, got %+v", res)
		}
		if acc.FreeCredits != 5 {
			t.Errorf("expected balance untouched, got %d", acc.FreeCredits)
		}
	})
}

func TestTokenCost(t *testing.T) {
	cases := []struct {
		seconds int
		want    int
	}{
		{0, 1},
		{-3, 1},
		{1, 1},
		{19, 1},
		{20, 1},
		{21, 2},
		{40, 2},
		{41, 3},
		{600, 30},
	}
	for _, tc := range cases {
		if got := TokenCost(tc.seconds); got != tc.want {
			t.Errorf("TokenCost(%d) = %d, want %d", tc.seconds, got, tc.want)
		}
	}
}

func TestHashUserID(t *testing.T) {
	t.Run("should be deterministic and hex encoded", func(t *testing.T) {
		a, b := HashUserID("user-1"), HashUserID("user-1")
		if a != b {
			t.Error("expected stable hash for the same id")
		}
		if len(a) != 64 {
			t.Errorf("expected 64 hex chars, got %d", len(a))
		}
		if a == HashUserID("user-2") {
			t.Error("expected distinct hashes for distinct ids")
		}
	})
}

// --- Provider Selection Tests ---

func TestSelectTranscriptionProvider(t *testing.T) {
	cases := []struct {
		name           string
		tier           Tier
		witAvailable   bool
		preferred      Provider
		groqConfigured bool
		want           Provider
	}{
		{"free tier with wit quota", TierFree, true, ProviderNone, true, ProviderWit},
		{"free tier without wit quota", TierFree, false, ProviderNone, true, ProviderNone},
		{"free tier never gets groq even when preferred", TierFree, false, ProviderGroq, true, ProviderNone},
		{"paid prefers groq when configured", TierPaid, true, ProviderGroq, true, ProviderGroq},
		{"paid preference ignored when groq unconfigured", TierPaid, true, ProviderGroq, false, ProviderWit},
		{"paid defaults to wit", TierPaid, true, ProviderNone, true, ProviderWit},
		{"paid falls back to groq when wit exhausted", TierPaid, false, ProviderNone, true, ProviderGroq},
		{"paid with nothing available", TierPaid, false, ProviderNone, false, ProviderNone},
		{"vip behaves like paid", TierVIP, false, ProviderNone, true, ProviderGroq},
		{"tester behaves like paid", TierTester, true, ProviderGroq, true, ProviderGroq},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := SelectTranscriptionProvider(tc.tier, tc.witAvailable, tc.preferred, tc.groqConfigured)
			if got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

// --- Link Model Tests ---

func TestLinkCodeExpired(t *testing.T) {
	created := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
	lc := &LinkCode{Code: "123456", TelegramID: "tg-1", CreatedAt: created}

	t.Run("should be valid within TTL", func(t *testing.T) {
		if lc.Expired(created.Add(LinkCodeTTL)) {
			t.Error("code at exactly TTL must still be valid")
		}
	})
	t.Run("should expire after TTL", func(t *testing.T) {
		if !lc.Expired(created.Add(LinkCodeTTL + time.Second)) {
			t.Error("code past TTL must be expired")
		}
	})
}

func TestLinkAttemptLockout(t *testing.T) {
	start := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

	t.Run("should lock after five failures inside the window", func(t *testing.T) {
		a := &LinkAttempt{Phone: "+15550001"}
		for i := 0; i < LinkMaxAttempts-1; i++ {
			if a.RegisterFailure(start.Add(time.Duration(i) * time.Second)) {
				t.Fatalf("unexpected lockout at attempt %d", i+1)
			}
		}
		if !a.RegisterFailure(start.Add(10 * time.Second)) {
			t.Fatal("expected lockout on the fifth failure")
		}
		if !a.Locked(start.Add(11 * time.Second)) {
			t.Error("expected phone to be locked")
		}
		if a.Locked(start.Add(10*time.Second + LinkLockoutPeriod)) {
			t.Error("expected lockout to elapse")
		}
	})

	t.Run("should forgive the counter after the window", func(t *testing.T) {
		a := &LinkAttempt{Phone: "+15550002"}
		for i := 0; i < 4; i++ {
			a.RegisterFailure(start)
		}
		// Next failure lands outside the window: counter restarts at 1.
		if a.RegisterFailure(start.Add(LinkAttemptWindow + time.Second)) {
			t.Fatal("expected no lockout after window reset")
		}
		if a.AttemptCount != 1 {
			t.Errorf("expected counter restart at 1, got %d", a.AttemptCount)
		}
	})
}

func TestGenerateLinkCode(t *testing.T) {
	code, err := GenerateLinkCode()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(code) != 6 {
		t.Fatalf("expected 6 digits, got %q", code)
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			t.Errorf("expected numeric code, got %q", code)
		}
	}
}
