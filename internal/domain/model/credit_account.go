package model

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"voicebridge/internal/domain"
)

// Tier classifies a user for feature access and provider eligibility.
type Tier string

const (
	TierFree   Tier = "free"
	TierPaid   Tier = "paid"
	TierVIP    Tier = "vip"
	TierTester Tier = "tester"
)

// Role names kept in the external role store.
type Role string

const (
	RoleVIP     Role = "vip"
	RoleTester  Role = "tester"
	RoleBlocked Role = "blocked"
)

// MonthKey returns the "YYYY-MM" partition key for t in UTC.
// All resettable counters are scoped by this key.
func MonthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// CreditAccount is the per-user balance record. Free credits replenish
// lazily once per calendar month; purchased credits never expire.
type CreditAccount struct {
	UserID           string
	FreeCredits      int
	FreeCreditsMonth string
	PurchasedCredits int
	Tier             Tier

	// Lifetime counters, monotonic.
	Transcriptions  int
	AudioSeconds    int
	TokensSpent     int
	TokensPurchased int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewCreditAccount creates a fresh account with the default monthly
// allotment already stamped for the current month.
func NewCreditAccount(userID string, freeCredits int, now time.Time) (*CreditAccount, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &CreditAccount{
		UserID:           userID,
		FreeCredits:      freeCredits,
		FreeCreditsMonth: MonthKey(now),
		Tier:             TierFree,
		CreatedAt:        now.UTC(),
		UpdatedAt:        now.UTC(),
	}, nil
}

// ResetIfNewMonth replenishes the free balance when the stored month key
// is stale. Returns true when a reset happened. Must be applied before
// any balance read or deduction within the same document rewrite.
func (a *CreditAccount) ResetIfNewMonth(now time.Time, monthlyAllotment int) bool {
	key := MonthKey(now)
	if a.FreeCreditsMonth == key {
		return false
	}
	a.FreeCredits = monthlyAllotment
	a.FreeCreditsMonth = key
	return true
}

// Total returns free + purchased.
func (a *CreditAccount) Total() int { return a.FreeCredits + a.PurchasedCredits }

// DeductResult reports how a deduction was satisfied.
type DeductResult struct {
	FreeUsed      int
	PurchasedUsed int
	Overdraft     bool
}

// Deduct consumes amount from the balances, free credits first so the
// monetized balance is protected. When the total available is short, it
// drains everything and flags Overdraft; balances never go negative.
func (a *CreditAccount) Deduct(amount int) DeductResult {
	var res DeductResult
	if amount <= 0 {
		return res
	}
	res.FreeUsed = amount
	if res.FreeUsed > a.FreeCredits {
		res.FreeUsed = a.FreeCredits
	}
	remaining := amount - res.FreeUsed
	res.PurchasedUsed = remaining
	if res.PurchasedUsed > a.PurchasedCredits {
		res.PurchasedUsed = a.PurchasedCredits
	}
	a.FreeCredits -= res.FreeUsed
	a.PurchasedCredits -= res.PurchasedUsed
	res.Overdraft = res.FreeUsed+res.PurchasedUsed < amount
	a.TokensSpent += res.FreeUsed + res.PurchasedUsed
	return res
}

// TokenCost converts audio length to credit cost: one token per started
// 20-second block, never zero.
func TokenCost(audioSeconds int) int {
	if audioSeconds <= 0 {
		return 1
	}
	cost := (audioSeconds + 19) / 20
	if cost < 1 {
		cost = 1
	}
	return cost
}

// HashUserID is the one-way key for trial markers, so a consumed trial
// grant survives deletion of the balance record itself.
func HashUserID(userID string) string {
	sum := sha256.Sum256([]byte(userID))
	return hex.EncodeToString(sum[:])
}

// TrialMarker records that the one-time initial grant was consumed.
// Existence is the whole payload; it is never mutated or deleted.
type TrialMarker struct {
	UserHash  string
	GrantedAt time.Time
}
