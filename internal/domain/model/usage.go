package model

import "time"

// MonthlyStats holds global counters for one month key. Created on first
// write in that month, accumulated thereafter, never reset mid-month.
type MonthlyStats struct {
	Month            string
	Transcriptions   int
	Payments         int
	CreditsSold      int
	WitAudioSeconds  int
	GroqAudioSeconds int
	UpdatedAt        time.Time
}

// UserMonthlyUsage is the per-user per-month reporting breakdown.
// Purely additive; token figures are split by balance of origin.
type UserMonthlyUsage struct {
	ID              string // ulid, sortable by creation
	UserID          string
	Month           string
	Transcriptions  int
	AudioSeconds    int
	FreeTokens      int
	PurchasedTokens int
	UpdatedAt       time.Time
}

// WitUsage counts upstream Wit.ai requests for one (month, language)
// pair. Each language draws from an independent free-tier allocation.
type WitUsage struct {
	Month    string
	Language string
	Count    int
}

// AlertFlag is a write-once sent-marker preventing duplicate admin
// notifications within a month.
type AlertFlag struct {
	AlertType string
	Month     string
	SentAt    time.Time
}
