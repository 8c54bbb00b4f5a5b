package repository

import (
	"context"

	"voicebridge/internal/domain/model"
)

// MonthlyStatsRepository accumulates global per-month counters. Every
// mutation is an upsert-add on the month-keyed row.
type MonthlyStatsRepository interface {
	Add(ctx context.Context, tx Tx, month string, delta model.MonthlyStats) error
	FindByMonth(ctx context.Context, tx Tx, month string) (*model.MonthlyStats, error)
}

// UserUsageRepository accumulates the per-user per-month breakdown.
type UserUsageRepository interface {
	Add(ctx context.Context, tx Tx, u *model.UserMonthlyUsage) error
	FindByUserAndMonth(ctx context.Context, tx Tx, userID, month string) (*model.UserMonthlyUsage, error)
	ListByMonth(ctx context.Context, tx Tx, month string) ([]*model.UserMonthlyUsage, error)
}

// WitUsageRepository tracks upstream Wit.ai request counts.
type WitUsageRepository interface {
	// Increment adds count to the (month, language) counter, creating it
	// when absent, and returns the running total.
	Increment(ctx context.Context, tx Tx, month, language string, count int) (int, error)
	Get(ctx context.Context, tx Tx, month, language string) (int, error)
	// Snapshot returns all language counters for the month.
	Snapshot(ctx context.Context, tx Tx, month string) (map[string]int, error)
}

// AlertFlagRepository holds write-once sent-markers for admin alerts.
type AlertFlagRepository interface {
	// Create returns domain.ErrAlreadyExists when the flag is present.
	Create(ctx context.Context, tx Tx, f *model.AlertFlag) error
	Exists(ctx context.Context, tx Tx, alertType, month string) (bool, error)
}
