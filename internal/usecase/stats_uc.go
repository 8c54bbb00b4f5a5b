// File: internal/usecase/stats_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"voicebridge/internal/domain"
	"voicebridge/internal/domain/model"
	"voicebridge/internal/domain/ports/repository"
)

// Compile-time check
var _ StatsUseCase = (*statsUC)(nil)

// StatsUseCase exposes the reporting reads used by the admin panel.
type StatsUseCase interface {
	MonthTotals(ctx context.Context) (*model.MonthlyStats, error)
	UserMonthReport(ctx context.Context, userID string) (*model.UserMonthlyUsage, error)
	Accounts(ctx context.Context) (int, error)
	WitUsage(ctx context.Context) (map[string]int, error)
}

type statsUC struct {
	accounts repository.CreditAccountRepository
	stats    repository.MonthlyStatsRepository
	usage    repository.UserUsageRepository
	wit      repository.WitUsageRepository

	log *zerolog.Logger
	now func() time.Time
}

func NewStatsUseCase(
	accounts repository.CreditAccountRepository,
	stats repository.MonthlyStatsRepository,
	usage repository.UserUsageRepository,
	wit repository.WitUsageRepository,
	logger *zerolog.Logger,
) *statsUC {
	return &statsUC{accounts: accounts, stats: stats, usage: usage, wit: wit, log: logger, now: time.Now}
}

func (s *statsUC) MonthTotals(ctx context.Context) (*model.MonthlyStats, error) {
	month := model.MonthKey(s.now())
	st, err := s.stats.FindByMonth(ctx, repository.NoTX, month)
	if errors.Is(err, domain.ErrNotFound) {
		return &model.MonthlyStats{Month: month}, nil
	}
	return st, err
}

func (s *statsUC) UserMonthReport(ctx context.Context, userID string) (*model.UserMonthlyUsage, error) {
	month := model.MonthKey(s.now())
	u, err := s.usage.FindByUserAndMonth(ctx, repository.NoTX, userID, month)
	if errors.Is(err, domain.ErrNotFound) {
		return &model.UserMonthlyUsage{UserID: userID, Month: month}, nil
	}
	return u, err
}

func (s *statsUC) Accounts(ctx context.Context) (int, error) {
	return s.accounts.CountAccounts(ctx, repository.NoTX)
}

func (s *statsUC) WitUsage(ctx context.Context) (map[string]int, error) {
	return s.wit.Snapshot(ctx, repository.NoTX, model.MonthKey(s.now()))
}
