// File: internal/usecase/wit_usage_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"voicebridge/internal/domain"
	"voicebridge/internal/domain/model"
	"voicebridge/internal/domain/ports/adapter"
	"voicebridge/internal/domain/ports/repository"
)

// Compile-time check
var _ WitUsageUseCase = (*witUsageUC)(nil)

// WitUsageUseCase tracks upstream Wit.ai request counts against the
// per-language monthly free tier.
type WitUsageUseCase interface {
	Increment(ctx context.Context, language string, count int) (int, error)
	UsageThisMonth(ctx context.Context, language string) (int, error)
	AllUsageThisMonth(ctx context.Context) (map[string]int, error)
	IsAvailable(ctx context.Context, language string) (bool, error)
}

type witUsageUC struct {
	usage    repository.WitUsageRepository
	alerts   repository.AlertFlagRepository
	notifier adapter.AdminNotifier

	monthlyLimit int

	log *zerolog.Logger
	now func() time.Time
}

func NewWitUsageUseCase(
	usage repository.WitUsageRepository,
	alerts repository.AlertFlagRepository,
	notifier adapter.AdminNotifier,
	monthlyLimit int,
	logger *zerolog.Logger,
) *witUsageUC {
	return &witUsageUC{
		usage:        usage,
		alerts:       alerts,
		notifier:     notifier,
		monthlyLimit: monthlyLimit,
		log:          logger,
		now:          time.Now,
	}
}

func (u *witUsageUC) Increment(ctx context.Context, language string, count int) (int, error) {
	if count <= 0 {
		count = 1
	}
	month := model.MonthKey(u.now())
	total, err := u.usage.Increment(ctx, repository.NoTX, month, language, count)
	if err != nil {
		return 0, err
	}
	u.maybeAlert(ctx, language, month, total)
	return total, nil
}

func (u *witUsageUC) UsageThisMonth(ctx context.Context, language string) (int, error) {
	return u.usage.Get(ctx, repository.NoTX, model.MonthKey(u.now()), language)
}

func (u *witUsageUC) AllUsageThisMonth(ctx context.Context) (map[string]int, error) {
	return u.usage.Snapshot(ctx, repository.NoTX, model.MonthKey(u.now()))
}

// IsAvailable is strict: reaching the ceiling exactly makes the language
// unavailable for the rest of the month.
func (u *witUsageUC) IsAvailable(ctx context.Context, language string) (bool, error) {
	used, err := u.UsageThisMonth(ctx, language)
	if err != nil {
		return false, err
	}
	return used < u.monthlyLimit, nil
}

// maybeAlert notifies admins once per (threshold, language, month) when
// usage crosses 80% or 100% of the ceiling. Best-effort: alerting
// failures never fail the increment.
func (u *witUsageUC) maybeAlert(ctx context.Context, language, month string, total int) {
	if u.notifier == nil || u.monthlyLimit <= 0 {
		return
	}
	type threshold struct {
		name string
		at   int
	}
	thresholds := []threshold{
		{"wit_quota_80_" + language, u.monthlyLimit * 80 / 100},
		{"wit_quota_full_" + language, u.monthlyLimit},
	}
	for _, th := range thresholds {
		if total < th.at {
			continue
		}
		flag := &model.AlertFlag{AlertType: th.name, Month: month, SentAt: u.now().UTC()}
		if err := u.alerts.Create(ctx, repository.NoTX, flag); err != nil {
			if !errors.Is(err, domain.ErrAlreadyExists) {
				u.log.Error().Err(err).Str("alert", th.name).Msg("alert flag create failed")
			}
			continue
		}
		text := fmt.Sprintf("Wit.ai usage for %q reached %d/%d this month", language, total, u.monthlyLimit)
		if err := u.notifier.NotifyAdmins(ctx, text); err != nil {
			u.log.Error().Err(err).Str("alert", th.name).Msg("admin notification failed")
		}
	}
}
