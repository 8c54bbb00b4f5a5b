// File: internal/usecase/credit_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"voicebridge/internal/domain"
	"voicebridge/internal/domain/model"
	"voicebridge/internal/domain/ports/repository"
	"voicebridge/internal/infra/logging"
	"voicebridge/internal/infra/metrics"
)

// Compile-time check
var _ CreditUseCase = (*creditUC)(nil)

// CreditUseCase owns per-user balances, tier classification, the lazy
// monthly reset and the deduction policy.
type CreditUseCase interface {
	GetCredits(ctx context.Context, userID string) (free, purchased int, err error)
	GetTotalCredits(ctx context.Context, userID string) (int, error)
	AddCredits(ctx context.Context, userID string, amount int) (int, error)
	AdminAddCredits(ctx context.Context, userID string, amount int) (int, error)
	DeductCredits(ctx context.Context, userID string, amount int) (model.DeductResult, error)
	CanPerformOperation(ctx context.Context, userID string, cost int) (bool, string, error)
	GetUserTier(ctx context.Context, userID string) (model.Tier, error)
	HasUnlimitedAccess(ctx context.Context, userID string) (bool, error)
	HasUnlimitedVoiceAccess(ctx context.Context, userID string) (bool, error)
	GrantInitialCredits(ctx context.Context, userID string) (bool, error)

	IncrementUserStats(ctx context.Context, userID string, audioSeconds int) error
	RecordUserUsage(ctx context.Context, userID string, audioSeconds, freeTokens, purchasedTokens int) error
	IncrementTranscriptionStats(ctx context.Context, provider model.Provider, audioSeconds int) error
	RecordGroqUsage(ctx context.Context, audioSeconds int) error
	IncrementPaymentStats(ctx context.Context, creditsSold int) error
}

// ReasonInsufficientCredits is the denial reason surfaced to callers.
const ReasonInsufficientCredits = "insufficient_credits"

type creditUC struct {
	accounts repository.CreditAccountRepository
	trials   repository.TrialMarkerRepository
	roles    repository.RoleRepository
	stats    repository.MonthlyStatsRepository
	usage    repository.UserUsageRepository
	tm       repository.TransactionManager

	monthlyFree  int
	initialGrant int
	adminIDs     map[string]bool

	log *zerolog.Logger
	now func() time.Time
}

func NewCreditUseCase(
	accounts repository.CreditAccountRepository,
	trials repository.TrialMarkerRepository,
	roles repository.RoleRepository,
	stats repository.MonthlyStatsRepository,
	usage repository.UserUsageRepository,
	tm repository.TransactionManager,
	monthlyFree, initialGrant int,
	adminIDs []string,
	logger *zerolog.Logger,
) *creditUC {
	admins := make(map[string]bool, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = true
	}
	return &creditUC{
		accounts:     accounts,
		trials:       trials,
		roles:        roles,
		stats:        stats,
		usage:        usage,
		tm:           tm,
		monthlyFree:  monthlyFree,
		initialGrant: initialGrant,
		adminIDs:     admins,
		log:          logger,
		now:          time.Now,
	}
}

// loadOrCreate fetches the account, creating it with defaults on first
// access, and applies the lazy monthly reset. The caller decides whether
// the mutated account still needs saving.
func (u *creditUC) loadOrCreate(ctx context.Context, tx repository.Tx, userID string) (acc *model.CreditAccount, dirty bool, err error) {
	acc, err = u.accounts.FindByUserID(ctx, tx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		acc, err = model.NewCreditAccount(userID, u.monthlyFree, u.now())
		if err != nil {
			return nil, false, err
		}
		return acc, true, nil
	}
	if err != nil {
		return nil, false, err
	}
	if acc.ResetIfNewMonth(u.now(), u.monthlyFree) {
		dirty = true
	}
	return acc, dirty, nil
}

func (u *creditUC) GetCredits(ctx context.Context, userID string) (int, int, error) {
	defer logging.TraceDuration(u.log, "CreditUC.GetCredits")()

	var free, purchased int
	txOpts := pgx.TxOptions{IsoLevel: pgx.Serializable}
	err := u.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		acc, dirty, err := u.loadOrCreate(ctx, tx, userID)
		if err != nil {
			return err
		}
		if dirty {
			acc.UpdatedAt = u.now().UTC()
			if err := u.accounts.Save(ctx, tx, acc); err != nil {
				return err
			}
		}
		free, purchased = acc.FreeCredits, acc.PurchasedCredits
		return nil
	})
	return free, purchased, err
}

func (u *creditUC) GetTotalCredits(ctx context.Context, userID string) (int, error) {
	free, purchased, err := u.GetCredits(ctx, userID)
	return free + purchased, err
}

func (u *creditUC) AddCredits(ctx context.Context, userID string, amount int) (int, error) {
	return u.addCredits(ctx, userID, amount, true)
}

// AdminAddCredits increments the balance without touching the tier; an
// administrative grant must not look like a paying customer.
func (u *creditUC) AdminAddCredits(ctx context.Context, userID string, amount int) (int, error) {
	return u.addCredits(ctx, userID, amount, false)
}

func (u *creditUC) addCredits(ctx context.Context, userID string, amount int, markPaid bool) (int, error) {
	defer logging.TraceDuration(u.log, "CreditUC.AddCredits")()
	if amount <= 0 {
		return 0, domain.ErrInvalidArgument
	}

	var newPurchased int
	txOpts := pgx.TxOptions{IsoLevel: pgx.Serializable}
	err := u.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		acc, _, err := u.loadOrCreate(ctx, tx, userID)
		if err != nil {
			return err
		}
		acc.PurchasedCredits += amount
		acc.TokensPurchased += amount
		if markPaid {
			acc.Tier = model.TierPaid
		}
		acc.UpdatedAt = u.now().UTC()
		if err := u.accounts.Save(ctx, tx, acc); err != nil {
			return err
		}
		newPurchased = acc.PurchasedCredits
		return nil
	})
	if err == nil {
		if markPaid {
			metrics.AddCreditsSold(amount)
		}
		u.log.Info().Str("user_id", userID).Int("amount", amount).Bool("purchase", markPaid).Msg("credits added")
	}
	return newPurchased, err
}

// DeductCredits consumes amount from the balances, free first. When the
// total available falls short it drains everything and flags Overdraft;
// the admission decision belongs to CanPerformOperation, called before.
func (u *creditUC) DeductCredits(ctx context.Context, userID string, amount int) (model.DeductResult, error) {
	defer logging.TraceDuration(u.log, "CreditUC.DeductCredits")()
	if amount <= 0 {
		return model.DeductResult{}, domain.ErrInvalidArgument
	}

	var res model.DeductResult
	txOpts := pgx.TxOptions{IsoLevel: pgx.Serializable}
	err := u.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		acc, _, err := u.loadOrCreate(ctx, tx, userID)
		if err != nil {
			return err
		}
		res = acc.Deduct(amount)
		acc.UpdatedAt = u.now().UTC()
		return u.accounts.Save(ctx, tx, acc)
	})
	if err == nil && res.Overdraft {
		u.log.Warn().Str("user_id", userID).Int("requested", amount).
			Int("free_used", res.FreeUsed).Int("purchased_used", res.PurchasedUsed).
			Msg("deduction overdraft")
	}
	return res, err
}

func (u *creditUC) CanPerformOperation(ctx context.Context, userID string, cost int) (bool, string, error) {
	unlimited, err := u.HasUnlimitedAccess(ctx, userID)
	if err != nil {
		return false, "", err
	}
	if unlimited {
		return true, "", nil
	}
	total, err := u.GetTotalCredits(ctx, userID)
	if err != nil {
		return false, "", err
	}
	if total < cost {
		return false, ReasonInsufficientCredits, nil
	}
	return true, "", nil
}

// GetUserTier resolves the effective tier. The external role store takes
// precedence over whatever is persisted on the balance record.
func (u *creditUC) GetUserTier(ctx context.Context, userID string) (model.Tier, error) {
	if u.adminIDs[userID] {
		return model.TierVIP, nil
	}
	vip, err := u.roles.HasRole(ctx, repository.NoTX, userID, model.RoleVIP)
	if err != nil {
		return model.TierFree, err
	}
	if vip {
		return model.TierVIP, nil
	}
	tester, err := u.roles.HasRole(ctx, repository.NoTX, userID, model.RoleTester)
	if err != nil {
		return model.TierFree, err
	}
	if tester {
		return model.TierTester, nil
	}
	acc, err := u.accounts.FindByUserID(ctx, repository.NoTX, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return model.TierFree, nil
	}
	if err != nil {
		return model.TierFree, err
	}
	if acc.Tier == model.TierPaid {
		return model.TierPaid, nil
	}
	return model.TierFree, nil
}

// HasUnlimitedAccess covers credit checks and generative features.
func (u *creditUC) HasUnlimitedAccess(ctx context.Context, userID string) (bool, error) {
	if u.adminIDs[userID] {
		return true, nil
	}
	return u.roles.HasRole(ctx, repository.NoTX, userID, model.RoleVIP)
}

// HasUnlimitedVoiceAccess is the narrower privilege: testers get
// unmetered transcription but nothing else.
func (u *creditUC) HasUnlimitedVoiceAccess(ctx context.Context, userID string) (bool, error) {
	unlimited, err := u.HasUnlimitedAccess(ctx, userID)
	if err != nil || unlimited {
		return unlimited, err
	}
	return u.roles.HasRole(ctx, repository.NoTX, userID, model.RoleTester)
}

// GrantInitialCredits hands out the one-time trial bonus. The marker is
// keyed by a hash of the identity and outlives the balance record, so a
// deleted and recreated account cannot re-claim the grant.
func (u *creditUC) GrantInitialCredits(ctx context.Context, userID string) (bool, error) {
	defer logging.TraceDuration(u.log, "CreditUC.GrantInitialCredits")()

	hash := model.HashUserID(userID)
	granted := false
	txOpts := pgx.TxOptions{IsoLevel: pgx.Serializable}
	err := u.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		exists, err := u.trials.Exists(ctx, tx, hash)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}
		marker := &model.TrialMarker{UserHash: hash, GrantedAt: u.now().UTC()}
		if err := u.trials.Create(ctx, tx, marker); err != nil {
			if errors.Is(err, domain.ErrAlreadyExists) {
				return nil
			}
			return err
		}
		acc, _, err := u.loadOrCreate(ctx, tx, userID)
		if err != nil {
			return err
		}
		acc.FreeCredits += u.initialGrant
		acc.UpdatedAt = u.now().UTC()
		if err := u.accounts.Save(ctx, tx, acc); err != nil {
			return err
		}
		granted = true
		return nil
	})
	if err == nil && granted {
		u.log.Info().Str("user_id", userID).Int("amount", u.initialGrant).Msg("trial credits granted")
	}
	return granted, err
}

// ---- accumulators ----

func (u *creditUC) IncrementUserStats(ctx context.Context, userID string, audioSeconds int) error {
	txOpts := pgx.TxOptions{IsoLevel: pgx.Serializable}
	return u.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		acc, _, err := u.loadOrCreate(ctx, tx, userID)
		if err != nil {
			return err
		}
		acc.Transcriptions++
		acc.AudioSeconds += audioSeconds
		acc.UpdatedAt = u.now().UTC()
		return u.accounts.Save(ctx, tx, acc)
	})
}

func (u *creditUC) RecordUserUsage(ctx context.Context, userID string, audioSeconds, freeTokens, purchasedTokens int) error {
	rec := &model.UserMonthlyUsage{
		ID:              ulid.Make().String(),
		UserID:          userID,
		Month:           model.MonthKey(u.now()),
		Transcriptions:  1,
		AudioSeconds:    audioSeconds,
		FreeTokens:      freeTokens,
		PurchasedTokens: purchasedTokens,
		UpdatedAt:       u.now().UTC(),
	}
	return u.usage.Add(ctx, repository.NoTX, rec)
}

func (u *creditUC) IncrementTranscriptionStats(ctx context.Context, provider model.Provider, audioSeconds int) error {
	delta := model.MonthlyStats{Transcriptions: 1}
	switch provider {
	case model.ProviderWit:
		delta.WitAudioSeconds = audioSeconds
	case model.ProviderGroq:
		delta.GroqAudioSeconds = audioSeconds
	}
	return u.stats.Add(ctx, repository.NoTX, model.MonthKey(u.now()), delta)
}

func (u *creditUC) RecordGroqUsage(ctx context.Context, audioSeconds int) error {
	delta := model.MonthlyStats{GroqAudioSeconds: audioSeconds}
	return u.stats.Add(ctx, repository.NoTX, model.MonthKey(u.now()), delta)
}

func (u *creditUC) IncrementPaymentStats(ctx context.Context, creditsSold int) error {
	delta := model.MonthlyStats{Payments: 1, CreditsSold: creditsSold}
	return u.stats.Add(ctx, repository.NoTX, model.MonthKey(u.now()), delta)
}
