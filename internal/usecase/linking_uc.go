// File: internal/usecase/linking_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"voicebridge/internal/domain"
	"voicebridge/internal/domain/model"
	"voicebridge/internal/domain/ports/repository"
	"voicebridge/internal/infra/logging"
	"voicebridge/internal/infra/metrics"
)

// Compile-time check
var _ LinkingUseCase = (*linkingUC)(nil)

// LinkingUseCase drives the Telegram<->WhatsApp account linking cycle:
// unlinked -> code-pending -> linked -> unlinked.
type LinkingUseCase interface {
	GenerateLinkCode(ctx context.Context, telegramID string) (string, error)
	ConfirmLink(ctx context.Context, code, whatsappPhone string) (model.ConfirmResult, error)
	LinkedTelegramID(ctx context.Context, phone string) (string, error)
	LinkedWhatsApp(ctx context.Context, telegramID string) (string, error)
	Unlink(ctx context.Context, telegramID string) (bool, error)
}

type linkingUC struct {
	links    repository.LinkRepository
	codes    repository.LinkCodeRepository
	attempts repository.LinkAttemptRepository
	tm       repository.TransactionManager

	log *zerolog.Logger
	now func() time.Time
}

func NewLinkingUseCase(
	links repository.LinkRepository,
	codes repository.LinkCodeRepository,
	attempts repository.LinkAttemptRepository,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *linkingUC {
	return &linkingUC{
		links:    links,
		codes:    codes,
		attempts: attempts,
		tm:       tm,
		log:      logger,
		now:      time.Now,
	}
}

// GenerateLinkCode invalidates any pending code for the identity and
// issues a fresh 6-digit one. Collisions across identities are retried a
// few times; the residual race over a 6-digit space with a 5-minute TTL
// is accepted.
func (u *linkingUC) GenerateLinkCode(ctx context.Context, telegramID string) (string, error) {
	defer logging.TraceDuration(u.log, "LinkingUC.GenerateLinkCode")()
	if telegramID == "" {
		return "", domain.ErrInvalidArgument
	}

	if err := u.codes.DeleteByTelegramID(ctx, repository.NoTX, telegramID); err != nil {
		return "", err
	}

	var code string
	for i := 0; i < 3; i++ {
		c, err := model.GenerateLinkCode()
		if err != nil {
			return "", err
		}
		if existing, err := u.codes.FindByCode(ctx, repository.NoTX, c); err == nil && existing != nil {
			continue
		}
		code = c
		break
	}
	if code == "" {
		return "", domain.ErrAlreadyExists
	}

	lc := &model.LinkCode{Code: code, TelegramID: telegramID, CreatedAt: u.now().UTC()}
	if err := u.codes.Save(ctx, repository.NoTX, lc); err != nil {
		return "", err
	}
	return code, nil
}

// ConfirmLink resolves a submitted code from the WhatsApp side.
//
// The phone's lockout state is checked first and wins over everything
// else, so a locked-out caller learns nothing about code validity. Wrong
// and expired codes are indistinguishable to the rate limiter.
func (u *linkingUC) ConfirmLink(ctx context.Context, code, whatsappPhone string) (model.ConfirmResult, error) {
	defer logging.TraceDuration(u.log, "LinkingUC.ConfirmLink")()
	if code == "" || whatsappPhone == "" {
		return model.ConfirmInvalid, domain.ErrInvalidArgument
	}
	now := u.now().UTC()

	attempt, err := u.attempts.FindByPhone(ctx, repository.NoTX, whatsappPhone)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return model.ConfirmInvalid, err
	}
	if attempt != nil && attempt.Locked(now) {
		metrics.IncLinkConfirmation(string(model.ConfirmRateLimited))
		return model.ConfirmRateLimited, nil
	}
	if attempt != nil && attempt.LockedUntil != nil && !attempt.Locked(now) {
		// Lockout elapsed: tracking resumes from a clean counter.
		if err := u.attempts.DeleteByPhone(ctx, repository.NoTX, whatsappPhone); err != nil {
			return model.ConfirmInvalid, err
		}
		attempt = nil
	}

	lc, err := u.codes.FindByCode(ctx, repository.NoTX, code)
	if errors.Is(err, domain.ErrNotFound) {
		return u.failAttempt(ctx, attempt, whatsappPhone, now)
	}
	if err != nil {
		return model.ConfirmInvalid, err
	}
	if lc.Expired(now) {
		if err := u.codes.DeleteByCode(ctx, repository.NoTX, code); err != nil {
			return model.ConfirmInvalid, err
		}
		return u.failAttempt(ctx, attempt, whatsappPhone, now)
	}

	// Valid code: consume it, enforce the 1:1 invariant, insert the new
	// link and wipe the phone's attempt history, all in one transaction.
	txOpts := pgx.TxOptions{IsoLevel: pgx.Serializable}
	err = u.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		if err := u.codes.DeleteByCode(ctx, tx, code); err != nil {
			return err
		}
		if err := u.links.DeleteByEitherSide(ctx, tx, lc.TelegramID, whatsappPhone); err != nil {
			return err
		}
		link := &model.AccountLink{
			ID:            uuid.NewString(),
			TelegramID:    lc.TelegramID,
			WhatsAppPhone: whatsappPhone,
			LinkedAt:      now,
		}
		if err := u.links.Save(ctx, tx, link); err != nil {
			return err
		}
		return u.attempts.DeleteByPhone(ctx, tx, whatsappPhone)
	})
	if err != nil {
		return model.ConfirmInvalid, err
	}
	u.log.Info().Str("telegram_id", lc.TelegramID).Msg("account link confirmed")
	metrics.IncLinkConfirmation(string(model.ConfirmSuccess))
	return model.ConfirmSuccess, nil
}

func (u *linkingUC) failAttempt(ctx context.Context, attempt *model.LinkAttempt, phone string, now time.Time) (model.ConfirmResult, error) {
	if attempt == nil {
		attempt = &model.LinkAttempt{Phone: phone}
	}
	locked := attempt.RegisterFailure(now)
	if err := u.attempts.Save(ctx, repository.NoTX, attempt); err != nil {
		return model.ConfirmInvalid, err
	}
	if locked {
		u.log.Warn().Str("phone", logging.Redact(phone, false)).Msg("link attempts locked out")
	}
	metrics.IncLinkConfirmation(string(model.ConfirmInvalid))
	return model.ConfirmInvalid, nil
}

func (u *linkingUC) LinkedTelegramID(ctx context.Context, phone string) (string, error) {
	l, err := u.links.FindByPhone(ctx, repository.NoTX, phone)
	if errors.Is(err, domain.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return l.TelegramID, nil
}

func (u *linkingUC) LinkedWhatsApp(ctx context.Context, telegramID string) (string, error) {
	l, err := u.links.FindByTelegramID(ctx, repository.NoTX, telegramID)
	if errors.Is(err, domain.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return l.WhatsAppPhone, nil
}

func (u *linkingUC) Unlink(ctx context.Context, telegramID string) (bool, error) {
	return u.links.DeleteByTelegramID(ctx, repository.NoTX, telegramID)
}
