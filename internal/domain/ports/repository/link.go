package repository

import (
	"context"

	"voicebridge/internal/domain/model"
)

// LinkRepository owns confirmed Telegram<->WhatsApp links.
type LinkRepository interface {
	Save(ctx context.Context, tx Tx, l *model.AccountLink) error
	FindByTelegramID(ctx context.Context, tx Tx, telegramID string) (*model.AccountLink, error)
	FindByPhone(ctx context.Context, tx Tx, phone string) (*model.AccountLink, error)
	// DeleteByEitherSide removes any link touching the identity or the
	// phone, enforcing the 1:1 invariant before a new insert.
	DeleteByEitherSide(ctx context.Context, tx Tx, telegramID, phone string) error
	DeleteByTelegramID(ctx context.Context, tx Tx, telegramID string) (bool, error)
}

// LinkCodeRepository owns pending one-time codes, keyed by code value.
type LinkCodeRepository interface {
	Save(ctx context.Context, tx Tx, c *model.LinkCode) error
	FindByCode(ctx context.Context, tx Tx, code string) (*model.LinkCode, error)
	DeleteByCode(ctx context.Context, tx Tx, code string) error
	DeleteByTelegramID(ctx context.Context, tx Tx, telegramID string) error
}

// LinkAttemptRepository tracks failed confirmations per WhatsApp phone.
type LinkAttemptRepository interface {
	Save(ctx context.Context, tx Tx, a *model.LinkAttempt) error
	FindByPhone(ctx context.Context, tx Tx, phone string) (*model.LinkAttempt, error)
	DeleteByPhone(ctx context.Context, tx Tx, phone string) error
}
