package repository

import (
	"context"

	"voicebridge/internal/domain/model"
)

// -----------------------------
// Credit accounts
// -----------------------------

type CreditAccountRepository interface {
	Save(ctx context.Context, tx Tx, a *model.CreditAccount) error
	FindByUserID(ctx context.Context, tx Tx, userID string) (*model.CreditAccount, error)
	CountAccounts(ctx context.Context, tx Tx) (int, error)
}

// TrialMarkerRepository keys consumed trial grants by a one-way hash of
// the user identity, independent of the balance record's lifecycle.
type TrialMarkerRepository interface {
	// Create returns domain.ErrAlreadyExists when the marker is present.
	Create(ctx context.Context, tx Tx, m *model.TrialMarker) error
	Exists(ctx context.Context, tx Tx, userHash string) (bool, error)
}

// RoleRepository is the external role store (VIP / TESTER / BLOCKED).
type RoleRepository interface {
	AddRole(ctx context.Context, tx Tx, userID string, role model.Role, addedBy string) error
	RemoveRole(ctx context.Context, tx Tx, userID string, role model.Role) (bool, error)
	ListByRole(ctx context.Context, tx Tx, role model.Role) ([]string, error)
	HasRole(ctx context.Context, tx Tx, userID string, role model.Role) (bool, error)
}
