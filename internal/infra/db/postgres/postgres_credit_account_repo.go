package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"voicebridge/internal/domain"
	"voicebridge/internal/domain/model"
	"voicebridge/internal/domain/ports/repository"
)

var _ repository.CreditAccountRepository = (*PostgresCreditAccountRepo)(nil)

type PostgresCreditAccountRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresCreditAccountRepo(pool *pgxpool.Pool) *PostgresCreditAccountRepo {
	return &PostgresCreditAccountRepo{pool: pool}
}

func (r *PostgresCreditAccountRepo) Save(ctx context.Context, tx repository.Tx, a *model.CreditAccount) error {
	const q = `
INSERT INTO credit_accounts (
  user_id, free_credits, free_credits_month, purchased_credits, tier,
  transcriptions, audio_seconds, tokens_spent, tokens_purchased, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11
) ON CONFLICT (user_id) DO UPDATE SET
  free_credits=$2, free_credits_month=$3, purchased_credits=$4, tier=$5,
  transcriptions=$6, audio_seconds=$7, tokens_spent=$8, tokens_purchased=$9, updated_at=$11;
`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, q, a.UserID, a.FreeCredits, a.FreeCreditsMonth, a.PurchasedCredits, string(a.Tier),
		a.Transcriptions, a.AudioSeconds, a.TokensSpent, a.TokensPurchased, a.CreatedAt, a.UpdatedAt)
	return err
}

func (r *PostgresCreditAccountRepo) FindByUserID(ctx context.Context, tx repository.Tx, userID string) (*model.CreditAccount, error) {
	const q = `
SELECT user_id, free_credits, free_credits_month, purchased_credits, tier,
       transcriptions, audio_seconds, tokens_spent, tokens_purchased, created_at, updated_at
  FROM credit_accounts WHERE user_id=$1;
`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	var a model.CreditAccount
	var tier string
	if err := ex.QueryRow(ctx, q, userID).Scan(&a.UserID, &a.FreeCredits, &a.FreeCreditsMonth, &a.PurchasedCredits, &tier,
		&a.Transcriptions, &a.AudioSeconds, &a.TokensSpent, &a.TokensPurchased, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	a.Tier = model.Tier(tier)
	return &a, nil
}

func (r *PostgresCreditAccountRepo) CountAccounts(ctx context.Context, tx repository.Tx) (int, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return 0, err
	}
	var n int
	if err := ex.QueryRow(ctx, `SELECT COUNT(*) FROM credit_accounts;`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count accounts: %w", err)
	}
	return n, nil
}
