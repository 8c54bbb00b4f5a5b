package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"voicebridge/internal/domain"
	"voicebridge/internal/domain/model"
	"voicebridge/internal/domain/ports/repository"
)

var _ repository.UserUsageRepository = (*PostgresUserUsageRepo)(nil)

type PostgresUserUsageRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresUserUsageRepo(pool *pgxpool.Pool) *PostgresUserUsageRepo {
	return &PostgresUserUsageRepo{pool: pool}
}

// Add accumulates onto the (user, month) row; the id of the first write
// wins, follow-ups only bump the counters.
func (r *PostgresUserUsageRepo) Add(ctx context.Context, tx repository.Tx, u *model.UserMonthlyUsage) error {
	const q = `
INSERT INTO user_monthly_usage (id, user_id, month, transcriptions, audio_seconds, free_tokens, purchased_tokens, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (user_id, month) DO UPDATE SET
  transcriptions   = user_monthly_usage.transcriptions + $4,
  audio_seconds    = user_monthly_usage.audio_seconds + $5,
  free_tokens      = user_monthly_usage.free_tokens + $6,
  purchased_tokens = user_monthly_usage.purchased_tokens + $7,
  updated_at       = $8;
`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, q, u.ID, u.UserID, u.Month, u.Transcriptions, u.AudioSeconds, u.FreeTokens, u.PurchasedTokens, u.UpdatedAt)
	return err
}

func (r *PostgresUserUsageRepo) FindByUserAndMonth(ctx context.Context, tx repository.Tx, userID, month string) (*model.UserMonthlyUsage, error) {
	const q = `
SELECT id, user_id, month, transcriptions, audio_seconds, free_tokens, purchased_tokens, updated_at
  FROM user_monthly_usage WHERE user_id=$1 AND month=$2;
`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	var u model.UserMonthlyUsage
	if err := ex.QueryRow(ctx, q, userID, month).Scan(&u.ID, &u.UserID, &u.Month, &u.Transcriptions,
		&u.AudioSeconds, &u.FreeTokens, &u.PurchasedTokens, &u.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *PostgresUserUsageRepo) ListByMonth(ctx context.Context, tx repository.Tx, month string) ([]*model.UserMonthlyUsage, error) {
	const q = `
SELECT id, user_id, month, transcriptions, audio_seconds, free_tokens, purchased_tokens, updated_at
  FROM user_monthly_usage WHERE month=$1 ORDER BY id;
`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, q, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.UserMonthlyUsage
	for rows.Next() {
		var u model.UserMonthlyUsage
		if err := rows.Scan(&u.ID, &u.UserID, &u.Month, &u.Transcriptions, &u.AudioSeconds,
			&u.FreeTokens, &u.PurchasedTokens, &u.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &u)
	}
	return out, rows.Err()
}
