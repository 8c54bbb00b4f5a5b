package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"voicebridge/internal/domain"
	"voicebridge/internal/domain/model"
	"voicebridge/internal/domain/ports/repository"
)

var _ repository.LinkAttemptRepository = (*PostgresLinkAttemptRepo)(nil)

type PostgresLinkAttemptRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresLinkAttemptRepo(pool *pgxpool.Pool) *PostgresLinkAttemptRepo {
	return &PostgresLinkAttemptRepo{pool: pool}
}

func (r *PostgresLinkAttemptRepo) Save(ctx context.Context, tx repository.Tx, a *model.LinkAttempt) error {
	const q = `
INSERT INTO link_attempts (phone, attempt_count, first_attempt_at, locked_until)
VALUES ($1,$2,$3,$4)
ON CONFLICT (phone) DO UPDATE SET attempt_count=$2, first_attempt_at=$3, locked_until=$4;
`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, q, a.Phone, a.AttemptCount, a.FirstAttemptAt, a.LockedUntil)
	return err
}

func (r *PostgresLinkAttemptRepo) FindByPhone(ctx context.Context, tx repository.Tx, phone string) (*model.LinkAttempt, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	var a model.LinkAttempt
	if err := ex.QueryRow(ctx, `SELECT phone, attempt_count, first_attempt_at, locked_until FROM link_attempts WHERE phone=$1;`, phone).
		Scan(&a.Phone, &a.AttemptCount, &a.FirstAttemptAt, &a.LockedUntil); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *PostgresLinkAttemptRepo) DeleteByPhone(ctx context.Context, tx repository.Tx, phone string) error {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, `DELETE FROM link_attempts WHERE phone=$1;`, phone)
	return err
}
