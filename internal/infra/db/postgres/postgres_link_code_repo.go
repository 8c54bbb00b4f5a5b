package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"voicebridge/internal/domain"
	"voicebridge/internal/domain/model"
	"voicebridge/internal/domain/ports/repository"
)

var _ repository.LinkCodeRepository = (*PostgresLinkCodeRepo)(nil)

type PostgresLinkCodeRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresLinkCodeRepo(pool *pgxpool.Pool) *PostgresLinkCodeRepo {
	return &PostgresLinkCodeRepo{pool: pool}
}

func (r *PostgresLinkCodeRepo) Save(ctx context.Context, tx repository.Tx, c *model.LinkCode) error {
	const q = `
INSERT INTO link_codes (code, telegram_id, created_at) VALUES ($1,$2,$3)
ON CONFLICT (code) DO UPDATE SET telegram_id=$2, created_at=$3;
`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, q, c.Code, c.TelegramID, c.CreatedAt)
	return err
}

func (r *PostgresLinkCodeRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.LinkCode, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	var c model.LinkCode
	if err := ex.QueryRow(ctx, `SELECT code, telegram_id, created_at FROM link_codes WHERE code=$1;`, code).
		Scan(&c.Code, &c.TelegramID, &c.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *PostgresLinkCodeRepo) DeleteByCode(ctx context.Context, tx repository.Tx, code string) error {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, `DELETE FROM link_codes WHERE code=$1;`, code)
	return err
}

func (r *PostgresLinkCodeRepo) DeleteByTelegramID(ctx context.Context, tx repository.Tx, telegramID string) error {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, `DELETE FROM link_codes WHERE telegram_id=$1;`, telegramID)
	return err
}
