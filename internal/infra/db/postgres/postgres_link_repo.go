package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"voicebridge/internal/domain"
	"voicebridge/internal/domain/model"
	"voicebridge/internal/domain/ports/repository"
)

var _ repository.LinkRepository = (*PostgresLinkRepo)(nil)

type PostgresLinkRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresLinkRepo(pool *pgxpool.Pool) *PostgresLinkRepo {
	return &PostgresLinkRepo{pool: pool}
}

func (r *PostgresLinkRepo) Save(ctx context.Context, tx repository.Tx, l *model.AccountLink) error {
	const q = `
INSERT INTO account_links (id, telegram_id, whatsapp_phone, linked_at)
VALUES ($1,$2,$3,$4);
`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, q, l.ID, l.TelegramID, l.WhatsAppPhone, l.LinkedAt)
	return err
}

func (r *PostgresLinkRepo) FindByTelegramID(ctx context.Context, tx repository.Tx, telegramID string) (*model.AccountLink, error) {
	return r.findOne(ctx, tx, `SELECT id, telegram_id, whatsapp_phone, linked_at FROM account_links WHERE telegram_id=$1;`, telegramID)
}

func (r *PostgresLinkRepo) FindByPhone(ctx context.Context, tx repository.Tx, phone string) (*model.AccountLink, error) {
	return r.findOne(ctx, tx, `SELECT id, telegram_id, whatsapp_phone, linked_at FROM account_links WHERE whatsapp_phone=$1;`, phone)
}

func (r *PostgresLinkRepo) findOne(ctx context.Context, tx repository.Tx, q string, arg interface{}) (*model.AccountLink, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	var l model.AccountLink
	if err := ex.QueryRow(ctx, q, arg).Scan(&l.ID, &l.TelegramID, &l.WhatsAppPhone, &l.LinkedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}

func (r *PostgresLinkRepo) DeleteByEitherSide(ctx context.Context, tx repository.Tx, telegramID, phone string) error {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, `DELETE FROM account_links WHERE telegram_id=$1 OR whatsapp_phone=$2;`, telegramID, phone)
	return err
}

func (r *PostgresLinkRepo) DeleteByTelegramID(ctx context.Context, tx repository.Tx, telegramID string) (bool, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return false, err
	}
	tag, err := ex.Exec(ctx, `DELETE FROM account_links WHERE telegram_id=$1;`, telegramID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
