package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"voicebridge/internal/domain"
	"voicebridge/internal/domain/model"
	"voicebridge/internal/domain/ports/repository"
)

var _ repository.AlertFlagRepository = (*PostgresAlertRepo)(nil)

// PostgresAlertRepo stores write-once alert sent-markers; the unique
// (alert_type, month) pair is the idempotence guarantee.
type PostgresAlertRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresAlertRepo(pool *pgxpool.Pool) *PostgresAlertRepo {
	return &PostgresAlertRepo{pool: pool}
}

func (r *PostgresAlertRepo) Create(ctx context.Context, tx repository.Tx, f *model.AlertFlag) error {
	const q = `INSERT INTO alert_flags (alert_type, month, sent_at) VALUES ($1,$2,$3) ON CONFLICT (alert_type, month) DO NOTHING;`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	tag, err := ex.Exec(ctx, q, f.AlertType, f.Month, f.SentAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadyExists
	}
	return nil
}

func (r *PostgresAlertRepo) Exists(ctx context.Context, tx repository.Tx, alertType, month string) (bool, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return false, err
	}
	var exists bool
	err = ex.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM alert_flags WHERE alert_type=$1 AND month=$2);`, alertType, month).Scan(&exists)
	return exists, err
}
