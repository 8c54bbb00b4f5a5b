package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"voicebridge/internal/domain"
	"voicebridge/internal/domain/model"
	"voicebridge/internal/domain/ports/repository"
)

var _ repository.TrialMarkerRepository = (*PostgresTrialRepo)(nil)

// PostgresTrialRepo stores consumed trial grants keyed by the hashed
// identity. Rows are write-once.
type PostgresTrialRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresTrialRepo(pool *pgxpool.Pool) *PostgresTrialRepo {
	return &PostgresTrialRepo{pool: pool}
}

func (r *PostgresTrialRepo) Create(ctx context.Context, tx repository.Tx, m *model.TrialMarker) error {
	const q = `INSERT INTO trial_grants (user_hash, granted_at) VALUES ($1,$2) ON CONFLICT (user_hash) DO NOTHING;`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	tag, err := ex.Exec(ctx, q, m.UserHash, m.GrantedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadyExists
	}
	return nil
}

func (r *PostgresTrialRepo) Exists(ctx context.Context, tx repository.Tx, userHash string) (bool, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return false, err
	}
	var exists bool
	err = ex.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM trial_grants WHERE user_hash=$1);`, userHash).Scan(&exists)
	return exists, err
}
