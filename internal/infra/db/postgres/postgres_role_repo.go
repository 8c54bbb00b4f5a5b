package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"voicebridge/internal/domain/model"
	"voicebridge/internal/domain/ports/repository"
)

var _ repository.RoleRepository = (*PostgresRoleRepo)(nil)

type PostgresRoleRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresRoleRepo(pool *pgxpool.Pool) *PostgresRoleRepo {
	return &PostgresRoleRepo{pool: pool}
}

func (r *PostgresRoleRepo) AddRole(ctx context.Context, tx repository.Tx, userID string, role model.Role, addedBy string) error {
	const q = `
INSERT INTO user_roles (user_id, role, added_by, added_at)
VALUES ($1,$2,$3,$4) ON CONFLICT (user_id, role) DO NOTHING;
`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, q, userID, string(role), addedBy, time.Now().UTC())
	return err
}

func (r *PostgresRoleRepo) RemoveRole(ctx context.Context, tx repository.Tx, userID string, role model.Role) (bool, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return false, err
	}
	tag, err := ex.Exec(ctx, `DELETE FROM user_roles WHERE user_id=$1 AND role=$2;`, userID, string(role))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PostgresRoleRepo) ListByRole(ctx context.Context, tx repository.Tx, role model.Role) ([]string, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, `SELECT user_id FROM user_roles WHERE role=$1 ORDER BY added_at;`, string(role))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *PostgresRoleRepo) HasRole(ctx context.Context, tx repository.Tx, userID string, role model.Role) (bool, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return false, err
	}
	var exists bool
	err = ex.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM user_roles WHERE user_id=$1 AND role=$2);`, userID, string(role)).Scan(&exists)
	return exists, err
}
