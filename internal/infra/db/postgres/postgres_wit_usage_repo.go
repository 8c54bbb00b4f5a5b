package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"voicebridge/internal/domain/ports/repository"
)

var _ repository.WitUsageRepository = (*PostgresWitUsageRepo)(nil)

type PostgresWitUsageRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresWitUsageRepo(pool *pgxpool.Pool) *PostgresWitUsageRepo {
	return &PostgresWitUsageRepo{pool: pool}
}

func (r *PostgresWitUsageRepo) Increment(ctx context.Context, tx repository.Tx, month, language string, count int) (int, error) {
	const q = `
INSERT INTO wit_usage (month, language, count) VALUES ($1,$2,$3)
ON CONFLICT (month, language) DO UPDATE SET count = wit_usage.count + $3
RETURNING count;
`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return 0, err
	}
	var total int
	if err := ex.QueryRow(ctx, q, month, language, count).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *PostgresWitUsageRepo) Get(ctx context.Context, tx repository.Tx, month, language string) (int, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return 0, err
	}
	var count int
	err = ex.QueryRow(ctx, `SELECT COALESCE(SUM(count),0) FROM wit_usage WHERE month=$1 AND language=$2;`, month, language).Scan(&count)
	return count, err
}

func (r *PostgresWitUsageRepo) Snapshot(ctx context.Context, tx repository.Tx, month string) (map[string]int, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, `SELECT language, count FROM wit_usage WHERE month=$1;`, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]int)
	for rows.Next() {
		var lang string
		var count int
		if err := rows.Scan(&lang, &count); err != nil {
			return nil, err
		}
		out[lang] = count
	}
	return out, rows.Err()
}
