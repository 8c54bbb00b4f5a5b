package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"voicebridge/internal/domain"
	"voicebridge/internal/domain/model"
	"voicebridge/internal/domain/ports/repository"
)

var _ repository.MonthlyStatsRepository = (*PostgresStatsRepo)(nil)

// PostgresStatsRepo accumulates the month-keyed global counters. Every
// write is an atomic upsert-add, so concurrent accumulators never lose
// increments.
type PostgresStatsRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresStatsRepo(pool *pgxpool.Pool) *PostgresStatsRepo {
	return &PostgresStatsRepo{pool: pool}
}

func (r *PostgresStatsRepo) Add(ctx context.Context, tx repository.Tx, month string, delta model.MonthlyStats) error {
	const q = `
INSERT INTO monthly_stats (month, transcriptions, payments, credits_sold, wit_audio_seconds, groq_audio_seconds, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (month) DO UPDATE SET
  transcriptions     = monthly_stats.transcriptions + $2,
  payments           = monthly_stats.payments + $3,
  credits_sold       = monthly_stats.credits_sold + $4,
  wit_audio_seconds  = monthly_stats.wit_audio_seconds + $5,
  groq_audio_seconds = monthly_stats.groq_audio_seconds + $6,
  updated_at         = $7;
`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, q, month, delta.Transcriptions, delta.Payments, delta.CreditsSold,
		delta.WitAudioSeconds, delta.GroqAudioSeconds, time.Now().UTC())
	return err
}

func (r *PostgresStatsRepo) FindByMonth(ctx context.Context, tx repository.Tx, month string) (*model.MonthlyStats, error) {
	const q = `
SELECT month, transcriptions, payments, credits_sold, wit_audio_seconds, groq_audio_seconds, updated_at
  FROM monthly_stats WHERE month=$1;
`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	var s model.MonthlyStats
	if err := ex.QueryRow(ctx, q, month).Scan(&s.Month, &s.Transcriptions, &s.Payments, &s.CreditsSold,
		&s.WitAudioSeconds, &s.GroqAudioSeconds, &s.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}
