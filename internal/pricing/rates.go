package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/jewelms/jewelms/internal/shared"
)

// MetalRate is one published rate for a metal/purity on a date.
type MetalRate struct {
	ID            string
	MetalType     string
	Purity        decimal.Decimal
	RatePerGram   decimal.Decimal
	EffectiveDate time.Time
	CreatedBy     string
	CreatedAt     time.Time
}

// RateStore persists metal rates.
type RateStore struct {
	pool *pgxpool.Pool
}

// NewRateStore constructs a RateStore.
func NewRateStore(pool *pgxpool.Pool) *RateStore {
	return &RateStore{pool: pool}
}

const selectRate = `
	SELECT id, metal_type, purity, rate_per_gram, effective_date,
		COALESCE(created_by::text, ''), created_at
	FROM metal_rates`

func scanRate(row pgx.Row) (*MetalRate, error) {
	var rate MetalRate
	err := row.Scan(&rate.ID, &rate.MetalType, &rate.Purity, &rate.RatePerGram,
		&rate.EffectiveDate, &rate.CreatedBy, &rate.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("metal rate: %w", shared.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &rate, nil
}

// Publish records a new rate. Same metal/purity/date replaces the prior
// value for that day.
func (s *RateStore) Publish(ctx context.Context, rate *MetalRate) error {
	if rate.RatePerGram.Sign() <= 0 {
		return shared.Invalid("rate_per_gram", "rate must be positive")
	}
	if rate.MetalType == "" {
		return shared.Invalid("metal_type", "metal type required")
	}
	if rate.ID == "" {
		rate.ID = uuid.NewString()
	}
	if rate.CreatedAt.IsZero() {
		rate.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO metal_rates (id, metal_type, purity, rate_per_gram, effective_date, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, '')::uuid, $7)
		ON CONFLICT (metal_type, purity, effective_date)
		DO UPDATE SET rate_per_gram = EXCLUDED.rate_per_gram,
			created_by = EXCLUDED.created_by, created_at = EXCLUDED.created_at`,
		rate.ID, rate.MetalType, rate.Purity, rate.RatePerGram,
		rate.EffectiveDate, rate.CreatedBy, rate.CreatedAt)
	return err
}

// Latest returns the most recent rate for a metal/purity on or before
// the given date.
func (s *RateStore) Latest(ctx context.Context, metalType string, purity decimal.Decimal, onOrBefore time.Time) (*MetalRate, error) {
	row := s.pool.QueryRow(ctx, selectRate+`
		WHERE metal_type = $1 AND purity = $2 AND effective_date <= $3
		ORDER BY effective_date DESC
		LIMIT 1`, metalType, purity, onOrBefore)
	return scanRate(row)
}

// History lists rates for a metal, newest first.
func (s *RateStore) History(ctx context.Context, metalType string, limit int) ([]MetalRate, error) {
	if limit <= 0 {
		limit = 30
	}
	rows, err := s.pool.Query(ctx, selectRate+`
		WHERE metal_type = $1
		ORDER BY effective_date DESC, purity DESC
		LIMIT $2`, metalType, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rates []MetalRate
	for rows.Next() {
		rate, err := scanRate(rows)
		if err != nil {
			return nil, err
		}
		rates = append(rates, *rate)
	}
	return rates, rows.Err()
}
