package oldgold

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jewelms/jewelms/internal/shared"
)

// Repository provides PostgreSQL backed persistence for old-gold
// transactions.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const selectTransaction = `
	SELECT t.id, COALESCE(t.customer_id::text, ''),
		COALESCE(c.name, ''), COALESCE(c.phone, ''),
		COALESCE(t.invoice_id::text, ''),
		t.metal_type, t.purity, t.weight_grams, t.rate_per_gram,
		t.exchange_value, t.status, COALESCE(t.notes, ''),
		COALESCE(t.created_by::text, ''), t.created_at, t.updated_at
	FROM old_gold_transactions t
	LEFT JOIN customers c ON c.id = t.customer_id`

func scanTransaction(row pgx.Row) (*Transaction, error) {
	var tx Transaction
	var status string
	err := row.Scan(&tx.ID, &tx.CustomerID,
		&tx.CustomerName, &tx.CustomerPhone,
		&tx.InvoiceID,
		&tx.MetalType, &tx.Purity, &tx.WeightGrams, &tx.RatePerGram,
		&tx.ExchangeValue, &status, &tx.Notes,
		&tx.CreatedBy, &tx.CreatedAt, &tx.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("old gold transaction: %w", shared.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	tx.Status = ExchangeStatus(status)
	return &tx, nil
}

// CreateTransaction inserts a buyback.
func (r *Repository) CreateTransaction(ctx context.Context, tx *Transaction) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO old_gold_transactions (
			id, customer_id, invoice_id, metal_type, purity,
			weight_grams, rate_per_gram, exchange_value, status,
			notes, created_by, created_at, updated_at
		) VALUES (
			$1, NULLIF($2, '')::uuid, NULLIF($3, '')::uuid, $4, $5,
			$6, $7, $8, $9,
			$10, NULLIF($11, '')::uuid, $12, $13
		)`,
		tx.ID, tx.CustomerID, tx.InvoiceID, tx.MetalType, tx.Purity,
		tx.WeightGrams, tx.RatePerGram, tx.ExchangeValue, string(tx.Status),
		tx.Notes, tx.CreatedBy, tx.CreatedAt, tx.UpdatedAt)
	return err
}

// GetTransaction fetches one buyback with its customer.
func (r *Repository) GetTransaction(ctx context.Context, id string) (*Transaction, error) {
	return scanTransaction(r.pool.QueryRow(ctx, selectTransaction+` WHERE t.id = $1`, id))
}

// ListTransactions returns buybacks newest first, optionally for one
// customer, with the unpaged total.
func (r *Repository) ListTransactions(ctx context.Context, req ListRequest) ([]Transaction, int64, error) {
	where := ""
	args := []any{}
	if req.CustomerID != "" {
		where = ` WHERE t.customer_id = $1`
		args = append(args, req.CustomerID)
	}

	var total int64
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM old_gold_transactions t`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := selectTransaction + where + ` ORDER BY t.created_at DESC`
	query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *tx)
	}
	return out, total, rows.Err()
}

// UpdateTransaction persists edited figures and the recomputed value.
func (r *Repository) UpdateTransaction(ctx context.Context, tx *Transaction) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE old_gold_transactions
		SET invoice_id = NULLIF($2, '')::uuid, purity = $3, weight_grams = $4,
			rate_per_gram = $5, exchange_value = $6, status = $7,
			notes = $8, updated_at = $9
		WHERE id = $1`,
		tx.ID, tx.InvoiceID, tx.Purity, tx.WeightGrams,
		tx.RatePerGram, tx.ExchangeValue, string(tx.Status),
		tx.Notes, tx.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("old gold transaction: %w", shared.ErrNotFound)
	}
	return nil
}
