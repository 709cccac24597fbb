package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jewelms/jewelms/internal/shared"
)

// Repository provides PostgreSQL backed persistence for the stock ledger.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ApplyAdjustment posts a manual stock adjustment: one ledger row plus
// the stock update, in a single transaction. A negative delta that would
// drive stock below zero aborts with a StockError.
func (r *Repository) ApplyAdjustment(ctx context.Context, t *Transaction) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	tag, err := tx.Exec(ctx, `
		UPDATE products
		SET stock_qty = stock_qty + $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL AND stock_qty + $2 >= 0`,
		t.ProductID, t.Quantity)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var name string
		var available int64
		err := tx.QueryRow(ctx, `
			SELECT name, stock_qty FROM products
			WHERE id = $1 AND deleted_at IS NULL`, t.ProductID).Scan(&name, &available)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("product %s: %w", t.ProductID, shared.ErrNotFound)
		}
		if err != nil {
			return err
		}
		return &shared.StockError{ProductID: t.ProductID, ProductName: name, Requested: -t.Quantity, Available: available}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO inventory_transactions (
			id, product_id, transaction_type, quantity,
			reference_type, notes, created_by, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, '')::uuid, $8)`,
		t.ID, t.ProductID, t.Type, t.Quantity,
		t.ReferenceType, t.Notes, t.CreatedBy, t.CreatedAt)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ListRequest filters ledger listings.
type ListRequest struct {
	ProductID string
	Type      string
	Limit     int
	Offset    int
}

// List returns ledger entries, newest first, with product names joined.
func (r *Repository) List(ctx context.Context, req ListRequest) ([]Transaction, int64, error) {
	where := ` WHERE 1=1`
	args := []any{}
	argNum := 1

	if req.ProductID != "" {
		where += fmt.Sprintf(" AND t.product_id = $%d", argNum)
		args = append(args, req.ProductID)
		argNum++
	}
	if req.Type != "" {
		where += fmt.Sprintf(" AND t.transaction_type = $%d", argNum)
		args = append(args, req.Type)
		argNum++
	}

	var total int64
	if err := r.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM inventory_transactions t"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT t.id, COALESCE(t.product_id::text, ''), COALESCE(p.name, ''),
			t.transaction_type, t.quantity,
			COALESCE(t.reference_id::text, ''), COALESCE(t.reference_type, ''),
			COALESCE(t.notes, ''), COALESCE(t.created_by::text, ''), t.created_at
		FROM inventory_transactions t
		LEFT JOIN products p ON p.id = t.product_id` + where + `
		ORDER BY t.created_at DESC`
	if req.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, req.Limit)
		argNum++
	}
	if req.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argNum)
		args = append(args, req.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var t Transaction
		err := rows.Scan(&t.ID, &t.ProductID, &t.ProductName,
			&t.Type, &t.Quantity,
			&t.ReferenceID, &t.ReferenceType,
			&t.Notes, &t.CreatedBy, &t.CreatedAt)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, t)
	}
	return out, total, rows.Err()
}

// CheckIntegrity compares the ledger sum with the stored stock quantity
// for every live product and reports mismatches.
func (r *Repository) CheckIntegrity(ctx context.Context) ([]Discrepancy, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.name, COALESCE(SUM(t.quantity), 0) AS ledger_sum, p.stock_qty
		FROM products p
		LEFT JOIN inventory_transactions t ON t.product_id = p.id
		WHERE p.deleted_at IS NULL
		GROUP BY p.id, p.name, p.stock_qty
		HAVING COALESCE(SUM(t.quantity), 0) <> p.stock_qty
		ORDER BY p.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Discrepancy
	for rows.Next() {
		var d Discrepancy
		if err := rows.Scan(&d.ProductID, &d.ProductName, &d.LedgerSum, &d.StockQty); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ListLowStock returns live products at or below their minimum stock.
func (r *Repository) ListLowStock(ctx context.Context) ([]LowStockItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, COALESCE(sku, ''), stock_qty, min_stock
		FROM products
		WHERE deleted_at IS NULL AND is_active = TRUE AND stock_qty <= min_stock
		ORDER BY stock_qty ASC, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LowStockItem
	for rows.Next() {
		var item LowStockItem
		if err := rows.Scan(&item.ProductID, &item.ProductName, &item.SKU,
			&item.StockQty, &item.MinStock); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}
