package procurement

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jewelms/jewelms/internal/platform/db"
	"github.com/jewelms/jewelms/internal/shared"
)

// Repository provides PostgreSQL backed persistence for procurement.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// --- suppliers ---

const selectSupplier = `
	SELECT id, name, COALESCE(phone, ''), COALESCE(email, ''),
		COALESCE(address, ''), COALESCE(gstin, ''), COALESCE(notes, ''),
		created_at, updated_at
	FROM suppliers`

func scanSupplier(row pgx.Row) (*Supplier, error) {
	var s Supplier
	err := row.Scan(&s.ID, &s.Name, &s.Phone, &s.Email,
		&s.Address, &s.GSTIN, &s.Notes, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("supplier: %w", shared.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateSupplier inserts a supplier.
func (r *Repository) CreateSupplier(ctx context.Context, s *Supplier) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO suppliers (id, name, phone, email, address, gstin, notes, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, NULLIF($6, ''), $7, $8, $9)`,
		s.ID, s.Name, s.Phone, s.Email, s.Address, s.GSTIN, s.Notes, s.CreatedAt, s.UpdatedAt)
	return err
}

// UpdateSupplier persists supplier fields.
func (r *Repository) UpdateSupplier(ctx context.Context, s *Supplier) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE suppliers
		SET name = $2, phone = NULLIF($3, ''), email = NULLIF($4, ''),
			address = $5, gstin = NULLIF($6, ''), notes = $7, updated_at = $8
		WHERE id = $1 AND deleted_at IS NULL`,
		s.ID, s.Name, s.Phone, s.Email, s.Address, s.GSTIN, s.Notes, s.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("supplier: %w", shared.ErrNotFound)
	}
	return nil
}

// GetSupplier fetches one live supplier.
func (r *Repository) GetSupplier(ctx context.Context, id string) (*Supplier, error) {
	return scanSupplier(r.pool.QueryRow(ctx, selectSupplier+` WHERE id = $1 AND deleted_at IS NULL`, id))
}

// ListSuppliers returns live suppliers ordered by name.
func (r *Repository) ListSuppliers(ctx context.Context) ([]Supplier, error) {
	rows, err := r.pool.Query(ctx, selectSupplier+` WHERE deleted_at IS NULL ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Supplier
	for rows.Next() {
		s, err := scanSupplier(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// SoftDeleteSupplier marks a supplier deleted.
func (r *Repository) SoftDeleteSupplier(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE suppliers SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("supplier: %w", shared.ErrNotFound)
	}
	return nil
}

// --- purchase orders ---

const selectPO = `
	SELECT po.id, po.po_number, COALESCE(po.supplier_id::text, ''), COALESCE(s.name, ''),
		po.status, po.order_date, COALESCE(po.expected_date, po.order_date),
		po.total_amount, COALESCE(po.notes, ''), COALESCE(po.created_by::text, ''),
		po.created_at, po.updated_at
	FROM purchase_orders po
	LEFT JOIN suppliers s ON s.id = po.supplier_id`

func scanPO(row pgx.Row) (*PurchaseOrder, error) {
	var po PurchaseOrder
	var status string
	err := row.Scan(&po.ID, &po.PONumber, &po.SupplierID, &po.SupplierName,
		&status, &po.OrderDate, &po.ExpectedDate,
		&po.TotalAmount, &po.Notes, &po.CreatedBy,
		&po.CreatedAt, &po.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("purchase order: %w", shared.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	po.Status = POStatus(status)
	return &po, nil
}

// CreatePO inserts a purchase order with its items in one transaction.
func (r *Repository) CreatePO(ctx context.Context, po *PurchaseOrder) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return insertPO(ctx, tx, po)
	})
}

func insertPO(ctx context.Context, tx pgx.Tx, po *PurchaseOrder) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO purchase_orders (
			id, po_number, supplier_id, status, order_date, expected_date,
			total_amount, notes, created_by, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, NULLIF($6, '0001-01-01'::date),
			$7, $8, NULLIF($9, '')::uuid, $10, $11
		)`,
		po.ID, po.PONumber, po.SupplierID, string(po.Status),
		po.OrderDate, po.ExpectedDate,
		po.TotalAmount, po.Notes, po.CreatedBy, po.CreatedAt, po.UpdatedAt)
	if err != nil {
		return err
	}

	for i := range po.Items {
		item := &po.Items[i]
		_, err = tx.Exec(ctx, `
			INSERT INTO purchase_order_items (id, po_id, product_id, quantity, received_qty, unit_cost)
			VALUES ($1, $2, $3, $4, 0, $5)`,
			item.ID, po.ID, item.ProductID, item.Quantity, item.UnitCost)
		if err != nil {
			return err
		}
	}
	return nil
}

// GetPO fetches a purchase order with its items.
func (r *Repository) GetPO(ctx context.Context, id string) (*PurchaseOrder, error) {
	po, err := scanPO(r.pool.QueryRow(ctx, selectPO+` WHERE po.id = $1`, id))
	if err != nil {
		return nil, err
	}
	items, err := r.listPOItems(ctx, id)
	if err != nil {
		return nil, err
	}
	po.Items = items
	return po, nil
}

func (r *Repository) listPOItems(ctx context.Context, poID string) ([]POItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT i.id, i.po_id, COALESCE(i.product_id::text, ''), COALESCE(p.name, ''),
			i.quantity, i.received_qty, i.unit_cost
		FROM purchase_order_items i
		LEFT JOIN products p ON p.id = i.product_id
		WHERE i.po_id = $1
		ORDER BY i.id`, poID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []POItem
	for rows.Next() {
		var item POItem
		err := rows.Scan(&item.ID, &item.POID, &item.ProductID, &item.ProductName,
			&item.Quantity, &item.ReceivedQty, &item.UnitCost)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// ListPOs returns purchase orders, newest first, optionally by status.
func (r *Repository) ListPOs(ctx context.Context, status POStatus) ([]PurchaseOrder, error) {
	query := selectPO
	args := []any{}
	if status != "" {
		query += ` WHERE po.status = $1`
		args = append(args, string(status))
	}
	query += ` ORDER BY po.created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PurchaseOrder
	for rows.Next() {
		po, err := scanPO(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *po)
	}
	return out, rows.Err()
}

// ReceiptLine is one received quantity against a PO item.
type ReceiptLine struct {
	ItemID   string
	Quantity int64
}

// Receive posts received quantities: PO item bumps, stock increments and
// purchase ledger entries, all in one transaction. Returns the PO status
// after the receipt.
func (r *Repository) Receive(ctx context.Context, poID string, lines []ReceiptLine, actorID string) (POStatus, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return "", err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var status string
	err = tx.QueryRow(ctx, `
		SELECT status FROM purchase_orders WHERE id = $1 FOR UPDATE`, poID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("purchase order: %w", shared.ErrNotFound)
	}
	if err != nil {
		return "", err
	}
	if POStatus(status) == POReceived || POStatus(status) == POCancelled {
		return "", fmt.Errorf("%w: purchase order is %s", shared.ErrConflict, status)
	}

	for _, line := range lines {
		var productID string
		tag := tx.QueryRow(ctx, `
			UPDATE purchase_order_items
			SET received_qty = received_qty + $2
			WHERE id = $1 AND po_id = $3 AND received_qty + $2 <= quantity
			RETURNING COALESCE(product_id::text, '')`, line.ItemID, line.Quantity, poID)
		if err := tag.Scan(&productID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return "", shared.Invalid("items", "receipt exceeds ordered quantity or unknown item")
			}
			return "", err
		}

		if _, err := tx.Exec(ctx, `
			UPDATE products SET stock_qty = stock_qty + $2, updated_at = NOW()
			WHERE id = $1`, productID, line.Quantity); err != nil {
			return "", err
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO inventory_transactions (
				id, product_id, transaction_type, quantity,
				reference_id, reference_type, created_by, created_at
			) VALUES ($1, $2, 'purchase', $3, $4, 'purchase_order', NULLIF($5, '')::uuid, NOW())`,
			uuid.NewString(), productID, line.Quantity, poID, actorID); err != nil {
			return "", err
		}
	}

	var outstanding int64
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM purchase_order_items
		WHERE po_id = $1 AND received_qty < quantity`, poID).Scan(&outstanding)
	if err != nil {
		return "", err
	}
	newStatus := POPartial
	if outstanding == 0 {
		newStatus = POReceived
	}
	if _, err := tx.Exec(ctx, `
		UPDATE purchase_orders SET status = $2, updated_at = NOW() WHERE id = $1`,
		poID, string(newStatus)); err != nil {
		return "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return newStatus, nil
}

// CancelPO cancels a PO that has received nothing yet.
func (r *Repository) CancelPO(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE purchase_orders SET status = 'cancelled', updated_at = NOW()
		WHERE id = $1 AND status = 'pending'`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: only pending purchase orders can be cancelled", shared.ErrConflict)
	}
	return nil
}

// NextPONumber allocates the next sequential PO number.
func (r *Repository) NextPONumber(ctx context.Context) (string, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(MAX(CAST(SUBSTRING(po_number FROM 'PO-(\d+)') AS bigint)), 0) + 1
		FROM purchase_orders`).Scan(&n)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("PO-%05d", n), nil
}
