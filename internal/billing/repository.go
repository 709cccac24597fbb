package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/jewelms/jewelms/internal/shared"
)

// Repository provides PostgreSQL backed persistence for billing.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ErrTxConflict marks an aborted transaction that is safe to retry:
// nothing committed. Wraps shared.ErrConflict for HTTP mapping.
var ErrTxConflict = fmt.Errorf("%w: transaction aborted by concurrent access", shared.ErrConflict)

type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// translatePgError maps driver errors onto the domain taxonomy.
func translatePgError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01": // serialization failure, deadlock
			return fmt.Errorf("%w: %s", ErrTxConflict, pgErr.Code)
		case "23505":
			if pgErr.ConstraintName == "invoices_invoice_number_key" ||
				pgErr.ConstraintName == "invoices_financial_year_serial_number_key" {
				return fmt.Errorf("%w: duplicate invoice number", ErrTxConflict)
			}
			return fmt.Errorf("%w: %s", shared.ErrConflict, pgErr.ConstraintName)
		case "23514":
			if pgErr.ConstraintName == "products_stock_qty_check" {
				return &shared.StockError{}
			}
		}
	}
	return err
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(ctx, &txRepo{tx: tx}); err != nil {
		return translatePgError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return translatePgError(err)
	}
	return nil
}

type txRepo struct {
	tx pgx.Tx
}

// NextSerial bumps the per-fiscal-year counter row. The upsert takes a
// row lock, serialising concurrent allocators for the same fiscal year.
func (t *txRepo) NextSerial(ctx context.Context, fiscalYear string) (int64, error) {
	var serial int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO invoice_serials (fiscal_year, last_serial)
		VALUES ($1, 1)
		ON CONFLICT (fiscal_year)
		DO UPDATE SET last_serial = invoice_serials.last_serial + 1
		RETURNING last_serial`, fiscalYear).Scan(&serial)
	if err != nil {
		return 0, err
	}
	return serial, nil
}

func (t *txRepo) InsertInvoice(ctx context.Context, inv *Invoice) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO invoices (
			id, invoice_number, invoice_prefix, financial_year, serial_number,
			customer_id, invoice_date, subtotal, discount_amount,
			cgst_amount, sgst_amount, igst_amount, total_amount, paid_amount,
			payment_status, payment_mode, finalization_status, notes,
			created_by, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, NULLIF($5, 0),
			NULLIF($6, '')::uuid, $7, $8, $9,
			$10, $11, $12, $13, $14,
			$15, $16, $17, $18,
			NULLIF($19, '')::uuid, $20, $21
		)`,
		inv.ID, inv.InvoiceNumber, inv.InvoicePrefix, inv.FinancialYear, inv.SerialNumber,
		inv.CustomerID, inv.InvoiceDate, inv.Subtotal, inv.DiscountAmount,
		inv.CGSTAmount, inv.SGSTAmount, inv.IGSTAmount, inv.TotalAmount, inv.PaidAmount,
		string(inv.PaymentStatus), inv.PaymentMode, string(inv.FinalizationStatus), inv.Notes,
		inv.CreatedBy, inv.CreatedAt, inv.UpdatedAt,
	)
	return err
}

func (t *txRepo) InsertInvoiceItem(ctx context.Context, item *InvoiceItem) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO invoice_items (
			id, invoice_id, product_id, product_name, hsn_code,
			quantity, unit_price, making_charges, stone_charges,
			wastage_pct, discount, cgst_rate, sgst_rate, igst_rate, total_price
		) VALUES (
			$1, $2, NULLIF($3, '')::uuid, $4, $5,
			$6, $7, $8, $9,
			$10, $11, $12, $13, $14, $15
		)`,
		item.ID, item.InvoiceID, item.ProductID, item.ProductName, item.HSNCode,
		item.Quantity, item.UnitPrice, item.MakingCharges, item.StoneCharges,
		item.WastagePct, item.Discount, item.CGSTRate, item.SGSTRate, item.IGSTRate, item.TotalPrice,
	)
	return err
}

func (t *txRepo) GetProductRef(ctx context.Context, productID string) (ProductRef, error) {
	ref := ProductRef{ID: productID}
	err := t.tx.QueryRow(ctx, `
		SELECT name, COALESCE(hsn_code, '')
		FROM products
		WHERE id = $1 AND deleted_at IS NULL`, productID).Scan(&ref.Name, &ref.HSNCode)
	if errors.Is(err, pgx.ErrNoRows) {
		return ProductRef{}, fmt.Errorf("product %s: %w", productID, shared.ErrNotFound)
	}
	if err != nil {
		return ProductRef{}, err
	}
	return ref, nil
}

// DecrementStock enforces the non-negative constraint inside the same
// transaction; a violation aborts the whole invoice creation.
func (t *txRepo) DecrementStock(ctx context.Context, productID string, qty int64) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE products
		SET stock_qty = stock_qty - $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL AND stock_qty >= $2`, productID, qty)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var name string
	var available int64
	err = t.tx.QueryRow(ctx, `
		SELECT name, stock_qty FROM products
		WHERE id = $1 AND deleted_at IS NULL`, productID).Scan(&name, &available)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("product %s: %w", productID, shared.ErrNotFound)
	}
	if err != nil {
		return err
	}
	return &shared.StockError{ProductID: productID, ProductName: name, Requested: qty, Available: available}
}

func (t *txRepo) InsertLedgerEntry(ctx context.Context, entry LedgerEntry) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO inventory_transactions (
			id, product_id, transaction_type, quantity,
			reference_id, reference_type, notes, created_by, created_at
		) VALUES (
			$1, $2, $3, $4,
			NULLIF($5, '')::uuid, $6, $7, NULLIF($8, '')::uuid, $9
		)`,
		entry.ID, entry.ProductID, entry.Type, entry.Quantity,
		entry.ReferenceID, entry.ReferenceType, entry.Notes, entry.CreatedBy, entry.CreatedAt,
	)
	return err
}

func (t *txRepo) BumpCustomerAggregates(ctx context.Context, customerID string, amount decimal.Decimal, points int64) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE customers
		SET total_purchases = total_purchases + $2,
		    loyalty_points = loyalty_points + $3,
		    updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`, customerID, amount, points)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("customer %s: %w", customerID, shared.ErrNotFound)
	}
	return nil
}

func (t *txRepo) GetInvoiceForUpdate(ctx context.Context, id string) (*Invoice, error) {
	row := t.tx.QueryRow(ctx, selectInvoice+` WHERE id = $1 FOR UPDATE`, id)
	return scanInvoice(row)
}

func (t *txRepo) ListItems(ctx context.Context, invoiceID string) ([]InvoiceItem, error) {
	return listInvoiceItems(ctx, t.tx, invoiceID)
}

// SealInvoice performs the compare-and-set draft -> finalized transition.
// Returns false when another transaction already sealed the invoice.
func (t *txRepo) SealInvoice(ctx context.Context, id, hash string) (bool, error) {
	tag, err := t.tx.Exec(ctx, `
		UPDATE invoices
		SET finalization_status = 'finalized', invoice_hash = $2, updated_at = NOW()
		WHERE id = $1 AND finalization_status = 'draft'`, id, hash)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (t *txRepo) InsertPayment(ctx context.Context, p *Payment) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO payments (
			id, invoice_id, amount, payment_mode, payment_date,
			reference_number, notes, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.InvoiceID, p.Amount, p.Mode, p.PaymentDate,
		p.ReferenceNumber, p.Notes, p.CreatedAt,
	)
	return err
}

func (t *txRepo) UpdatePaidState(ctx context.Context, id string, paid decimal.Decimal, status PaymentStatus) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE invoices
		SET paid_amount = $2, payment_status = $3, updated_at = NOW()
		WHERE id = $1`, id, paid, string(status))
	return err
}

func (t *txRepo) InsertNote(ctx context.Context, n *CorrectionNote) error {
	table := "credit_notes"
	if n.Kind == NoteKindDebit {
		table = "debit_notes"
	}
	_, err := t.tx.Exec(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, invoice_id, reason, amount, cgst, sgst, issued_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`, table),
		n.ID, n.InvoiceID, n.Reason, n.Amount, n.CGST, n.SGST, n.IssuedBy, n.CreatedAt,
	)
	return err
}

// UpdateDraftFields persists the draft-only update command. The WHERE
// clause re-checks the draft status so a concurrent finalize wins.
func (t *txRepo) UpdateDraftFields(ctx context.Context, inv *Invoice) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE invoices
		SET customer_id = NULLIF($2, '')::uuid,
		    invoice_date = $3,
		    subtotal = $4, discount_amount = $5,
		    cgst_amount = $6, sgst_amount = $7, igst_amount = $8,
		    total_amount = $9, payment_status = $10, payment_mode = $11,
		    notes = $12, updated_at = $13
		WHERE id = $1 AND finalization_status = 'draft'`,
		inv.ID, inv.CustomerID, inv.InvoiceDate,
		inv.Subtotal, inv.DiscountAmount,
		inv.CGSTAmount, inv.SGSTAmount, inv.IGSTAmount,
		inv.TotalAmount, string(inv.PaymentStatus), inv.PaymentMode,
		inv.Notes, inv.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrImmutable
	}
	return nil
}

// --- Read side ---

const selectInvoice = `
	SELECT id, invoice_number, COALESCE(invoice_prefix, 'INV'),
		COALESCE(financial_year, ''), COALESCE(serial_number, 0),
		COALESCE(customer_id::text, ''), invoice_date,
		subtotal, discount_amount, cgst_amount, sgst_amount, igst_amount,
		total_amount, paid_amount, payment_status, COALESCE(payment_mode, ''),
		COALESCE(finalization_status, 'draft'), COALESCE(invoice_hash, ''),
		COALESCE(notes, ''), COALESCE(created_by::text, ''),
		created_at, updated_at
	FROM invoices`

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	var payStatus, finStatus string
	err := row.Scan(
		&inv.ID, &inv.InvoiceNumber, &inv.InvoicePrefix,
		&inv.FinancialYear, &inv.SerialNumber,
		&inv.CustomerID, &inv.InvoiceDate,
		&inv.Subtotal, &inv.DiscountAmount, &inv.CGSTAmount, &inv.SGSTAmount, &inv.IGSTAmount,
		&inv.TotalAmount, &inv.PaidAmount, &payStatus, &inv.PaymentMode,
		&finStatus, &inv.InvoiceHash,
		&inv.Notes, &inv.CreatedBy,
		&inv.CreatedAt, &inv.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("invoice: %w", shared.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	inv.PaymentStatus = PaymentStatus(payStatus)
	inv.FinalizationStatus = FinalizationStatus(finStatus)
	return &inv, nil
}

// GetInvoice retrieves an invoice by ID.
func (r *Repository) GetInvoice(ctx context.Context, id string) (*Invoice, error) {
	row := r.pool.QueryRow(ctx, selectInvoice+` WHERE id = $1`, id)
	return scanInvoice(row)
}

// ListInvoices returns invoices with optional filtering plus the total
// match count for pagination.
func (r *Repository) ListInvoices(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int64, error) {
	where := ` WHERE 1=1`
	args := []any{}
	argNum := 1

	if req.PaymentStatus != "" {
		where += fmt.Sprintf(" AND payment_status = $%d", argNum)
		args = append(args, string(req.PaymentStatus))
		argNum++
	}
	if req.Finalization != "" {
		where += fmt.Sprintf(" AND finalization_status = $%d", argNum)
		args = append(args, string(req.Finalization))
		argNum++
	}
	if req.CustomerID != "" {
		where += fmt.Sprintf(" AND customer_id = $%d", argNum)
		args = append(args, req.CustomerID)
		argNum++
	}
	if req.Search != "" {
		where += fmt.Sprintf(" AND invoice_number ILIKE $%d", argNum)
		args = append(args, "%"+req.Search+"%")
		argNum++
	}
	if !req.From.IsZero() {
		where += fmt.Sprintf(" AND invoice_date >= $%d", argNum)
		args = append(args, req.From)
		argNum++
	}
	if !req.To.IsZero() {
		where += fmt.Sprintf(" AND invoice_date <= $%d", argNum)
		args = append(args, req.To)
		argNum++
	}

	var total int64
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM invoices"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := selectInvoice + where + " ORDER BY created_at DESC"
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

	var invoices []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, err
		}
		invoices = append(invoices, *inv)
	}
	return invoices, total, rows.Err()
}

func listInvoiceItems(ctx context.Context, q dbtx, invoiceID string) ([]InvoiceItem, error) {
	rows, err := q.Query(ctx, `
		SELECT id, invoice_id, COALESCE(product_id::text, ''), product_name,
			COALESCE(hsn_code, ''), quantity, unit_price, making_charges,
			stone_charges, wastage_pct, discount, cgst_rate, sgst_rate,
			igst_rate, total_price
		FROM invoice_items
		WHERE invoice_id = $1
		ORDER BY id`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []InvoiceItem
	for rows.Next() {
		var item InvoiceItem
		err := rows.Scan(
			&item.ID, &item.InvoiceID, &item.ProductID, &item.ProductName,
			&item.HSNCode, &item.Quantity, &item.UnitPrice, &item.MakingCharges,
			&item.StoneCharges, &item.WastagePct, &item.Discount, &item.CGSTRate,
			&item.SGSTRate, &item.IGSTRate, &item.TotalPrice,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// ListInvoiceItems returns line items for an invoice.
func (r *Repository) ListInvoiceItems(ctx context.Context, invoiceID string) ([]InvoiceItem, error) {
	return listInvoiceItems(ctx, r.pool, invoiceID)
}

// ListPayments returns payments for an invoice, newest first.
func (r *Repository) ListPayments(ctx context.Context, invoiceID string) ([]Payment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, invoice_id, amount, payment_mode, payment_date,
			COALESCE(reference_number, ''), COALESCE(notes, ''), created_at
		FROM payments
		WHERE invoice_id = $1
		ORDER BY payment_date DESC, created_at DESC`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []Payment
	for rows.Next() {
		var p Payment
		err := rows.Scan(&p.ID, &p.InvoiceID, &p.Amount, &p.Mode, &p.PaymentDate,
			&p.ReferenceNumber, &p.Notes, &p.CreatedAt)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// ListNotes returns credit or debit notes for an invoice with the issuer
// name joined in.
func (r *Repository) ListNotes(ctx context.Context, kind NoteKind, invoiceID string) ([]CorrectionNote, error) {
	table := "credit_notes"
	if kind == NoteKindDebit {
		table = "debit_notes"
	}
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT n.id, n.invoice_id, n.reason, n.amount, n.cgst, n.sgst,
			COALESCE(n.issued_by::text, ''), COALESCE(u.name, ''), n.created_at
		FROM %s n
		LEFT JOIN users u ON u.id = n.issued_by
		WHERE n.invoice_id = $1
		ORDER BY n.created_at DESC`, table), invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []CorrectionNote
	for rows.Next() {
		n := CorrectionNote{Kind: kind}
		err := rows.Scan(&n.ID, &n.InvoiceID, &n.Reason, &n.Amount, &n.CGST, &n.SGST,
			&n.IssuedBy, &n.IssuedByName, &n.CreatedAt)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}
