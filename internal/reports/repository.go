package reports

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repository runs the aggregate report queries.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GSTSummary aggregates tax collected over a period. Only finalized
// invoices count; credit notes reduce the liability and debit notes
// increase it.
type GSTSummary struct {
	From          time.Time
	To            time.Time
	InvoiceCount  int64
	TaxableAmount decimal.Decimal
	CGST          decimal.Decimal
	SGST          decimal.Decimal
	IGST          decimal.Decimal
	CreditCGST    decimal.Decimal
	CreditSGST    decimal.Decimal
	DebitCGST     decimal.Decimal
	DebitSGST     decimal.Decimal
	NetCGST       decimal.Decimal
	NetSGST       decimal.Decimal
	NetIGST       decimal.Decimal
	NetTax        decimal.Decimal
}

// GSTSummary computes the tax report for [from, to] inclusive.
func (r *Repository) GSTSummary(ctx context.Context, from, to time.Time) (*GSTSummary, error) {
	s := &GSTSummary{From: from, To: to}
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(subtotal - discount_amount), 0),
			COALESCE(SUM(cgst_amount), 0),
			COALESCE(SUM(sgst_amount), 0),
			COALESCE(SUM(igst_amount), 0)
		FROM invoices
		WHERE finalization_status = 'finalized'
		  AND invoice_date >= $1 AND invoice_date <= $2`, from, to).
		Scan(&s.InvoiceCount, &s.TaxableAmount, &s.CGST, &s.SGST, &s.IGST)
	if err != nil {
		return nil, err
	}

	err = r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(n.cgst), 0), COALESCE(SUM(n.sgst), 0)
		FROM credit_notes n
		JOIN invoices i ON i.id = n.invoice_id
		WHERE i.invoice_date >= $1 AND i.invoice_date <= $2`, from, to).
		Scan(&s.CreditCGST, &s.CreditSGST)
	if err != nil {
		return nil, err
	}
	err = r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(n.cgst), 0), COALESCE(SUM(n.sgst), 0)
		FROM debit_notes n
		JOIN invoices i ON i.id = n.invoice_id
		WHERE i.invoice_date >= $1 AND i.invoice_date <= $2`, from, to).
		Scan(&s.DebitCGST, &s.DebitSGST)
	if err != nil {
		return nil, err
	}

	s.NetCGST = s.CGST.Sub(s.CreditCGST).Add(s.DebitCGST)
	s.NetSGST = s.SGST.Sub(s.CreditSGST).Add(s.DebitSGST)
	s.NetIGST = s.IGST
	s.NetTax = s.NetCGST.Add(s.NetSGST).Add(s.NetIGST)
	return s, nil
}

// DailySales is revenue for one calendar day.
type DailySales struct {
	Date         time.Time
	InvoiceCount int64
	Revenue      decimal.Decimal
	TaxCollected decimal.Decimal
	Collected    decimal.Decimal
}

// SalesByDay returns per-day totals over finalized invoices, oldest
// first.
func (r *Repository) SalesByDay(ctx context.Context, from, to time.Time) ([]DailySales, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT invoice_date, COUNT(*),
			COALESCE(SUM(total_amount), 0),
			COALESCE(SUM(cgst_amount + sgst_amount + igst_amount), 0),
			COALESCE(SUM(paid_amount), 0)
		FROM invoices
		WHERE finalization_status = 'finalized'
		  AND invoice_date >= $1 AND invoice_date <= $2
		GROUP BY invoice_date
		ORDER BY invoice_date`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DailySales
	for rows.Next() {
		var d DailySales
		if err := rows.Scan(&d.Date, &d.InvoiceCount, &d.Revenue, &d.TaxCollected, &d.Collected); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// CategoryValuation is the stock value held in one category.
type CategoryValuation struct {
	CategoryID   string
	CategoryName string
	ProductCount int64
	Units        int64
	Value        decimal.Decimal
}

// StockValuation values live stock at selling price, grouped by
// category. Uncategorized products roll into one bucket.
func (r *Repository) StockValuation(ctx context.Context) ([]CategoryValuation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT COALESCE(c.id::text, ''), COALESCE(c.name, 'Uncategorized'),
			COUNT(*), COALESCE(SUM(p.stock_qty), 0),
			COALESCE(SUM(p.stock_qty * p.selling_price), 0)
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.deleted_at IS NULL AND p.is_active
		GROUP BY c.id, c.name
		ORDER BY COALESCE(c.name, 'Uncategorized')`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CategoryValuation
	for rows.Next() {
		var v CategoryValuation
		if err := rows.Scan(&v.CategoryID, &v.CategoryName, &v.ProductCount, &v.Units, &v.Value); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
