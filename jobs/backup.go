package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/xuri/excelize/v2"
)

// NewBackupExportHandler writes an xlsx snapshot of products, customers
// and finalized invoices into the backup directory.
func NewBackupExportHandler(logger *slog.Logger, pool *pgxpool.Pool, dir string) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		f := excelize.NewFile()
		defer func() {
			_ = f.Close()
		}()

		if err := exportProducts(ctx, pool, f); err != nil {
			return err
		}
		if err := exportCustomers(ctx, pool, f); err != nil {
			return err
		}
		if err := exportInvoices(ctx, pool, f); err != nil {
			return err
		}
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return err
		}

		name := filepath.Join(dir, fmt.Sprintf("snapshot-%s.xlsx", time.Now().UTC().Format("20060102-150405")))
		if err := f.SaveAs(name); err != nil {
			return err
		}
		logger.Info("backup written", slog.String("file", name))
		return nil
	}
}

func writeSheet(f *excelize.File, sheet string, headers []string, rows [][]any) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	for rowIdx, row := range rows {
		for colIdx, v := range row {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func exportProducts(ctx context.Context, pool *pgxpool.Pool, f *excelize.File) error {
	rows, err := pool.Query(ctx, `
		SELECT sku, name, metal_type, stock_qty, selling_price::text
		FROM products WHERE deleted_at IS NULL ORDER BY sku`)
	if err != nil {
		return err
	}
	defer rows.Close()

	var data [][]any
	for rows.Next() {
		var sku, name, metal, price string
		var qty int64
		if err := rows.Scan(&sku, &name, &metal, &qty, &price); err != nil {
			return err
		}
		data = append(data, []any{sku, name, metal, qty, price})
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return writeSheet(f, "Products", []string{"SKU", "Name", "Metal", "Stock", "Price"}, data)
}

func exportCustomers(ctx context.Context, pool *pgxpool.Pool, f *excelize.File) error {
	rows, err := pool.Query(ctx, `
		SELECT name, phone, COALESCE(email, ''), total_purchases::text, loyalty_points
		FROM customers WHERE deleted_at IS NULL ORDER BY name`)
	if err != nil {
		return err
	}
	defer rows.Close()

	var data [][]any
	for rows.Next() {
		var name, phone, email, purchases string
		var points int64
		if err := rows.Scan(&name, &phone, &email, &purchases, &points); err != nil {
			return err
		}
		data = append(data, []any{name, phone, email, purchases, points})
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return writeSheet(f, "Customers", []string{"Name", "Phone", "Email", "Total Purchases", "Loyalty Points"}, data)
}

func exportInvoices(ctx context.Context, pool *pgxpool.Pool, f *excelize.File) error {
	rows, err := pool.Query(ctx, `
		SELECT invoice_number, invoice_date, total_amount::text, paid_amount::text,
			payment_status, finalization_status
		FROM invoices ORDER BY created_at`)
	if err != nil {
		return err
	}
	defer rows.Close()

	var data [][]any
	for rows.Next() {
		var number, total, paid, payStatus, finStatus string
		var date time.Time
		if err := rows.Scan(&number, &date, &total, &paid, &payStatus, &finStatus); err != nil {
			return err
		}
		data = append(data, []any{number, date.Format("2006-01-02"), total, paid, payStatus, finStatus})
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return writeSheet(f, "Invoices", []string{"Number", "Date", "Total", "Paid", "Payment", "Finalization"}, data)
}
