package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/jewelms/jewelms/internal/inventory"
)

// NewLowStockScanHandler reports products at or below their minimum
// stock level. The report goes to the log; the dashboard reads the same
// query on demand.
func NewLowStockScanHandler(logger *slog.Logger, svc *inventory.Service) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		items, err := svc.LowStock(ctx)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			logger.Info("low stock scan clean")
			return nil
		}
		for _, item := range items {
			logger.Warn("low stock",
				slog.String("sku", item.SKU),
				slog.String("product", item.ProductName),
				slog.Int64("stock", item.StockQty),
				slog.Int64("min", item.MinStock))
		}
		return nil
	}
}

// NewIntegrityCheckHandler reconciles the stock ledger against stored
// quantities and logs every discrepancy.
func NewIntegrityCheckHandler(logger *slog.Logger, svc *inventory.Service) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		discrepancies, err := svc.CheckIntegrity(ctx)
		if err != nil {
			return err
		}
		if len(discrepancies) == 0 {
			logger.Info("stock ledger consistent")
			return nil
		}
		for _, d := range discrepancies {
			logger.Error("stock ledger discrepancy",
				slog.String("product", d.ProductName),
				slog.Int64("ledger_sum", d.LedgerSum),
				slog.Int64("stock_qty", d.StockQty))
		}
		return nil
	}
}
