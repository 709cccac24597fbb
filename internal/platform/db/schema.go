package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RequiredTables lists every table the core transactional paths touch.
// Startup fails fast when one is missing instead of disabling features
// per request.
var RequiredTables = []string{
	"users",
	"categories",
	"products",
	"customers",
	"suppliers",
	"purchase_orders",
	"purchase_order_items",
	"invoices",
	"invoice_items",
	"payments",
	"credit_notes",
	"debit_notes",
	"inventory_transactions",
	"invoice_serials",
	"production_jobs",
	"bom_items",
	"metal_rates",
	"repairs",
	"old_gold_transactions",
	"settings",
	"audit_logs",
	"idempotency_keys",
}

// CheckSchema verifies that all required tables exist.
func CheckSchema(ctx context.Context, pool *pgxpool.Pool) error {
	var missing []string
	for _, table := range RequiredTables {
		var regclass *string
		if err := pool.QueryRow(ctx, "SELECT to_regclass($1)::text", table).Scan(&regclass); err != nil {
			return fmt.Errorf("platform/db: schema check %s: %w", table, err)
		}
		if regclass == nil {
			missing = append(missing, table)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("platform/db: missing required tables: %s", strings.Join(missing, ", "))
	}
	return nil
}
