package inventory

import "time"

// Transaction types recorded in the ledger.
const (
	TypeSale       = "sale"
	TypePurchase   = "purchase"
	TypeAdjustment = "adjustment"
	TypeReturn     = "return"
	TypeProduction = "production"
)

// Transaction is one append-only stock movement. Quantity is signed:
// positive adds stock, negative removes it.
type Transaction struct {
	ID            string
	ProductID     string
	ProductName   string
	Type          string
	Quantity      int64
	ReferenceID   string
	ReferenceType string
	Notes         string
	CreatedBy     string
	CreatedAt     time.Time
}

// Discrepancy is one product whose ledger sum disagrees with the stored
// stock quantity.
type Discrepancy struct {
	ProductID   string
	ProductName string
	LedgerSum   int64
	StockQty    int64
}

// LowStockItem is a product at or below its minimum stock level.
type LowStockItem struct {
	ProductID   string
	ProductName string
	SKU         string
	StockQty    int64
	MinStock    int64
}
