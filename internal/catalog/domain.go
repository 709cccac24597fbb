package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category groups products for browsing and reporting.
type Category struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Product is one sellable catalog entry. StockQty is only ever mutated
// by billing, inventory, procurement and production transactions.
type Product struct {
	ID            string
	SKU           string
	Barcode       string
	Name          string
	CategoryID    string
	HSNCode       string
	MetalType     string
	Purity        decimal.Decimal // caratage, 24K basis
	WeightGrams   decimal.Decimal
	BasePrice     decimal.Decimal
	SellingPrice  decimal.Decimal
	MakingCharges decimal.Decimal
	WastagePct    decimal.Decimal
	StoneCharges  decimal.Decimal
	StockQty      int64
	MinStock      int64
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
