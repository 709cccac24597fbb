package oldgold

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeStatus tracks what happened to the metal taken over the
// counter. Received pieces sit in the scrap drawer until melted.
type ExchangeStatus string

const (
	ExchangeReceived ExchangeStatus = "received"
	ExchangeMelted   ExchangeStatus = "melted"
)

// ValidStatus reports whether s is a known exchange status.
func ValidStatus(s ExchangeStatus) bool {
	return s == ExchangeReceived || s == ExchangeMelted
}

// Transaction is one old-gold buyback. The exchange value is derived
// from the fine rate and caratage at intake time; linking an invoice
// records that the value offset a purchase.
type Transaction struct {
	ID            string
	CustomerID    string
	CustomerName  string
	CustomerPhone string
	InvoiceID     string
	MetalType     string
	Purity        decimal.Decimal
	WeightGrams   decimal.Decimal
	RatePerGram   decimal.Decimal
	ExchangeValue decimal.Decimal
	Status        ExchangeStatus
	Notes         string
	CreatedBy     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
