package procurement

import (
	"time"

	"github.com/shopspring/decimal"
)

// Supplier is a vendor the shop buys stock or raw metal from.
type Supplier struct {
	ID        string
	Name      string
	Phone     string
	Email     string
	Address   string
	GSTIN     string
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PO status progresses pending -> partial -> received; cancel is only
// allowed while nothing has been received.
type POStatus string

const (
	POPending   POStatus = "pending"
	POPartial   POStatus = "partial"
	POReceived  POStatus = "received"
	POCancelled POStatus = "cancelled"
)

// PurchaseOrder is an order placed with a supplier.
type PurchaseOrder struct {
	ID           string
	PONumber     string
	SupplierID   string
	SupplierName string
	Status       POStatus
	OrderDate    time.Time
	ExpectedDate time.Time
	TotalAmount  decimal.Decimal
	Notes        string
	CreatedBy    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Items        []POItem
}

// POItem is one ordered line. ReceivedQty accumulates across partial
// receipts and never exceeds Quantity.
type POItem struct {
	ID          string
	POID        string
	ProductID   string
	ProductName string
	Quantity    int64
	ReceivedQty int64
	UnitCost    decimal.Decimal
}
