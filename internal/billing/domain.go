package billing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jewelms/jewelms/internal/shared"
)

// PaymentStatus is derived purely from paid_amount vs total_amount.
type PaymentStatus string

const (
	PaymentStatusUnpaid  PaymentStatus = "unpaid"
	PaymentStatusPartial PaymentStatus = "partial"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// FinalizationStatus tracks the one-way draft -> finalized transition.
type FinalizationStatus string

const (
	StatusDraft     FinalizationStatus = "draft"
	StatusFinalized FinalizationStatus = "finalized"
)

// NoteKind selects between the two append-only correction tables.
type NoteKind string

const (
	NoteKindCredit NoteKind = "credit"
	NoteKindDebit  NoteKind = "debit"
)

// Invoice is the financial record produced by a sale. Once finalized,
// every field except PaidAmount/PaymentStatus/UpdatedAt is immutable.
type Invoice struct {
	ID                 string
	InvoiceNumber      string
	InvoicePrefix      string
	FinancialYear      string
	SerialNumber       int64
	CustomerID         string // empty = walk-in
	InvoiceDate        time.Time
	Subtotal           decimal.Decimal
	DiscountAmount     decimal.Decimal
	CGSTAmount         decimal.Decimal
	SGSTAmount         decimal.Decimal
	IGSTAmount         decimal.Decimal
	TotalAmount        decimal.Decimal
	PaidAmount         decimal.Decimal
	PaymentStatus      PaymentStatus
	PaymentMode        string
	FinalizationStatus FinalizationStatus
	InvoiceHash        string
	Notes              string
	CreatedBy          string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// OverpaidAmount reports any excess over the invoice total. Payments are
// recorded cumulatively and never capped; the surplus is surfaced instead.
func (inv Invoice) OverpaidAmount() decimal.Decimal {
	over := inv.PaidAmount.Sub(inv.TotalAmount)
	if over.Sign() <= 0 {
		return decimal.Zero
	}
	return over
}

// InvoiceItem is one line of an invoice. The product reference is
// nullable so invoices survive product deletion.
type InvoiceItem struct {
	ID            string
	InvoiceID     string
	ProductID     string // empty when the product was deleted
	ProductName   string
	HSNCode       string
	Quantity      int64
	UnitPrice     decimal.Decimal
	MakingCharges decimal.Decimal
	StoneCharges  decimal.Decimal
	WastagePct    decimal.Decimal
	Discount      decimal.Decimal
	CGSTRate      decimal.Decimal
	SGSTRate      decimal.Decimal
	IGSTRate      decimal.Decimal
	TotalPrice    decimal.Decimal
}

// Payment is an append-only record of money received against an invoice.
type Payment struct {
	ID              string
	InvoiceID       string
	Amount          decimal.Decimal
	Mode            string
	PaymentDate     time.Time
	ReferenceNumber string
	Notes           string
	CreatedAt       time.Time
}

// CorrectionNote is a credit or debit note issued against a finalized
// invoice. Rows are never updated or deleted.
type CorrectionNote struct {
	ID           string
	Kind         NoteKind
	InvoiceID    string
	Reason       string
	Amount       decimal.Decimal
	CGST         decimal.Decimal
	SGST         decimal.Decimal
	IssuedBy     string
	IssuedByName string
	CreatedAt    time.Time
}

// LedgerEntry is an append-only stock movement caused by this module.
type LedgerEntry struct {
	ID            string
	ProductID     string
	Type          string // sale | return
	Quantity      int64  // signed
	ReferenceID   string
	ReferenceType string
	Notes         string
	CreatedBy     string
	CreatedAt     time.Time
}

// ErrAlreadyFinalized is returned when finalize races or repeats; the
// stored digest is left untouched.
var ErrAlreadyFinalized = fmt.Errorf("%w: invoice already finalized", shared.ErrConflict)

// DerivePaymentStatus computes the payment state machine transition from
// the cumulative paid amount.
func DerivePaymentStatus(paid, total decimal.Decimal) PaymentStatus {
	switch {
	case paid.Sign() <= 0:
		return PaymentStatusUnpaid
	case paid.GreaterThanOrEqual(total):
		return PaymentStatusPaid
	default:
		return PaymentStatusPartial
	}
}
