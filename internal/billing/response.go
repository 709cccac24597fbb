package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

type invoiceResponse struct {
	ID                 string          `json:"id"`
	InvoiceNumber      string          `json:"invoice_number"`
	FinancialYear      string          `json:"financial_year"`
	SerialNumber       int64           `json:"serial_number,omitempty"`
	CustomerID         string          `json:"customer_id,omitempty"`
	InvoiceDate        string          `json:"invoice_date"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	DiscountAmount     decimal.Decimal `json:"discount_amount"`
	CGSTAmount         decimal.Decimal `json:"cgst_amount"`
	SGSTAmount         decimal.Decimal `json:"sgst_amount"`
	IGSTAmount         decimal.Decimal `json:"igst_amount"`
	TotalAmount        decimal.Decimal `json:"total_amount"`
	PaidAmount         decimal.Decimal `json:"paid_amount"`
	OverpaidAmount     decimal.Decimal `json:"overpaid_amount"`
	PaymentStatus      PaymentStatus   `json:"payment_status"`
	PaymentMode        string          `json:"payment_mode,omitempty"`
	FinalizationStatus string          `json:"finalization_status"`
	InvoiceHash        string          `json:"invoice_hash,omitempty"`
	Notes              string          `json:"notes,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

func invoiceResponseFrom(inv Invoice) invoiceResponse {
	return invoiceResponse{
		ID:                 inv.ID,
		InvoiceNumber:      inv.InvoiceNumber,
		FinancialYear:      inv.FinancialYear,
		SerialNumber:       inv.SerialNumber,
		CustomerID:         inv.CustomerID,
		InvoiceDate:        inv.InvoiceDate.Format("2006-01-02"),
		Subtotal:           inv.Subtotal,
		DiscountAmount:     inv.DiscountAmount,
		CGSTAmount:         inv.CGSTAmount,
		SGSTAmount:         inv.SGSTAmount,
		IGSTAmount:         inv.IGSTAmount,
		TotalAmount:        inv.TotalAmount,
		PaidAmount:         inv.PaidAmount,
		OverpaidAmount:     inv.OverpaidAmount(),
		PaymentStatus:      inv.PaymentStatus,
		PaymentMode:        inv.PaymentMode,
		FinalizationStatus: string(inv.FinalizationStatus),
		InvoiceHash:        inv.InvoiceHash,
		Notes:              inv.Notes,
		CreatedAt:          inv.CreatedAt,
		UpdatedAt:          inv.UpdatedAt,
	}
}

type itemResponse struct {
	ID            string          `json:"id"`
	ProductID     string          `json:"product_id,omitempty"`
	ProductName   string          `json:"product_name"`
	HSNCode       string          `json:"hsn_code,omitempty"`
	Quantity      int64           `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	MakingCharges decimal.Decimal `json:"making_charges"`
	StoneCharges  decimal.Decimal `json:"stone_charges"`
	WastagePct    decimal.Decimal `json:"wastage_pct"`
	Discount      decimal.Decimal `json:"discount"`
	CGSTRate      decimal.Decimal `json:"cgst_rate"`
	SGSTRate      decimal.Decimal `json:"sgst_rate"`
	IGSTRate      decimal.Decimal `json:"igst_rate"`
	TotalPrice    decimal.Decimal `json:"total_price"`
}

type paymentResponse struct {
	ID              string          `json:"id"`
	Amount          decimal.Decimal `json:"amount"`
	Mode            string          `json:"payment_mode"`
	PaymentDate     string          `json:"payment_date"`
	ReferenceNumber string          `json:"reference_number,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

type noteResponse struct {
	ID           string          `json:"id"`
	Kind         string          `json:"kind"`
	InvoiceID    string          `json:"invoice_id"`
	Reason       string          `json:"reason"`
	Amount       decimal.Decimal `json:"amount"`
	CGST         decimal.Decimal `json:"cgst"`
	SGST         decimal.Decimal `json:"sgst"`
	IssuedBy     string          `json:"issued_by,omitempty"`
	IssuedByName string          `json:"issued_by_name,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

func noteResponseFrom(n CorrectionNote) noteResponse {
	return noteResponse{
		ID:           n.ID,
		Kind:         string(n.Kind),
		InvoiceID:    n.InvoiceID,
		Reason:       n.Reason,
		Amount:       n.Amount,
		CGST:         n.CGST,
		SGST:         n.SGST,
		IssuedBy:     n.IssuedBy,
		IssuedByName: n.IssuedByName,
		CreatedAt:    n.CreatedAt,
	}
}

type detailResponse struct {
	Invoice        invoiceResponse   `json:"invoice"`
	Items          []itemResponse    `json:"items"`
	Payments       []paymentResponse `json:"payments"`
	CreditNotes    []noteResponse    `json:"credit_notes"`
	DebitNotes     []noteResponse    `json:"debit_notes"`
	CorrectedTotal decimal.Decimal   `json:"corrected_total"`
}

func detailResponseFrom(d InvoiceDetail) detailResponse {
	out := detailResponse{
		Invoice:        invoiceResponseFrom(d.Invoice),
		Items:          make([]itemResponse, 0, len(d.Items)),
		Payments:       make([]paymentResponse, 0, len(d.Payments)),
		CreditNotes:    make([]noteResponse, 0, len(d.CreditNotes)),
		DebitNotes:     make([]noteResponse, 0, len(d.DebitNotes)),
		CorrectedTotal: d.CorrectedTotal,
	}
	for _, item := range d.Items {
		out.Items = append(out.Items, itemResponse{
			ID:            item.ID,
			ProductID:     item.ProductID,
			ProductName:   item.ProductName,
			HSNCode:       item.HSNCode,
			Quantity:      item.Quantity,
			UnitPrice:     item.UnitPrice,
			MakingCharges: item.MakingCharges,
			StoneCharges:  item.StoneCharges,
			WastagePct:    item.WastagePct,
			Discount:      item.Discount,
			CGSTRate:      item.CGSTRate,
			SGSTRate:      item.SGSTRate,
			IGSTRate:      item.IGSTRate,
			TotalPrice:    item.TotalPrice,
		})
	}
	for _, p := range d.Payments {
		out.Payments = append(out.Payments, paymentResponse{
			ID:              p.ID,
			Amount:          p.Amount,
			Mode:            p.Mode,
			PaymentDate:     p.PaymentDate.Format("2006-01-02"),
			ReferenceNumber: p.ReferenceNumber,
			Notes:           p.Notes,
			CreatedAt:       p.CreatedAt,
		})
	}
	for _, n := range d.CreditNotes {
		out.CreditNotes = append(out.CreditNotes, noteResponseFrom(n))
	}
	for _, n := range d.DebitNotes {
		out.DebitNotes = append(out.DebitNotes, noteResponseFrom(n))
	}
	return out
}
