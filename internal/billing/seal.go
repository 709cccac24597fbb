package billing

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// The seal payload is the canonical subset of an invoice an auditor can
// recompute from the persisted rows. Field order is fixed by the struct
// definitions; amounts are serialised at two decimals.
type sealItem struct {
	ProductID  *string `json:"product_id"`
	Quantity   int64   `json:"quantity"`
	UnitPrice  string  `json:"unit_price"`
	TotalPrice string  `json:"total_price"`
}

type sealPayload struct {
	InvoiceNumber string     `json:"invoice_number"`
	CustomerID    *string    `json:"customer_id"`
	InvoiceDate   string     `json:"invoice_date"`
	TotalAmount   string     `json:"total_amount"`
	CGSTAmount    string     `json:"cgst_amount"`
	SGSTAmount    string     `json:"sgst_amount"`
	Items         []sealItem `json:"items"`
}

// ComputeInvoiceHash produces the tamper-evidence digest stored at
// finalization: sha256 over the canonical JSON payload.
func ComputeInvoiceHash(inv Invoice, items []InvoiceItem) string {
	payload := sealPayload{
		InvoiceNumber: inv.InvoiceNumber,
		CustomerID:    nullable(inv.CustomerID),
		InvoiceDate:   inv.InvoiceDate.Format("2006-01-02"),
		TotalAmount:   inv.TotalAmount.StringFixed(2),
		CGSTAmount:    inv.CGSTAmount.StringFixed(2),
		SGSTAmount:    inv.SGSTAmount.StringFixed(2),
		Items:         make([]sealItem, 0, len(items)),
	}
	for _, item := range items {
		payload.Items = append(payload.Items, sealItem{
			ProductID:  nullable(item.ProductID),
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice.StringFixed(2),
			TotalPrice: item.TotalPrice.StringFixed(2),
		})
	}

	data, _ := json.Marshal(payload)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
