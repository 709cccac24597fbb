package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func sealFixture() (Invoice, []InvoiceItem) {
	date, _ := time.Parse("2006-01-02", "2025-06-15")
	inv := Invoice{
		InvoiceNumber: "INV/2025-26/00042",
		CustomerID:    "8e9d0a6a-7c4f-4f1e-9f3a-0d1c2b3a4e5f",
		InvoiceDate:   date,
		TotalAmount:   dec("11021"),
		CGSTAmount:    dec("160.5"),
		SGSTAmount:    dec("160.5"),
	}
	items := []InvoiceItem{{
		ProductID:  "11111111-2222-3333-4444-555555555555",
		Quantity:   1,
		UnitPrice:  dec("10000"),
		TotalPrice: dec("11021"),
	}}
	return inv, items
}

func TestComputeInvoiceHashDeterministic(t *testing.T) {
	inv, items := sealFixture()
	first := ComputeInvoiceHash(inv, items)
	second := ComputeInvoiceHash(inv, items)
	require.Equal(t, first, second)
	require.Len(t, first, 64)
}

func TestComputeInvoiceHashDetectsTampering(t *testing.T) {
	inv, items := sealFixture()
	base := ComputeInvoiceHash(inv, items)

	changed := inv
	changed.TotalAmount = dec("11022")
	require.NotEqual(t, base, ComputeInvoiceHash(changed, items))

	tampered := make([]InvoiceItem, len(items))
	copy(tampered, items)
	tampered[0].Quantity = 2
	require.NotEqual(t, base, ComputeInvoiceHash(inv, tampered))
}

func TestComputeInvoiceHashScaleInsensitive(t *testing.T) {
	inv, items := sealFixture()
	base := ComputeInvoiceHash(inv, items)

	// 11021 vs 11021.00 must seal identically; amounts are canonicalised
	// to two decimals before hashing.
	rescaled := inv
	rescaled.TotalAmount = dec("11021.00")
	require.Equal(t, base, ComputeInvoiceHash(rescaled, items))
}

func TestComputeInvoiceHashWalkInCustomer(t *testing.T) {
	inv, items := sealFixture()
	inv.CustomerID = ""
	require.Len(t, ComputeInvoiceHash(inv, items), 64)
}
