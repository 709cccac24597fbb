package billing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestCalculateItemTotalsIntrastate(t *testing.T) {
	item := InvoiceItem{
		Quantity:      1,
		UnitPrice:     dec("10000"),
		MakingCharges: dec("500"),
		StoneCharges:  dec("200"),
		CGSTRate:      dec("1.5"),
		SGSTRate:      dec("1.5"),
	}
	got := CalculateItemTotals(item)
	require.True(t, got.Subtotal.Equal(dec("10700")), "subtotal %s", got.Subtotal)
	require.True(t, got.CGST.Equal(dec("160.5")), "cgst %s", got.CGST)
	require.True(t, got.SGST.Equal(dec("160.5")), "sgst %s", got.SGST)
	require.True(t, got.IGST.IsZero())
	require.True(t, got.Total.Equal(dec("11021")), "total %s", got.Total)
}

func TestCalculateItemTotalsWithWastage(t *testing.T) {
	item := InvoiceItem{
		Quantity:      1,
		UnitPrice:     dec("10000"),
		MakingCharges: dec("500"),
		StoneCharges:  dec("200"),
		WastagePct:    dec("10"),
		CGSTRate:      dec("1.5"),
		SGSTRate:      dec("1.5"),
	}
	got := CalculateItemTotals(item)
	require.True(t, got.WastageAmount.Equal(dec("1000")), "wastage %s", got.WastageAmount)
	require.True(t, got.Subtotal.Equal(dec("11700")), "subtotal %s", got.Subtotal)
	require.True(t, got.CGST.Equal(dec("175.5")), "cgst %s", got.CGST)
	require.True(t, got.SGST.Equal(dec("175.5")), "sgst %s", got.SGST)
	require.True(t, got.Total.Equal(dec("12051")), "total %s", got.Total)
}

func TestCalculateItemTotalsInterstate(t *testing.T) {
	item := InvoiceItem{
		Quantity:      1,
		UnitPrice:     dec("10000"),
		MakingCharges: dec("500"),
		StoneCharges:  dec("200"),
		IGSTRate:      dec("3"),
	}
	got := CalculateItemTotals(item)
	require.True(t, got.Subtotal.Equal(dec("10700")), "subtotal %s", got.Subtotal)
	require.True(t, got.IGST.Equal(dec("321")), "igst %s", got.IGST)
	require.True(t, got.CGST.IsZero())
	require.True(t, got.SGST.IsZero())
	require.True(t, got.Total.Equal(dec("11021")), "total %s", got.Total)
}

func TestCalculateItemTotalsQuantityAndLineDiscount(t *testing.T) {
	item := InvoiceItem{
		Quantity:  3,
		UnitPrice: dec("1000"),
		Discount:  dec("100"),
		CGSTRate:  dec("1.5"),
		SGSTRate:  dec("1.5"),
	}
	got := CalculateItemTotals(item)
	require.True(t, got.Subtotal.Equal(dec("2900")), "subtotal %s", got.Subtotal)
	require.True(t, got.CGST.Equal(dec("43.5")), "cgst %s", got.CGST)
}

func TestCalculateInvoiceTotalsWithInvoiceDiscount(t *testing.T) {
	items := []InvoiceItem{{
		Quantity:  1,
		UnitPrice: dec("10000"),
		CGSTRate:  dec("1.5"),
		SGSTRate:  dec("1.5"),
	}}
	got := CalculateInvoiceTotals(items, dec("500"))
	require.True(t, got.Subtotal.Equal(dec("10000")), "subtotal %s", got.Subtotal)
	require.True(t, got.CGSTAmount.Equal(dec("150")), "cgst %s", got.CGSTAmount)
	require.True(t, got.SGSTAmount.Equal(dec("150")), "sgst %s", got.SGSTAmount)
	require.True(t, got.TotalAmount.Equal(dec("9800")), "total %s", got.TotalAmount)
}

func TestCalculateInvoiceTotalsSumsLines(t *testing.T) {
	items := []InvoiceItem{
		{Quantity: 1, UnitPrice: dec("5000"), CGSTRate: dec("1.5"), SGSTRate: dec("1.5")},
		{Quantity: 2, UnitPrice: dec("2500"), IGSTRate: dec("3")},
	}
	got := CalculateInvoiceTotals(items, decimal.Zero)
	require.True(t, got.Subtotal.Equal(dec("10000")), "subtotal %s", got.Subtotal)
	require.True(t, got.CGSTAmount.Equal(dec("75")))
	require.True(t, got.SGSTAmount.Equal(dec("75")))
	require.True(t, got.IGSTAmount.Equal(dec("150")))
	require.True(t, got.TotalAmount.Equal(dec("10300")), "total %s", got.TotalAmount)
}

func TestValidateItemTax(t *testing.T) {
	require.NoError(t, ValidateItemTax(InvoiceItem{CGSTRate: dec("1.5"), SGSTRate: dec("1.5")}))
	require.NoError(t, ValidateItemTax(InvoiceItem{IGSTRate: dec("3")}))
	require.Error(t, ValidateItemTax(InvoiceItem{CGSTRate: dec("-1")}))
	require.Error(t, ValidateItemTax(InvoiceItem{IGSTRate: dec("3"), CGSTRate: dec("1.5")}))
	require.Error(t, ValidateItemTax(InvoiceItem{IGSTRate: dec("3"), SGSTRate: dec("1.5")}))
}

func TestRoundMoneyHalfUp(t *testing.T) {
	require.Equal(t, "160.50", RoundMoney(dec("160.5")).StringFixed(2))
	require.Equal(t, "10.13", RoundMoney(dec("10.125")).StringFixed(2))
	require.Equal(t, "10.12", RoundMoney(dec("10.124")).StringFixed(2))
}

func TestDerivePaymentStatus(t *testing.T) {
	total := dec("1000")
	require.Equal(t, PaymentStatusUnpaid, DerivePaymentStatus(decimal.Zero, total))
	require.Equal(t, PaymentStatusPartial, DerivePaymentStatus(dec("400"), total))
	require.Equal(t, PaymentStatusPaid, DerivePaymentStatus(dec("1000"), total))
	require.Equal(t, PaymentStatusPaid, DerivePaymentStatus(dec("1200"), total))
}

func TestOverpaidAmount(t *testing.T) {
	inv := Invoice{TotalAmount: dec("1000"), PaidAmount: dec("1200")}
	require.True(t, inv.OverpaidAmount().Equal(dec("200")))
	inv.PaidAmount = dec("800")
	require.True(t, inv.OverpaidAmount().IsZero())
}
