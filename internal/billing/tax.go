package billing

import (
	"github.com/shopspring/decimal"

	"github.com/jewelms/jewelms/internal/shared"
)

var hundred = decimal.NewFromInt(100)

// ItemTotals holds the computed amounts for a single line. Values stay
// unrounded; rounding happens once at the point of persistence.
type ItemTotals struct {
	WastageAmount decimal.Decimal
	Subtotal      decimal.Decimal
	CGST          decimal.Decimal
	SGST          decimal.Decimal
	IGST          decimal.Decimal
	Total         decimal.Decimal
}

// InvoiceTotals aggregates line totals minus a single invoice-level
// discount.
type InvoiceTotals struct {
	Subtotal       decimal.Decimal
	CGSTAmount     decimal.Decimal
	SGSTAmount     decimal.Decimal
	IGSTAmount     decimal.Decimal
	DiscountAmount decimal.Decimal
	TotalAmount    decimal.Decimal
}

// ValidateItemTax rejects malformed tax configurations. IGST (interstate)
// and CGST+SGST (intrastate) are mutually exclusive per item.
func ValidateItemTax(item InvoiceItem) error {
	if item.CGSTRate.Sign() < 0 || item.SGSTRate.Sign() < 0 || item.IGSTRate.Sign() < 0 {
		return shared.Invalid("tax_rate", "tax rates must not be negative")
	}
	if item.IGSTRate.Sign() > 0 && (item.CGSTRate.Sign() > 0 || item.SGSTRate.Sign() > 0) {
		return shared.Invalid("tax_rate", "igst cannot be combined with cgst/sgst")
	}
	return nil
}

// CalculateItemTotals computes wastage, line subtotal and taxes for one
// item. Pure function; no rounding.
func CalculateItemTotals(item InvoiceItem) ItemTotals {
	qty := decimal.NewFromInt(item.Quantity)
	wastage := item.UnitPrice.Mul(item.WastagePct).Div(hundred)
	perUnit := item.UnitPrice.Add(item.MakingCharges).Add(item.StoneCharges).Add(wastage)
	subtotal := perUnit.Mul(qty).Sub(item.Discount)

	var cgst, sgst, igst decimal.Decimal
	if item.IGSTRate.Sign() > 0 {
		igst = subtotal.Mul(item.IGSTRate).Div(hundred)
	} else {
		cgst = subtotal.Mul(item.CGSTRate).Div(hundred)
		sgst = subtotal.Mul(item.SGSTRate).Div(hundred)
	}

	return ItemTotals{
		WastageAmount: wastage,
		Subtotal:      subtotal,
		CGST:          cgst,
		SGST:          sgst,
		IGST:          igst,
		Total:         subtotal.Add(cgst).Add(sgst).Add(igst),
	}
}

// CalculateInvoiceTotals sums item subtotals and taxes, then applies the
// invoice-level discount once.
func CalculateInvoiceTotals(items []InvoiceItem, invoiceDiscount decimal.Decimal) InvoiceTotals {
	totals := InvoiceTotals{DiscountAmount: invoiceDiscount}
	for _, item := range items {
		line := CalculateItemTotals(item)
		totals.Subtotal = totals.Subtotal.Add(line.Subtotal)
		totals.CGSTAmount = totals.CGSTAmount.Add(line.CGST)
		totals.SGSTAmount = totals.SGSTAmount.Add(line.SGST)
		totals.IGSTAmount = totals.IGSTAmount.Add(line.IGST)
	}
	totals.TotalAmount = totals.Subtotal.
		Add(totals.CGSTAmount).
		Add(totals.SGSTAmount).
		Add(totals.IGSTAmount).
		Sub(invoiceDiscount)
	return totals
}

// RoundMoney applies the persistence rounding policy: half-up to two
// decimals, applied exactly once per stored amount.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
