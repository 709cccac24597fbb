package reports

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// inr groups digits the Indian way (12,34,567.89).
var inr = message.NewPrinter(language.MustParse("en-IN"))

// FormatINR renders an amount for display and spreadsheet export.
func FormatINR(d decimal.Decimal) string {
	f, _ := d.Round(2).Float64()
	return inr.Sprintf("₹%.2f", f)
}
