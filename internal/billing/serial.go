package billing

import (
	"fmt"
	"time"
)

// DefaultFiscalYearStartMonth is April, the Indian financial year start.
const DefaultFiscalYearStartMonth = 4

// FiscalYearLabel derives the fiscal-year label for a date, e.g.
// "2025-26" for any date from April 2025 through March 2026 with the
// default start month.
func FiscalYearLabel(at time.Time, startMonth int) string {
	if startMonth < 1 || startMonth > 12 {
		startMonth = DefaultFiscalYearStartMonth
	}
	year := at.Year()
	if int(at.Month()) < startMonth {
		year--
	}
	return fmt.Sprintf("%d-%02d", year, (year+1)%100)
}

// FormatInvoiceNumber renders PREFIX/FISCALYEAR/SERIAL with the serial
// zero-padded to five digits.
func FormatInvoiceNumber(prefix, fiscalYear string, serial int64) string {
	return fmt.Sprintf("%s/%s/%05d", prefix, fiscalYear, serial)
}
