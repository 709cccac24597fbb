package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFiscalYearLabel(t *testing.T) {
	cases := []struct {
		date  string
		month int
		want  string
	}{
		{"2025-04-01", 4, "2025-26"},
		{"2025-12-31", 4, "2025-26"},
		{"2026-03-31", 4, "2025-26"},
		{"2026-04-01", 4, "2026-27"},
		{"2025-01-15", 1, "2025-26"},
		{"2025-02-01", 0, "2024-25"}, // invalid start month falls back to April
		{"2099-05-01", 4, "2099-00"},
	}
	for _, tc := range cases {
		at, err := time.Parse("2006-01-02", tc.date)
		require.NoError(t, err)
		require.Equal(t, tc.want, FiscalYearLabel(at, tc.month), "date %s", tc.date)
	}
}

func TestFormatInvoiceNumber(t *testing.T) {
	require.Equal(t, "INV/2025-26/00001", FormatInvoiceNumber("INV", "2025-26", 1))
	require.Equal(t, "JWL/2025-26/00423", FormatInvoiceNumber("JWL", "2025-26", 423))
	require.Equal(t, "INV/2025-26/123456", FormatInvoiceNumber("INV", "2025-26", 123456))
}
