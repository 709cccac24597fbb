package billing

import (
	"os"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

// The DDL and the domain constants live in different files; this keeps
// them from drifting apart.
func TestInvoiceDDLAdmitsDomainStatuses(t *testing.T) {
	ddl, err := os.ReadFile("../../db/migrations/0005_billing.sql")
	require.NoError(t, err)

	paymentCheck := regexp.MustCompile(`CHECK \(payment_status IN \(([^)]+)\)\)`).FindSubmatch(ddl)
	require.NotNil(t, paymentCheck, "payment_status CHECK clause missing")
	for _, status := range []PaymentStatus{PaymentStatusUnpaid, PaymentStatusPartial, PaymentStatusPaid} {
		require.Contains(t, string(paymentCheck[1]), "'"+string(status)+"'")
	}
	require.Contains(t, string(ddl), `payment_status      TEXT NOT NULL DEFAULT 'unpaid'`)

	finalCheck := regexp.MustCompile(`CHECK \(finalization_status IN \(([^)]+)\)\)`).FindSubmatch(ddl)
	require.NotNil(t, finalCheck, "finalization_status CHECK clause missing")
	for _, status := range []FinalizationStatus{StatusDraft, StatusFinalized} {
		require.Contains(t, string(finalCheck[1]), "'"+string(status)+"'")
	}
}
