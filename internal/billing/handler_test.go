package billing

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jewelms/jewelms/internal/shared"
)

type fakePINVerifier struct {
	pin string
}

func (f fakePINVerifier) VerifyBillingPIN(_ context.Context, pin string) error {
	if f.pin == "" || pin == f.pin {
		return nil
	}
	return shared.ErrInvalidCredentials
}

func TestRequirePIN(t *testing.T) {
	h := &Handler{pins: fakePINVerifier{pin: "4321"}}

	r := httptest.NewRequest("POST", "/invoices/x/finalize", nil)
	require.ErrorIs(t, h.requirePIN(r), shared.ErrInvalidCredentials)

	r.Header.Set("X-Billing-PIN", "4321")
	require.NoError(t, h.requirePIN(r))

	// no PIN configured leaves the gate open
	open := &Handler{pins: fakePINVerifier{}}
	require.NoError(t, open.requirePIN(httptest.NewRequest("POST", "/invoices/x/finalize", nil)))
}
