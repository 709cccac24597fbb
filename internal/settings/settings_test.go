package settings

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(KeyInvoicePrefix, "JWL"))
	require.Error(t, Validate(KeyInvoicePrefix, ""))
	require.Error(t, Validate(KeyInvoicePrefix, "WAYTOOLONGPREFIX"))

	require.NoError(t, Validate(KeyFiscalYearStartMonth, "4"))
	require.Error(t, Validate(KeyFiscalYearStartMonth, "13"))
	require.Error(t, Validate(KeyFiscalYearStartMonth, "april"))

	require.NoError(t, Validate(KeyStoreName, "Asha Jewellers"))
	require.Error(t, Validate("mystery_key", "x"))
}

func TestGetServesFromCache(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	// nil pool: a cache hit must answer without touching the database
	svc := NewService(nil, client)
	require.NoError(t, client.Set(context.Background(), "settings:"+KeyInvoicePrefix, "JWL", time.Minute).Err())

	val, err := svc.Get(context.Background(), KeyInvoicePrefix)
	require.NoError(t, err)
	require.Equal(t, "JWL", val)

	require.Equal(t, "JWL", svc.InvoicePrefix(context.Background()))
}
