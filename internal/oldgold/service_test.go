package oldgold

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jewelms/jewelms/internal/shared"
)

type fakeExchangeRepo struct {
	txs map[string]*Transaction
}

func newFakeExchangeRepo() *fakeExchangeRepo {
	return &fakeExchangeRepo{txs: make(map[string]*Transaction)}
}

func (f *fakeExchangeRepo) CreateTransaction(_ context.Context, tx *Transaction) error {
	cp := *tx
	f.txs[tx.ID] = &cp
	return nil
}

func (f *fakeExchangeRepo) GetTransaction(_ context.Context, id string) (*Transaction, error) {
	tx, ok := f.txs[id]
	if !ok {
		return nil, fmt.Errorf("old gold transaction: %w", shared.ErrNotFound)
	}
	cp := *tx
	return &cp, nil
}

func (f *fakeExchangeRepo) ListTransactions(_ context.Context, req ListRequest) ([]Transaction, int64, error) {
	var out []Transaction
	for _, tx := range f.txs {
		if req.CustomerID == "" || tx.CustomerID == req.CustomerID {
			out = append(out, *tx)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeExchangeRepo) UpdateTransaction(_ context.Context, tx *Transaction) error {
	if _, ok := f.txs[tx.ID]; !ok {
		return fmt.Errorf("old gold transaction: %w", shared.ErrNotFound)
	}
	cp := *tx
	f.txs[tx.ID] = &cp
	return nil
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newTestService() (*Service, *fakeExchangeRepo) {
	repo := newFakeExchangeRepo()
	svc := NewService(repo, nil)
	svc.now = func() time.Time {
		return time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	}
	return svc, repo
}

func TestExchangeValue(t *testing.T) {
	// 10g of 22K against a 7200/g fine rate: 10 * 7200 * 22/24
	value, err := ExchangeValue(dec("10"), dec("22"), dec("7200"))
	require.NoError(t, err)
	require.True(t, value.Equal(dec("66000")), "got %s", value)

	// 24K passes through at the full rate
	value, err = ExchangeValue(dec("5"), dec("24"), dec("7200"))
	require.NoError(t, err)
	require.True(t, value.Equal(dec("36000")))

	_, err = ExchangeValue(dec("0"), dec("22"), dec("7200"))
	require.Error(t, err)
	_, err = ExchangeValue(dec("10"), dec("22"), dec("0"))
	require.Error(t, err)
	_, err = ExchangeValue(dec("10"), dec("25"), dec("7200"))
	require.Error(t, err)
}

func TestCreateDerivesValue(t *testing.T) {
	svc, _ := newTestService()

	tx, err := svc.Create(context.Background(), CreateInput{
		Purity:      dec("22"),
		WeightGrams: dec("10"),
		RatePerGram: dec("7200"),
		ActorID:     "user-1",
	})
	require.NoError(t, err)
	require.True(t, tx.ExchangeValue.Equal(dec("66000")))
	require.Equal(t, ExchangeReceived, tx.Status)
	require.Equal(t, "gold", tx.MetalType)
}

func TestUpdateRecomputesValue(t *testing.T) {
	svc, _ := newTestService()

	tx, err := svc.Create(context.Background(), CreateInput{
		Purity:      dec("22"),
		WeightGrams: dec("10"),
		RatePerGram: dec("7200"),
	})
	require.NoError(t, err)

	weight := dec("12")
	tx, err = svc.UpdateTransaction(context.Background(), tx.ID, Update{
		WeightGrams: &weight,
	}, "user-1", "1.2.3.4")
	require.NoError(t, err)
	require.True(t, tx.ExchangeValue.Equal(dec("79200")), "got %s", tx.ExchangeValue)
}

func TestUpdateRejectsUnknownStatus(t *testing.T) {
	svc, _ := newTestService()

	tx, err := svc.Create(context.Background(), CreateInput{
		Purity:      dec("22"),
		WeightGrams: dec("10"),
		RatePerGram: dec("7200"),
	})
	require.NoError(t, err)

	bogus := ExchangeStatus("vaporised")
	_, err = svc.UpdateTransaction(context.Background(), tx.ID, Update{Status: &bogus}, "", "")
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)

	melted := ExchangeMelted
	tx, err = svc.UpdateTransaction(context.Background(), tx.ID, Update{Status: &melted}, "", "")
	require.NoError(t, err)
	require.Equal(t, ExchangeMelted, tx.Status)
}
