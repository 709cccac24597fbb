package inventory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jewelms/jewelms/internal/shared"
)

type fakeLedger struct {
	stock        map[string]int64
	transactions []Transaction
}

func (f *fakeLedger) ApplyAdjustment(ctx context.Context, t *Transaction) error {
	current, ok := f.stock[t.ProductID]
	if !ok {
		return shared.ErrNotFound
	}
	if current+t.Quantity < 0 {
		return &shared.StockError{ProductID: t.ProductID, Requested: -t.Quantity, Available: current}
	}
	f.stock[t.ProductID] = current + t.Quantity
	f.transactions = append(f.transactions, *t)
	return nil
}

func (f *fakeLedger) List(ctx context.Context, req ListRequest) ([]Transaction, int64, error) {
	return f.transactions, int64(len(f.transactions)), nil
}

func (f *fakeLedger) CheckIntegrity(ctx context.Context) ([]Discrepancy, error) {
	return nil, nil
}

func (f *fakeLedger) ListLowStock(ctx context.Context) ([]LowStockItem, error) {
	return nil, nil
}

func TestAdjustAppliesDelta(t *testing.T) {
	repo := &fakeLedger{stock: map[string]int64{"p1": 5}}
	svc := NewService(repo, nil)

	tr, err := svc.Adjust(context.Background(), AdjustInput{
		ProductID: "p1", Delta: -3, Reason: "damaged pieces",
	})
	require.NoError(t, err)
	require.Equal(t, TypeAdjustment, tr.Type)
	require.Equal(t, int64(-3), tr.Quantity)
	require.Equal(t, int64(2), repo.stock["p1"])
}

func TestAdjustRejectsNegativeStock(t *testing.T) {
	repo := &fakeLedger{stock: map[string]int64{"p1": 2}}
	svc := NewService(repo, nil)

	_, err := svc.Adjust(context.Background(), AdjustInput{
		ProductID: "p1", Delta: -5, Reason: "oops",
	})
	var stockErr *shared.StockError
	require.ErrorAs(t, err, &stockErr)
	require.Equal(t, int64(2), repo.stock["p1"])
	require.Empty(t, repo.transactions)
}

func TestAdjustValidation(t *testing.T) {
	svc := NewService(&fakeLedger{stock: map[string]int64{}}, nil)
	ctx := context.Background()

	_, err := svc.Adjust(ctx, AdjustInput{ProductID: "", Delta: 1, Reason: "r"})
	require.Error(t, err)
	_, err = svc.Adjust(ctx, AdjustInput{ProductID: "p", Delta: 0, Reason: "r"})
	require.Error(t, err)
	_, err = svc.Adjust(ctx, AdjustInput{ProductID: "p", Delta: 1, Reason: ""})
	require.Error(t, err)
}
