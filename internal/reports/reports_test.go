package reports

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type fakeReportRepo struct {
	gstCalls   atomic.Int64
	salesCalls atomic.Int64
	block      chan struct{}

	gst   *GSTSummary
	sales []DailySales
	stock []CategoryValuation
}

func (f *fakeReportRepo) GSTSummary(ctx context.Context, from, to time.Time) (*GSTSummary, error) {
	f.gstCalls.Add(1)
	if f.block != nil {
		<-f.block
	}
	out := *f.gst
	out.From, out.To = from, to
	return &out, nil
}

func (f *fakeReportRepo) SalesByDay(ctx context.Context, from, to time.Time) ([]DailySales, error) {
	f.salesCalls.Add(1)
	return f.sales, nil
}

func (f *fakeReportRepo) StockValuation(ctx context.Context) ([]CategoryValuation, error) {
	return f.stock, nil
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func sampleGST() *GSTSummary {
	return &GSTSummary{
		InvoiceCount:  3,
		TaxableAmount: dec("30000"),
		CGST:          dec("450"),
		SGST:          dec("450"),
		CreditCGST:    dec("15"),
		CreditSGST:    dec("15"),
		DebitCGST:     dec("7.50"),
		DebitSGST:     dec("7.50"),
	}
}

func TestGSTNetLiability(t *testing.T) {
	repo := &fakeReportRepo{gst: sampleGST()}
	svc := NewService(repo)

	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	s, err := svc.GST(context.Background(), from, to)
	require.NoError(t, err)

	require.True(t, s.NetCGST.Equal(dec("442.50")), "got %s", s.NetCGST)
	require.True(t, s.NetSGST.Equal(dec("442.50")), "got %s", s.NetSGST)
	require.True(t, s.NetTax.Equal(dec("885")), "got %s", s.NetTax)
}

func TestGSTRejectsBadPeriod(t *testing.T) {
	svc := NewService(&fakeReportRepo{gst: sampleGST()})

	from := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	_, err := svc.GST(context.Background(), from, to)
	require.Error(t, err)

	_, err = svc.GST(context.Background(), time.Time{}, to)
	require.Error(t, err)
}

func TestConcurrentIdenticalReportsShareOneQuery(t *testing.T) {
	repo := &fakeReportRepo{gst: sampleGST(), block: make(chan struct{})}
	svc := NewService(repo)

	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := svc.GST(context.Background(), from, to)
			require.NoError(t, err)
		}()
	}
	close(start)
	// let the callers pile onto the in-flight query
	time.Sleep(50 * time.Millisecond)
	close(repo.block)
	wg.Wait()

	require.LessOrEqual(t, repo.gstCalls.Load(), int64(2))
}

func TestSalesWorkbookRoundTrip(t *testing.T) {
	days := []DailySales{
		{
			Date:         time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
			InvoiceCount: 2,
			Revenue:      dec("22042"),
			TaxCollected: dec("642"),
			Collected:    dec("22042"),
		},
	}
	f, err := SalesWorkbook(days)
	require.NoError(t, err)
	defer f.Close()

	date, err := f.GetCellValue("Sales", "A2")
	require.NoError(t, err)
	require.Equal(t, "2025-06-15", date)

	revenue, err := f.GetCellValue("Sales", "C2")
	require.NoError(t, err)
	require.Contains(t, revenue, "22,042.00")
}

func TestValuationWorkbookHeaders(t *testing.T) {
	f, err := ValuationWorkbook([]CategoryValuation{
		{CategoryName: "Rings", ProductCount: 4, Units: 12, Value: dec("480000")},
	})
	require.NoError(t, err)
	defer f.Close()

	header, err := f.GetCellValue("Stock Valuation", "D1")
	require.NoError(t, err)
	require.Equal(t, "Value", header)
}

func TestFormatINR(t *testing.T) {
	require.Equal(t, "₹10.00", FormatINR(dec("10")))
	require.Equal(t, "₹0.50", FormatINR(dec("0.5")))
}
