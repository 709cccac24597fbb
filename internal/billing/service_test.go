package billing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jewelms/jewelms/internal/shared"
)

type fakeProduct struct {
	name    string
	hsnCode string
	stock   int64
}

type fakeCustomer struct {
	totalPurchases decimal.Decimal
	loyaltyPoints  int64
}

// fakeRepo is an in-memory RepositoryPort. WithTx clones the state, runs
// the callback against the clone and swaps it in only on success, so a
// failing callback rolls everything back like a real transaction.
type fakeRepo struct {
	mu        sync.Mutex
	serials   map[string]int64
	invoices  map[string]*Invoice
	items     map[string][]InvoiceItem
	payments  map[string][]Payment
	notes     map[NoteKind]map[string][]CorrectionNote
	ledger    []LedgerEntry
	products  map[string]*fakeProduct
	customers map[string]*fakeCustomer

	failTxTimes int // return ErrTxConflict this many times before running fn
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		serials:  map[string]int64{},
		invoices: map[string]*Invoice{},
		items:    map[string][]InvoiceItem{},
		payments: map[string][]Payment{},
		notes: map[NoteKind]map[string][]CorrectionNote{
			NoteKindCredit: {},
			NoteKindDebit:  {},
		},
		products:  map[string]*fakeProduct{},
		customers: map[string]*fakeCustomer{},
	}
}

func (f *fakeRepo) clone() *fakeRepo {
	c := newFakeRepo()
	for k, v := range f.serials {
		c.serials[k] = v
	}
	for k, v := range f.invoices {
		inv := *v
		c.invoices[k] = &inv
	}
	for k, v := range f.items {
		c.items[k] = append([]InvoiceItem(nil), v...)
	}
	for k, v := range f.payments {
		c.payments[k] = append([]Payment(nil), v...)
	}
	for kind, byInvoice := range f.notes {
		for k, v := range byInvoice {
			c.notes[kind][k] = append([]CorrectionNote(nil), v...)
		}
	}
	c.ledger = append([]LedgerEntry(nil), f.ledger...)
	for k, v := range f.products {
		p := *v
		c.products[k] = &p
	}
	for k, v := range f.customers {
		cu := *v
		c.customers[k] = &cu
	}
	return c
}

func (f *fakeRepo) adopt(c *fakeRepo) {
	f.serials = c.serials
	f.invoices = c.invoices
	f.items = c.items
	f.payments = c.payments
	f.notes = c.notes
	f.ledger = c.ledger
	f.products = c.products
	f.customers = c.customers
}

func (f *fakeRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failTxTimes > 0 {
		f.failTxTimes--
		return ErrTxConflict
	}
	working := f.clone()
	if err := fn(ctx, &fakeTx{state: working}); err != nil {
		return err
	}
	f.adopt(working)
	return nil
}

func (f *fakeRepo) GetInvoice(ctx context.Context, id string) (*Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.invoices[id]
	if !ok {
		return nil, fmt.Errorf("invoice: %w", shared.ErrNotFound)
	}
	out := *inv
	return &out, nil
}

func (f *fakeRepo) ListInvoices(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Invoice
	for _, inv := range f.invoices {
		out = append(out, *inv)
	}
	return out, int64(len(out)), nil
}

func (f *fakeRepo) ListInvoiceItems(ctx context.Context, invoiceID string) ([]InvoiceItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]InvoiceItem(nil), f.items[invoiceID]...), nil
}

func (f *fakeRepo) ListPayments(ctx context.Context, invoiceID string) ([]Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Payment(nil), f.payments[invoiceID]...), nil
}

func (f *fakeRepo) ListNotes(ctx context.Context, kind NoteKind, invoiceID string) ([]CorrectionNote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]CorrectionNote(nil), f.notes[kind][invoiceID]...), nil
}

type fakeTx struct {
	state *fakeRepo
}

func (t *fakeTx) NextSerial(ctx context.Context, fiscalYear string) (int64, error) {
	t.state.serials[fiscalYear]++
	return t.state.serials[fiscalYear], nil
}

func (t *fakeTx) InsertInvoice(ctx context.Context, inv *Invoice) error {
	copied := *inv
	t.state.invoices[inv.ID] = &copied
	return nil
}

func (t *fakeTx) InsertInvoiceItem(ctx context.Context, item *InvoiceItem) error {
	t.state.items[item.InvoiceID] = append(t.state.items[item.InvoiceID], *item)
	return nil
}

func (t *fakeTx) GetProductRef(ctx context.Context, productID string) (ProductRef, error) {
	p, ok := t.state.products[productID]
	if !ok {
		return ProductRef{}, fmt.Errorf("product %s: %w", productID, shared.ErrNotFound)
	}
	return ProductRef{ID: productID, Name: p.name, HSNCode: p.hsnCode}, nil
}

func (t *fakeTx) DecrementStock(ctx context.Context, productID string, qty int64) error {
	p, ok := t.state.products[productID]
	if !ok {
		return fmt.Errorf("product %s: %w", productID, shared.ErrNotFound)
	}
	if p.stock < qty {
		return &shared.StockError{ProductID: productID, ProductName: p.name, Requested: qty, Available: p.stock}
	}
	p.stock -= qty
	return nil
}

func (t *fakeTx) InsertLedgerEntry(ctx context.Context, entry LedgerEntry) error {
	t.state.ledger = append(t.state.ledger, entry)
	return nil
}

func (t *fakeTx) BumpCustomerAggregates(ctx context.Context, customerID string, amount decimal.Decimal, points int64) error {
	c, ok := t.state.customers[customerID]
	if !ok {
		return fmt.Errorf("customer %s: %w", customerID, shared.ErrNotFound)
	}
	c.totalPurchases = c.totalPurchases.Add(amount)
	c.loyaltyPoints += points
	return nil
}

func (t *fakeTx) GetInvoiceForUpdate(ctx context.Context, id string) (*Invoice, error) {
	inv, ok := t.state.invoices[id]
	if !ok {
		return nil, fmt.Errorf("invoice: %w", shared.ErrNotFound)
	}
	out := *inv
	return &out, nil
}

func (t *fakeTx) ListItems(ctx context.Context, invoiceID string) ([]InvoiceItem, error) {
	return append([]InvoiceItem(nil), t.state.items[invoiceID]...), nil
}

func (t *fakeTx) SealInvoice(ctx context.Context, id, hash string) (bool, error) {
	inv, ok := t.state.invoices[id]
	if !ok {
		return false, fmt.Errorf("invoice: %w", shared.ErrNotFound)
	}
	if inv.FinalizationStatus != StatusDraft {
		return false, nil
	}
	inv.FinalizationStatus = StatusFinalized
	inv.InvoiceHash = hash
	return true, nil
}

func (t *fakeTx) InsertPayment(ctx context.Context, p *Payment) error {
	t.state.payments[p.InvoiceID] = append(t.state.payments[p.InvoiceID], *p)
	return nil
}

func (t *fakeTx) UpdatePaidState(ctx context.Context, id string, paid decimal.Decimal, status PaymentStatus) error {
	inv, ok := t.state.invoices[id]
	if !ok {
		return fmt.Errorf("invoice: %w", shared.ErrNotFound)
	}
	inv.PaidAmount = paid
	inv.PaymentStatus = status
	return nil
}

func (t *fakeTx) InsertNote(ctx context.Context, n *CorrectionNote) error {
	t.state.notes[n.Kind][n.InvoiceID] = append(t.state.notes[n.Kind][n.InvoiceID], *n)
	return nil
}

func (t *fakeTx) UpdateDraftFields(ctx context.Context, inv *Invoice) error {
	stored, ok := t.state.invoices[inv.ID]
	if !ok {
		return fmt.Errorf("invoice: %w", shared.ErrNotFound)
	}
	if stored.FinalizationStatus != StatusDraft {
		return shared.ErrImmutable
	}
	copied := *inv
	t.state.invoices[inv.ID] = &copied
	return nil
}

type recordedAudit struct {
	mu   sync.Mutex
	logs []shared.AuditLog
}

func (a *recordedAudit) Record(ctx context.Context, log shared.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logs = append(a.logs, log)
	return nil
}

const (
	productRing   = "6e5a1f0e-1111-4a61-9f20-aaaaaaaaaaaa"
	productChain  = "6e5a1f0e-2222-4a61-9f20-bbbbbbbbbbbb"
	customerAsha  = "7f6b2a1d-3333-4b72-8e31-cccccccccccc"
)

func newTestService(t *testing.T) (*Service, *fakeRepo, *recordedAudit) {
	t.Helper()
	repo := newFakeRepo()
	repo.products[productRing] = &fakeProduct{name: "Gold Ring 22K", hsnCode: "7113", stock: 10}
	repo.products[productChain] = &fakeProduct{name: "Gold Chain 22K", hsnCode: "7113", stock: 2}
	repo.customers[customerAsha] = &fakeCustomer{totalPurchases: decimal.Zero}

	audit := &recordedAudit{}
	svc := NewService(repo, audit, nil, StaticConfig{Prefix: "INV", StartMonth: 4})
	svc.now = func() time.Time {
		return time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	}
	svc.retryBackoff = time.Millisecond
	return svc, repo, audit
}

func ringItem() ItemInput {
	return ItemInput{
		ProductID:     productRing,
		Quantity:      1,
		UnitPrice:     dec("10000"),
		MakingCharges: dec("500"),
		StoneCharges:  dec("200"),
		CGSTRate:      dec("1.5"),
		SGSTRate:      dec("1.5"),
	}
}

func TestCreateInvoiceHappyPath(t *testing.T) {
	svc, repo, audit := newTestService(t)

	inv, err := svc.CreateInvoice(context.Background(), CreateInvoiceInput{
		CustomerID: customerAsha,
		Items:      []ItemInput{ringItem()},
		ActorID:    "user-1",
	})
	require.NoError(t, err)
	require.Equal(t, "INV/2025-26/00001", inv.InvoiceNumber)
	require.Equal(t, "2025-26", inv.FinancialYear)
	require.Equal(t, int64(1), inv.SerialNumber)
	require.Equal(t, StatusDraft, inv.FinalizationStatus)
	require.Equal(t, PaymentStatusUnpaid, inv.PaymentStatus)
	require.Equal(t, "11021.00", inv.TotalAmount.StringFixed(2))
	require.Equal(t, "160.50", inv.CGSTAmount.StringFixed(2))

	require.Equal(t, int64(9), repo.products[productRing].stock)
	require.Len(t, repo.ledger, 1)
	require.Equal(t, int64(-1), repo.ledger[0].Quantity)
	require.Equal(t, "sale", repo.ledger[0].Type)

	// loyalty: floor(11021 / 1000)
	require.Equal(t, int64(11), repo.customers[customerAsha].loyaltyPoints)
	require.True(t, repo.customers[customerAsha].totalPurchases.Equal(dec("11021")))

	items := repo.items[inv.ID]
	require.Len(t, items, 1)
	require.Equal(t, "Gold Ring 22K", items[0].ProductName)
	require.Equal(t, "7113", items[0].HSNCode)
	require.Equal(t, "11021.00", items[0].TotalPrice.StringFixed(2))

	require.Len(t, audit.logs, 1)
	require.Equal(t, "CREATE", audit.logs[0].Action)
	require.Equal(t, "invoices", audit.logs[0].TableName)
}

func TestCreateInvoiceSequentialSerials(t *testing.T) {
	svc, _, _ := newTestService(t)
	for i := 1; i <= 3; i++ {
		inv, err := svc.CreateInvoice(context.Background(), CreateInvoiceInput{
			Items: []ItemInput{ringItem()},
		})
		require.NoError(t, err)
		require.Equal(t, int64(i), inv.SerialNumber)
	}
}

func TestCreateInvoiceConcurrentNumbersDistinct(t *testing.T) {
	svc, repo, _ := newTestService(t)
	repo.products[productRing].stock = 100

	const n = 20
	var wg sync.WaitGroup
	numbers := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			inv, err := svc.CreateInvoice(context.Background(), CreateInvoiceInput{
				Items: []ItemInput{ringItem()},
			})
			if err == nil {
				numbers <- inv.InvoiceNumber
			}
		}()
	}
	wg.Wait()
	close(numbers)

	seen := map[string]bool{}
	for num := range numbers {
		require.False(t, seen[num], "duplicate invoice number %s", num)
		seen[num] = true
	}
	require.Len(t, seen, n)
	require.Equal(t, int64(100-n), repo.products[productRing].stock)
}

func TestCreateInvoiceInsufficientStockRollsBackEverything(t *testing.T) {
	svc, repo, _ := newTestService(t)

	chain := ringItem()
	chain.ProductID = productChain
	chain.Quantity = 5 // only 2 in stock

	_, err := svc.CreateInvoice(context.Background(), CreateInvoiceInput{
		CustomerID: customerAsha,
		Items:      []ItemInput{ringItem(), chain},
	})
	var stockErr *shared.StockError
	require.ErrorAs(t, err, &stockErr)
	require.Equal(t, productChain, stockErr.ProductID)
	require.Equal(t, int64(2), stockErr.Available)

	// nothing committed: no invoice, first item's stock untouched, no
	// ledger rows, customer aggregates unchanged
	require.Empty(t, repo.invoices)
	require.Equal(t, int64(10), repo.products[productRing].stock)
	require.Empty(t, repo.ledger)
	require.Equal(t, int64(0), repo.customers[customerAsha].loyaltyPoints)
}

func TestCreateInvoiceRetriesOnTxConflict(t *testing.T) {
	svc, repo, _ := newTestService(t)
	repo.failTxTimes = 2

	inv, err := svc.CreateInvoice(context.Background(), CreateInvoiceInput{
		Items: []ItemInput{ringItem()},
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), inv.SerialNumber)
}

func TestCreateInvoiceGivesUpAfterMaxAttempts(t *testing.T) {
	svc, repo, _ := newTestService(t)
	repo.failTxTimes = 10

	_, err := svc.CreateInvoice(context.Background(), CreateInvoiceInput{
		Items: []ItemInput{ringItem()},
	})
	require.ErrorIs(t, err, ErrTxConflict)
}

func TestCreateInvoiceValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateInvoice(ctx, CreateInvoiceInput{})
	require.Error(t, err)

	bad := ringItem()
	bad.Quantity = 0
	_, err = svc.CreateInvoice(ctx, CreateInvoiceInput{Items: []ItemInput{bad}})
	require.Error(t, err)

	bad = ringItem()
	bad.IGSTRate = dec("3") // combined with cgst/sgst
	_, err = svc.CreateInvoice(ctx, CreateInvoiceInput{Items: []ItemInput{bad}})
	require.Error(t, err)

	_, err = svc.CreateInvoice(ctx, CreateInvoiceInput{
		Items:          []ItemInput{ringItem()},
		DiscountAmount: dec("-5"),
	})
	require.Error(t, err)
}

func TestCreateInvoiceWithImmediatePayment(t *testing.T) {
	svc, repo, _ := newTestService(t)

	inv, err := svc.CreateInvoice(context.Background(), CreateInvoiceInput{
		Items:       []ItemInput{ringItem()},
		PaymentMode: "cash",
		PaidAmount:  dec("11021"),
	})
	require.NoError(t, err)
	require.Equal(t, PaymentStatusPaid, inv.PaymentStatus)
	require.Len(t, repo.payments[inv.ID], 1)
	require.Equal(t, "11021.00", repo.payments[inv.ID][0].Amount.StringFixed(2))
}

func TestFinalizeInvoiceSealsOnce(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	inv, err := svc.CreateInvoice(ctx, CreateInvoiceInput{Items: []ItemInput{ringItem()}})
	require.NoError(t, err)

	sealed, err := svc.FinalizeInvoice(ctx, inv.ID, "user-1", "10.0.0.1")
	require.NoError(t, err)
	require.Equal(t, StatusFinalized, sealed.FinalizationStatus)
	require.Len(t, sealed.InvoiceHash, 64)

	// repeat finalize is rejected and the stored digest is untouched
	_, err = svc.FinalizeInvoice(ctx, inv.ID, "user-1", "10.0.0.1")
	require.ErrorIs(t, err, ErrAlreadyFinalized)
	require.Equal(t, sealed.InvoiceHash, repo.invoices[inv.ID].InvoiceHash)
}

func TestFinalizeHashMatchesPersistedRows(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	inv, err := svc.CreateInvoice(ctx, CreateInvoiceInput{Items: []ItemInput{ringItem()}})
	require.NoError(t, err)

	sealed, err := svc.FinalizeInvoice(ctx, inv.ID, "", "")
	require.NoError(t, err)

	want := ComputeInvoiceHash(*repo.invoices[inv.ID], repo.items[inv.ID])
	require.Equal(t, want, sealed.InvoiceHash)
}

func TestRecordPaymentTransitions(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	inv, err := svc.CreateInvoice(ctx, CreateInvoiceInput{Items: []ItemInput{ringItem()}})
	require.NoError(t, err)
	require.Equal(t, PaymentStatusUnpaid, inv.PaymentStatus)

	after, err := svc.RecordPayment(ctx, PaymentInput{
		InvoiceID: inv.ID, Amount: dec("5000"), Mode: "cash",
	})
	require.NoError(t, err)
	require.Equal(t, PaymentStatusPartial, after.PaymentStatus)

	after, err = svc.RecordPayment(ctx, PaymentInput{
		InvoiceID: inv.ID, Amount: dec("6021"), Mode: "upi",
	})
	require.NoError(t, err)
	require.Equal(t, PaymentStatusPaid, after.PaymentStatus)
	require.True(t, after.OverpaidAmount().IsZero())
}

func TestRecordPaymentOverpaymentExposed(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	inv, err := svc.CreateInvoice(ctx, CreateInvoiceInput{Items: []ItemInput{ringItem()}})
	require.NoError(t, err)

	after, err := svc.RecordPayment(ctx, PaymentInput{
		InvoiceID: inv.ID, Amount: dec("12000"), Mode: "cash",
	})
	require.NoError(t, err)
	require.Equal(t, PaymentStatusPaid, after.PaymentStatus)
	require.Equal(t, "979.00", after.OverpaidAmount().StringFixed(2))
	require.Equal(t, "12000.00", after.PaidAmount.StringFixed(2))
}

func TestRecordPaymentValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.RecordPayment(ctx, PaymentInput{InvoiceID: "x", Amount: dec("0"), Mode: "cash"})
	require.Error(t, err)

	_, err = svc.RecordPayment(ctx, PaymentInput{InvoiceID: "x", Amount: dec("10"), Mode: ""})
	require.Error(t, err)

	_, err = svc.RecordPayment(ctx, PaymentInput{InvoiceID: "missing", Amount: dec("10"), Mode: "cash"})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestNotesRequireFinalizedInvoice(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	inv, err := svc.CreateInvoice(ctx, CreateInvoiceInput{Items: []ItemInput{ringItem()}})
	require.NoError(t, err)

	_, err = svc.IssueCreditNote(ctx, NoteInput{
		InvoiceID: inv.ID, Reason: "stone missing", Amount: dec("500"), ActorID: "user-1",
	})
	var vErr *shared.ValidationError
	require.ErrorAs(t, err, &vErr)
	require.Empty(t, repo.notes[NoteKindCredit][inv.ID])

	_, err = svc.FinalizeInvoice(ctx, inv.ID, "user-1", "")
	require.NoError(t, err)

	note, err := svc.IssueCreditNote(ctx, NoteInput{
		InvoiceID: inv.ID, Reason: "stone missing", Amount: dec("500"), ActorID: "user-1",
	})
	require.NoError(t, err)
	require.Equal(t, NoteKindCredit, note.Kind)
	require.Len(t, repo.notes[NoteKindCredit][inv.ID], 1)

	debit, err := svc.IssueDebitNote(ctx, NoteInput{
		InvoiceID: inv.ID, Reason: "undercharged making", Amount: dec("300"), ActorID: "user-1",
	})
	require.NoError(t, err)
	require.Equal(t, NoteKindDebit, debit.Kind)
}

func TestGetInvoiceDetailCorrectedTotal(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	inv, err := svc.CreateInvoice(ctx, CreateInvoiceInput{Items: []ItemInput{ringItem()}})
	require.NoError(t, err)
	_, err = svc.FinalizeInvoice(ctx, inv.ID, "user-1", "")
	require.NoError(t, err)

	_, err = svc.IssueCreditNote(ctx, NoteInput{InvoiceID: inv.ID, Reason: "r", Amount: dec("500"), ActorID: "u"})
	require.NoError(t, err)
	_, err = svc.IssueDebitNote(ctx, NoteInput{InvoiceID: inv.ID, Reason: "r", Amount: dec("200"), ActorID: "u"})
	require.NoError(t, err)

	detail, err := svc.GetInvoiceDetail(ctx, inv.ID)
	require.NoError(t, err)
	// 11021 + 200 debit - 500 credit
	require.Equal(t, "10721.00", detail.CorrectedTotal.StringFixed(2))
	require.Len(t, detail.CreditNotes, 1)
	require.Len(t, detail.DebitNotes, 1)
}

func TestUpdateDraftInvoiceRecomputesTotals(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	inv, err := svc.CreateInvoice(ctx, CreateInvoiceInput{Items: []ItemInput{ringItem()}})
	require.NoError(t, err)

	discount := dec("500")
	after, err := svc.UpdateDraftInvoice(ctx, inv.ID, DraftInvoiceUpdate{DiscountAmount: &discount}, "user-1", "")
	require.NoError(t, err)
	require.Equal(t, "500.00", after.DiscountAmount.StringFixed(2))
	require.Equal(t, "10521.00", after.TotalAmount.StringFixed(2))
}

func TestUpdateFinalizedInvoiceRejected(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	inv, err := svc.CreateInvoice(ctx, CreateInvoiceInput{Items: []ItemInput{ringItem()}})
	require.NoError(t, err)
	_, err = svc.FinalizeInvoice(ctx, inv.ID, "user-1", "")
	require.NoError(t, err)

	notes := "edited"
	_, err = svc.UpdateDraftInvoice(ctx, inv.ID, DraftInvoiceUpdate{Notes: &notes}, "user-1", "")
	require.ErrorIs(t, err, shared.ErrImmutable)
}

func TestFinalizedInvoiceStillAcceptsPayments(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	inv, err := svc.CreateInvoice(ctx, CreateInvoiceInput{Items: []ItemInput{ringItem()}})
	require.NoError(t, err)
	_, err = svc.FinalizeInvoice(ctx, inv.ID, "user-1", "")
	require.NoError(t, err)

	after, err := svc.RecordPayment(ctx, PaymentInput{InvoiceID: inv.ID, Amount: dec("11021"), Mode: "card"})
	require.NoError(t, err)
	require.Equal(t, PaymentStatusPaid, after.PaymentStatus)
}

func TestFiscalYearBoundarySplitsSerials(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	march := time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC)
	april := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

	first, err := svc.CreateInvoice(ctx, CreateInvoiceInput{InvoiceDate: march, Items: []ItemInput{ringItem()}})
	require.NoError(t, err)
	second, err := svc.CreateInvoice(ctx, CreateInvoiceInput{InvoiceDate: april, Items: []ItemInput{ringItem()}})
	require.NoError(t, err)

	require.Equal(t, "2025-26", first.FinancialYear)
	require.Equal(t, "2026-27", second.FinancialYear)
	// both fiscal years start their own sequence
	require.Equal(t, int64(1), first.SerialNumber)
	require.Equal(t, int64(1), second.SerialNumber)
}

func TestWalkInCustomerSkipsAggregates(t *testing.T) {
	svc, repo, _ := newTestService(t)

	_, err := svc.CreateInvoice(context.Background(), CreateInvoiceInput{
		Items: []ItemInput{ringItem()},
	})
	require.NoError(t, err)
	require.Equal(t, int64(0), repo.customers[customerAsha].loyaltyPoints)
}

func TestListNotesRequiresInvoiceID(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.ListNotes(context.Background(), NoteKindCredit, "")
	var vErr *shared.ValidationError
	require.True(t, errors.As(err, &vErr))
}
