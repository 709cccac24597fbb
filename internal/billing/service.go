package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jewelms/jewelms/internal/shared"
)

// RepositoryPort defines data access methods for billing.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetInvoice(ctx context.Context, id string) (*Invoice, error)
	ListInvoices(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int64, error)
	ListInvoiceItems(ctx context.Context, invoiceID string) ([]InvoiceItem, error)
	ListPayments(ctx context.Context, invoiceID string) ([]Payment, error)
	ListNotes(ctx context.Context, kind NoteKind, invoiceID string) ([]CorrectionNote, error)
}

// TxRepository exposes the operations available inside the invoice
// transaction.
type TxRepository interface {
	NextSerial(ctx context.Context, fiscalYear string) (int64, error)
	InsertInvoice(ctx context.Context, inv *Invoice) error
	InsertInvoiceItem(ctx context.Context, item *InvoiceItem) error
	GetProductRef(ctx context.Context, productID string) (ProductRef, error)
	DecrementStock(ctx context.Context, productID string, qty int64) error
	InsertLedgerEntry(ctx context.Context, entry LedgerEntry) error
	BumpCustomerAggregates(ctx context.Context, customerID string, amount decimal.Decimal, points int64) error
	GetInvoiceForUpdate(ctx context.Context, id string) (*Invoice, error)
	ListItems(ctx context.Context, invoiceID string) ([]InvoiceItem, error)
	SealInvoice(ctx context.Context, id, hash string) (bool, error)
	InsertPayment(ctx context.Context, p *Payment) error
	UpdatePaidState(ctx context.Context, id string, paid decimal.Decimal, status PaymentStatus) error
	InsertNote(ctx context.Context, n *CorrectionNote) error
	UpdateDraftFields(ctx context.Context, inv *Invoice) error
}

// ProductRef is the catalog snapshot captured on an invoice line.
type ProductRef struct {
	ID      string
	Name    string
	HSNCode string
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// ConfigPort supplies the numbering configuration, typically backed by
// the settings store.
type ConfigPort interface {
	InvoicePrefix(ctx context.Context) string
	FiscalYearStartMonth(ctx context.Context) int
}

// StaticConfig is a ConfigPort with fixed values, used in tests and as a
// fallback when the settings table is empty.
type StaticConfig struct {
	Prefix     string
	StartMonth int
}

func (c StaticConfig) InvoicePrefix(context.Context) string {
	if c.Prefix == "" {
		return "INV"
	}
	return c.Prefix
}

func (c StaticConfig) FiscalYearStartMonth(context.Context) int {
	if c.StartMonth == 0 {
		return DefaultFiscalYearStartMonth
	}
	return c.StartMonth
}

// Service orchestrates the invoicing core.
type Service struct {
	repo        RepositoryPort
	audit       AuditPort
	idempotency *shared.IdempotencyStore
	cfg         ConfigPort
	now         func() time.Time

	maxAttempts  int
	retryBackoff time.Duration
}

// NewService builds a Service.
func NewService(repo RepositoryPort, audit AuditPort, idem *shared.IdempotencyStore, cfg ConfigPort) *Service {
	if cfg == nil {
		cfg = StaticConfig{}
	}
	return &Service{
		repo:         repo,
		audit:        audit,
		idempotency:  idem,
		cfg:          cfg,
		now:          func() time.Time { return time.Now().UTC() },
		maxAttempts:  3,
		retryBackoff: 100 * time.Millisecond,
	}
}

// ItemInput is one cart line. Pricing fields arrive resolved by the
// catalog/pricing collaborators.
type ItemInput struct {
	ProductID     string
	ProductName   string
	HSNCode       string
	Quantity      int64
	UnitPrice     decimal.Decimal
	MakingCharges decimal.Decimal
	StoneCharges  decimal.Decimal
	WastagePct    decimal.Decimal
	Discount      decimal.Decimal
	CGSTRate      decimal.Decimal
	SGSTRate      decimal.Decimal
	IGSTRate      decimal.Decimal
}

// CreateInvoiceInput is the orchestrator request.
type CreateInvoiceInput struct {
	CustomerID     string
	InvoiceDate    time.Time
	DiscountAmount decimal.Decimal
	PaymentMode    string
	PaidAmount     decimal.Decimal
	Notes          string
	InvoiceNumber  string // optional override; the allocator runs when empty
	Items          []ItemInput
	IdempotencyKey string
	ActorID        string
	ActorIP        string
}

// PaymentInput records money received against an invoice.
type PaymentInput struct {
	InvoiceID       string
	Amount          decimal.Decimal
	Mode            string
	PaymentDate     time.Time
	ReferenceNumber string
	Notes           string
	ActorID         string
	ActorIP         string
}

// NoteInput issues a credit or debit note.
type NoteInput struct {
	InvoiceID string
	Reason    string
	Amount    decimal.Decimal
	CGST      decimal.Decimal
	SGST      decimal.Decimal
	ActorID   string
	ActorIP   string
}

// DraftInvoiceUpdate is the typed update command for draft invoices.
// Finalized invoices accept none of these fields; paid_amount and
// payment_status are only ever changed by RecordPayment.
type DraftInvoiceUpdate struct {
	CustomerID     *string
	InvoiceDate    *time.Time
	DiscountAmount *decimal.Decimal
	PaymentMode    *string
	Notes          *string
}

// ListInvoicesRequest filters invoice listings.
type ListInvoicesRequest struct {
	PaymentStatus PaymentStatus
	Finalization  FinalizationStatus
	CustomerID    string
	Search        string
	From          time.Time
	To            time.Time
	Limit         int
	Offset        int
}

// InvoiceDetail is the read model for a single invoice.
type InvoiceDetail struct {
	Invoice        Invoice
	Items          []InvoiceItem
	Payments       []Payment
	CreditNotes    []CorrectionNote
	DebitNotes     []CorrectionNote
	CorrectedTotal decimal.Decimal
	OverpaidAmount decimal.Decimal
}

func (s *Service) validateItems(items []ItemInput) ([]InvoiceItem, error) {
	if len(items) == 0 {
		return nil, shared.Invalid("items", "at least one item is required")
	}
	built := make([]InvoiceItem, 0, len(items))
	for i, in := range items {
		if in.ProductID == "" {
			return nil, shared.Invalid(fmt.Sprintf("items[%d].product_id", i), "product is required")
		}
		if in.Quantity <= 0 {
			return nil, shared.Invalid(fmt.Sprintf("items[%d].quantity", i), "quantity must be positive")
		}
		if in.UnitPrice.Sign() < 0 || in.MakingCharges.Sign() < 0 || in.StoneCharges.Sign() < 0 {
			return nil, shared.Invalid(fmt.Sprintf("items[%d]", i), "prices must not be negative")
		}
		if in.Discount.Sign() < 0 || in.WastagePct.Sign() < 0 {
			return nil, shared.Invalid(fmt.Sprintf("items[%d]", i), "discount and wastage must not be negative")
		}
		item := InvoiceItem{
			ProductID:     in.ProductID,
			ProductName:   in.ProductName,
			HSNCode:       in.HSNCode,
			Quantity:      in.Quantity,
			UnitPrice:     in.UnitPrice,
			MakingCharges: in.MakingCharges,
			StoneCharges:  in.StoneCharges,
			WastagePct:    in.WastagePct,
			Discount:      in.Discount,
			CGSTRate:      in.CGSTRate,
			SGSTRate:      in.SGSTRate,
			IGSTRate:      in.IGSTRate,
		}
		if err := ValidateItemTax(item); err != nil {
			return nil, fmt.Errorf("items[%d]: %w", i, err)
		}
		built = append(built, item)
	}
	return built, nil
}

// CreateInvoice runs the atomic unit of work: serial allocation, invoice
// and item rows, stock decrements, sale ledger entries and customer
// aggregates, all-or-nothing.
func (s *Service) CreateInvoice(ctx context.Context, input CreateInvoiceInput) (*Invoice, error) {
	items, err := s.validateItems(input.Items)
	if err != nil {
		return nil, err
	}
	if input.DiscountAmount.Sign() < 0 {
		return nil, shared.Invalid("discount_amount", "discount must not be negative")
	}
	if input.PaidAmount.Sign() < 0 {
		return nil, shared.Invalid("paid_amount", "paid amount must not be negative")
	}

	if input.IdempotencyKey != "" && s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, input.IdempotencyKey, "billing"); err != nil {
			return nil, err
		}
	}

	var created *Invoice
	attempt := 0
	for {
		attempt++
		created, err = s.createInvoiceTx(ctx, input, items)
		if err == nil {
			break
		}
		// A serialization failure means nothing committed; retrying the
		// rolled-back transaction cannot duplicate the invoice. Anything
		// else surfaces immediately.
		if !errors.Is(err, ErrTxConflict) || attempt >= s.maxAttempts {
			if input.IdempotencyKey != "" && s.idempotency != nil {
				_ = s.idempotency.Delete(ctx, input.IdempotencyKey)
			}
			return nil, err
		}
		backoff := s.retryBackoff << (attempt - 1)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:   input.ActorID,
			Action:    "CREATE",
			TableName: "invoices",
			RecordID:  created.ID,
			NewValues: created,
			IPAddress: input.ActorIP,
		})
	}
	return created, nil
}

func (s *Service) createInvoiceTx(ctx context.Context, input CreateInvoiceInput, items []InvoiceItem) (*Invoice, error) {
	now := s.now()
	invoiceDate := input.InvoiceDate
	if invoiceDate.IsZero() {
		invoiceDate = now
	}

	totals := CalculateInvoiceTotals(items, input.DiscountAmount)
	total := RoundMoney(totals.TotalAmount)
	paid := RoundMoney(input.PaidAmount)

	inv := &Invoice{
		ID:                 uuid.NewString(),
		InvoicePrefix:      s.cfg.InvoicePrefix(ctx),
		CustomerID:         input.CustomerID,
		InvoiceDate:        invoiceDate,
		Subtotal:           RoundMoney(totals.Subtotal),
		DiscountAmount:     RoundMoney(input.DiscountAmount),
		CGSTAmount:         RoundMoney(totals.CGSTAmount),
		SGSTAmount:         RoundMoney(totals.SGSTAmount),
		IGSTAmount:         RoundMoney(totals.IGSTAmount),
		TotalAmount:        total,
		PaidAmount:         paid,
		PaymentStatus:      DerivePaymentStatus(paid, total),
		PaymentMode:        input.PaymentMode,
		FinalizationStatus: StatusDraft,
		Notes:              input.Notes,
		CreatedBy:          input.ActorID,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		inv.FinancialYear = FiscalYearLabel(invoiceDate, s.cfg.FiscalYearStartMonth(ctx))
		if input.InvoiceNumber != "" {
			inv.InvoiceNumber = input.InvoiceNumber
		} else {
			serial, err := tx.NextSerial(ctx, inv.FinancialYear)
			if err != nil {
				return err
			}
			inv.SerialNumber = serial
			inv.InvoiceNumber = FormatInvoiceNumber(inv.InvoicePrefix, inv.FinancialYear, serial)
		}

		if err := tx.InsertInvoice(ctx, inv); err != nil {
			return err
		}

		for i := range items {
			item := &items[i]
			item.ID = uuid.NewString()
			item.InvoiceID = inv.ID
			if item.ProductName == "" || item.HSNCode == "" {
				ref, err := tx.GetProductRef(ctx, item.ProductID)
				if err != nil {
					return err
				}
				if item.ProductName == "" {
					item.ProductName = ref.Name
				}
				if item.HSNCode == "" {
					item.HSNCode = ref.HSNCode
				}
			}
			item.TotalPrice = RoundMoney(CalculateItemTotals(*item).Total)

			if err := tx.InsertInvoiceItem(ctx, item); err != nil {
				return err
			}
			if err := tx.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}
			entry := LedgerEntry{
				ID:            uuid.NewString(),
				ProductID:     item.ProductID,
				Type:          "sale",
				Quantity:      -item.Quantity,
				ReferenceID:   inv.ID,
				ReferenceType: "invoice",
				CreatedBy:     input.ActorID,
				CreatedAt:     now,
			}
			if err := tx.InsertLedgerEntry(ctx, entry); err != nil {
				return err
			}
		}

		if paid.Sign() > 0 {
			payment := &Payment{
				ID:          uuid.NewString(),
				InvoiceID:   inv.ID,
				Amount:      paid,
				Mode:        input.PaymentMode,
				PaymentDate: invoiceDate,
				CreatedAt:   now,
			}
			if err := tx.InsertPayment(ctx, payment); err != nil {
				return err
			}
		}

		if inv.CustomerID != "" {
			points := total.Div(decimal.NewFromInt(1000)).Floor().IntPart()
			if err := tx.BumpCustomerAggregates(ctx, inv.CustomerID, total, points); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// FinalizeInvoice performs the one-way draft -> finalized transition,
// stamping the content digest computed from the persisted invoice and
// items, never from caller-supplied data.
func (s *Service) FinalizeInvoice(ctx context.Context, id, actorID, actorIP string) (*Invoice, error) {
	if id == "" {
		return nil, shared.Invalid("id", "invoice id required")
	}
	var sealed *Invoice
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		inv, err := tx.GetInvoiceForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if inv.FinalizationStatus == StatusFinalized {
			return ErrAlreadyFinalized
		}
		items, err := tx.ListItems(ctx, id)
		if err != nil {
			return err
		}
		hash := ComputeInvoiceHash(*inv, items)
		ok, err := tx.SealInvoice(ctx, id, hash)
		if err != nil {
			return err
		}
		if !ok {
			return ErrAlreadyFinalized
		}
		inv.FinalizationStatus = StatusFinalized
		inv.InvoiceHash = hash
		inv.UpdatedAt = s.now()
		sealed = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:   actorID,
			Action:    "FINALIZE",
			TableName: "invoices",
			RecordID:  sealed.ID,
			NewValues: map[string]any{"event": "INVOICE_FINALIZED", "invoice_hash": sealed.InvoiceHash},
			IPAddress: actorIP,
		})
	}
	return sealed, nil
}

// RecordPayment appends a payment row and recomputes the paid state from
// the freshly re-read invoice inside the same transaction.
func (s *Service) RecordPayment(ctx context.Context, input PaymentInput) (*Invoice, error) {
	if input.InvoiceID == "" {
		return nil, shared.Invalid("invoice_id", "invoice id required")
	}
	if input.Amount.Sign() <= 0 {
		return nil, shared.Invalid("amount", "payment amount must be positive")
	}
	if input.Mode == "" {
		return nil, shared.Invalid("payment_mode", "payment mode required")
	}
	now := s.now()
	paymentDate := input.PaymentDate
	if paymentDate.IsZero() {
		paymentDate = now
	}

	var updated *Invoice
	var payment *Payment
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		inv, err := tx.GetInvoiceForUpdate(ctx, input.InvoiceID)
		if err != nil {
			return err
		}
		payment = &Payment{
			ID:              uuid.NewString(),
			InvoiceID:       inv.ID,
			Amount:          RoundMoney(input.Amount),
			Mode:            input.Mode,
			PaymentDate:     paymentDate,
			ReferenceNumber: input.ReferenceNumber,
			Notes:           input.Notes,
			CreatedAt:       now,
		}
		if err := tx.InsertPayment(ctx, payment); err != nil {
			return err
		}
		newPaid := inv.PaidAmount.Add(payment.Amount)
		status := DerivePaymentStatus(newPaid, inv.TotalAmount)
		if err := tx.UpdatePaidState(ctx, inv.ID, newPaid, status); err != nil {
			return err
		}
		inv.PaidAmount = newPaid
		inv.PaymentStatus = status
		inv.UpdatedAt = now
		updated = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:   input.ActorID,
			Action:    "CREATE",
			TableName: "payments",
			RecordID:  payment.ID,
			NewValues: payment,
			IPAddress: input.ActorIP,
		})
	}
	return updated, nil
}

// IssueCreditNote appends a credit note against a finalized invoice.
func (s *Service) IssueCreditNote(ctx context.Context, input NoteInput) (*CorrectionNote, error) {
	return s.issueNote(ctx, NoteKindCredit, input)
}

// IssueDebitNote appends a debit note against a finalized invoice.
func (s *Service) IssueDebitNote(ctx context.Context, input NoteInput) (*CorrectionNote, error) {
	return s.issueNote(ctx, NoteKindDebit, input)
}

func (s *Service) issueNote(ctx context.Context, kind NoteKind, input NoteInput) (*CorrectionNote, error) {
	if input.InvoiceID == "" {
		return nil, shared.Invalid("invoice_id", "invoice id required")
	}
	if input.Reason == "" {
		return nil, shared.Invalid("reason", "reason required")
	}
	if input.Amount.Sign() <= 0 {
		return nil, shared.Invalid("amount", "amount must be positive")
	}
	if input.CGST.Sign() < 0 || input.SGST.Sign() < 0 {
		return nil, shared.Invalid("tax", "tax amounts must not be negative")
	}
	if input.ActorID == "" {
		return nil, shared.Invalid("issued_by", "issuer required")
	}

	var note *CorrectionNote
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		inv, err := tx.GetInvoiceForUpdate(ctx, input.InvoiceID)
		if err != nil {
			return err
		}
		if inv.FinalizationStatus != StatusFinalized {
			return shared.Invalid("invoice", fmt.Sprintf("%s notes can only be issued against a finalized invoice", kind))
		}
		note = &CorrectionNote{
			ID:        uuid.NewString(),
			Kind:      kind,
			InvoiceID: inv.ID,
			Reason:    input.Reason,
			Amount:    RoundMoney(input.Amount),
			CGST:      RoundMoney(input.CGST),
			SGST:      RoundMoney(input.SGST),
			IssuedBy:  input.ActorID,
			CreatedAt: s.now(),
		}
		return tx.InsertNote(ctx, note)
	})
	if err != nil {
		return nil, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:   input.ActorID,
			Action:    "CREATE",
			TableName: string(kind) + "_notes",
			RecordID:  note.ID,
			NewValues: note,
			IPAddress: input.ActorIP,
		})
	}
	return note, nil
}

// UpdateDraftInvoice applies the typed draft-only update command.
// Finalized invoices reject it with an immutability error.
func (s *Service) UpdateDraftInvoice(ctx context.Context, id string, upd DraftInvoiceUpdate, actorID, actorIP string) (*Invoice, error) {
	if id == "" {
		return nil, shared.Invalid("id", "invoice id required")
	}
	if upd.DiscountAmount != nil && upd.DiscountAmount.Sign() < 0 {
		return nil, shared.Invalid("discount_amount", "discount must not be negative")
	}

	var before, after *Invoice
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		inv, err := tx.GetInvoiceForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if inv.FinalizationStatus == StatusFinalized {
			return shared.ErrImmutable
		}
		snapshot := *inv
		before = &snapshot

		if upd.CustomerID != nil {
			inv.CustomerID = *upd.CustomerID
		}
		if upd.InvoiceDate != nil {
			inv.InvoiceDate = *upd.InvoiceDate
		}
		if upd.PaymentMode != nil {
			inv.PaymentMode = *upd.PaymentMode
		}
		if upd.Notes != nil {
			inv.Notes = *upd.Notes
		}
		if upd.DiscountAmount != nil {
			items, err := tx.ListItems(ctx, id)
			if err != nil {
				return err
			}
			totals := CalculateInvoiceTotals(items, *upd.DiscountAmount)
			inv.DiscountAmount = RoundMoney(*upd.DiscountAmount)
			inv.Subtotal = RoundMoney(totals.Subtotal)
			inv.CGSTAmount = RoundMoney(totals.CGSTAmount)
			inv.SGSTAmount = RoundMoney(totals.SGSTAmount)
			inv.IGSTAmount = RoundMoney(totals.IGSTAmount)
			inv.TotalAmount = RoundMoney(totals.TotalAmount)
			inv.PaymentStatus = DerivePaymentStatus(inv.PaidAmount, inv.TotalAmount)
		}
		inv.UpdatedAt = s.now()
		if err := tx.UpdateDraftFields(ctx, inv); err != nil {
			return err
		}
		after = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:   actorID,
			Action:    "UPDATE",
			TableName: "invoices",
			RecordID:  id,
			OldValues: before,
			NewValues: after,
			IPAddress: actorIP,
		})
	}
	return after, nil
}

// GetInvoiceDetail assembles the invoice read model including notes and
// the corrected total (invoice total + debit notes - credit notes).
func (s *Service) GetInvoiceDetail(ctx context.Context, id string) (*InvoiceDetail, error) {
	inv, err := s.repo.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListInvoiceItems(ctx, id)
	if err != nil {
		return nil, err
	}
	payments, err := s.repo.ListPayments(ctx, id)
	if err != nil {
		return nil, err
	}
	credits, err := s.repo.ListNotes(ctx, NoteKindCredit, id)
	if err != nil {
		return nil, err
	}
	debits, err := s.repo.ListNotes(ctx, NoteKindDebit, id)
	if err != nil {
		return nil, err
	}

	corrected := inv.TotalAmount
	for _, n := range debits {
		corrected = corrected.Add(n.Amount)
	}
	for _, n := range credits {
		corrected = corrected.Sub(n.Amount)
	}

	return &InvoiceDetail{
		Invoice:        *inv,
		Items:          items,
		Payments:       payments,
		CreditNotes:    credits,
		DebitNotes:     debits,
		CorrectedTotal: corrected,
		OverpaidAmount: inv.OverpaidAmount(),
	}, nil
}

// ListInvoices returns a filtered page of invoices plus the total count.
func (s *Service) ListInvoices(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int64, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}
	if req.Limit > 200 {
		req.Limit = 200
	}
	return s.repo.ListInvoices(ctx, req)
}

// ListNotes lists credit or debit notes for an invoice.
func (s *Service) ListNotes(ctx context.Context, kind NoteKind, invoiceID string) ([]CorrectionNote, error) {
	if invoiceID == "" {
		return nil, shared.Invalid("invoice_id", "invoice id required")
	}
	return s.repo.ListNotes(ctx, kind, invoiceID)
}
