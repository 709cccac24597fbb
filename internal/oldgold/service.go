package oldgold

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jewelms/jewelms/internal/pricing"
	"github.com/jewelms/jewelms/internal/shared"
)

// RepositoryPort defines data access for old-gold transactions.
type RepositoryPort interface {
	CreateTransaction(ctx context.Context, tx *Transaction) error
	GetTransaction(ctx context.Context, id string) (*Transaction, error)
	ListTransactions(ctx context.Context, req ListRequest) ([]Transaction, int64, error)
	UpdateTransaction(ctx context.Context, tx *Transaction) error
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service wraps old-gold exchange business rules.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
	now   func() time.Time
}

// NewService constructs a Service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{
		repo:  repo,
		audit: audit,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// ListRequest filters and pages transactions.
type ListRequest struct {
	CustomerID string
	Limit      int
	Offset     int
}

// ExchangeValue prices a weight of old metal at the fine rate. The
// caratage discounts the rate the same way retail pricing marks it up.
func ExchangeValue(weightGrams, purity, ratePerGram24k decimal.Decimal) (decimal.Decimal, error) {
	if weightGrams.Sign() <= 0 {
		return decimal.Zero, shared.Invalid("weight_grams", "weight must be positive")
	}
	if ratePerGram24k.Sign() <= 0 {
		return decimal.Zero, shared.Invalid("rate_per_gram", "rate must be positive")
	}
	return pricing.MetalValue(weightGrams, ratePerGram24k, purity)
}

// CreateInput carries a new buyback.
type CreateInput struct {
	CustomerID  string
	InvoiceID   string
	MetalType   string
	Purity      decimal.Decimal
	WeightGrams decimal.Decimal
	RatePerGram decimal.Decimal
	Notes       string
	ActorID     string
	ActorIP     string
}

// Create records a buyback with its derived exchange value.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Transaction, error) {
	value, err := ExchangeValue(in.WeightGrams, in.Purity, in.RatePerGram)
	if err != nil {
		return nil, err
	}
	metal := in.MetalType
	if metal == "" {
		metal = "gold"
	}
	now := s.now()
	tx := &Transaction{
		ID:            uuid.NewString(),
		CustomerID:    in.CustomerID,
		InvoiceID:     in.InvoiceID,
		MetalType:     metal,
		Purity:        in.Purity,
		WeightGrams:   in.WeightGrams,
		RatePerGram:   in.RatePerGram,
		ExchangeValue: value,
		Status:        ExchangeReceived,
		Notes:         in.Notes,
		CreatedBy:     in.ActorID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.CreateTransaction(ctx, tx); err != nil {
		return nil, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID: in.ActorID, Action: "CREATE", TableName: "old_gold_transactions",
			RecordID: tx.ID, NewValues: tx, IPAddress: in.ActorIP,
		})
	}
	return tx, nil
}

// Update carries partial changes; nil fields are left alone.
type Update struct {
	InvoiceID   *string
	Purity      *decimal.Decimal
	WeightGrams *decimal.Decimal
	RatePerGram *decimal.Decimal
	Status      *ExchangeStatus
	Notes       *string
}

// UpdateTransaction edits a buyback. The exchange value is always
// recomputed from the stored figures so it can never drift from them.
func (s *Service) UpdateTransaction(ctx context.Context, id string, upd Update, actorID, actorIP string) (*Transaction, error) {
	tx, err := s.repo.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	old := *tx
	if upd.InvoiceID != nil {
		tx.InvoiceID = *upd.InvoiceID
	}
	if upd.Purity != nil {
		tx.Purity = *upd.Purity
	}
	if upd.WeightGrams != nil {
		tx.WeightGrams = *upd.WeightGrams
	}
	if upd.RatePerGram != nil {
		tx.RatePerGram = *upd.RatePerGram
	}
	if upd.Status != nil {
		if !ValidStatus(*upd.Status) {
			return nil, shared.Invalid("status", "unknown exchange status")
		}
		tx.Status = *upd.Status
	}
	if upd.Notes != nil {
		tx.Notes = *upd.Notes
	}
	value, err := ExchangeValue(tx.WeightGrams, tx.Purity, tx.RatePerGram)
	if err != nil {
		return nil, err
	}
	tx.ExchangeValue = value
	tx.UpdatedAt = s.now()
	if err := s.repo.UpdateTransaction(ctx, tx); err != nil {
		return nil, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID: actorID, Action: "UPDATE", TableName: "old_gold_transactions",
			RecordID: id, OldValues: old, NewValues: tx, IPAddress: actorIP,
		})
	}
	return tx, nil
}

// Get fetches one transaction.
func (s *Service) Get(ctx context.Context, id string) (*Transaction, error) {
	return s.repo.GetTransaction(ctx, id)
}

// List returns transactions with a total for paging.
func (s *Service) List(ctx context.Context, req ListRequest) ([]Transaction, int64, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}
	return s.repo.ListTransactions(ctx, req)
}
