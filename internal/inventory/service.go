package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jewelms/jewelms/internal/shared"
)

// RepositoryPort defines data access for the stock ledger.
type RepositoryPort interface {
	ApplyAdjustment(ctx context.Context, t *Transaction) error
	List(ctx context.Context, req ListRequest) ([]Transaction, int64, error)
	CheckIntegrity(ctx context.Context) ([]Discrepancy, error)
	ListLowStock(ctx context.Context) ([]LowStockItem, error)
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service wraps inventory business rules.
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

// AdjustInput is a manual stock correction.
type AdjustInput struct {
	ProductID string
	Delta     int64
	Reason    string
	ActorID   string
	ActorIP   string
}

// Adjust posts a manual adjustment to the ledger and stock atomically.
func (s *Service) Adjust(ctx context.Context, in AdjustInput) (*Transaction, error) {
	if in.ProductID == "" {
		return nil, shared.Invalid("product_id", "product required")
	}
	if in.Delta == 0 {
		return nil, shared.Invalid("delta", "delta must be nonzero")
	}
	if in.Reason == "" {
		return nil, shared.Invalid("reason", "reason required")
	}
	t := &Transaction{
		ID:            uuid.NewString(),
		ProductID:     in.ProductID,
		Type:          TypeAdjustment,
		Quantity:      in.Delta,
		ReferenceType: "manual",
		Notes:         in.Reason,
		CreatedBy:     in.ActorID,
		CreatedAt:     s.now(),
	}
	if err := s.repo.ApplyAdjustment(ctx, t); err != nil {
		return nil, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:   in.ActorID,
			Action:    "CREATE",
			TableName: "inventory_transactions",
			RecordID:  t.ID,
			NewValues: t,
			IPAddress: in.ActorIP,
		})
	}
	return t, nil
}

// List returns a page of ledger entries.
func (s *Service) List(ctx context.Context, req ListRequest) ([]Transaction, int64, error) {
	if req.Limit <= 0 {
		req.Limit = 50
	}
	if req.Limit > 500 {
		req.Limit = 500
	}
	return s.repo.List(ctx, req)
}

// CheckIntegrity reports products whose ledger and stock disagree.
func (s *Service) CheckIntegrity(ctx context.Context) ([]Discrepancy, error) {
	return s.repo.CheckIntegrity(ctx)
}

// LowStock lists products at or below their minimum stock level.
func (s *Service) LowStock(ctx context.Context) ([]LowStockItem, error) {
	return s.repo.ListLowStock(ctx)
}
