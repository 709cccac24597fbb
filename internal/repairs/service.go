package repairs

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jewelms/jewelms/internal/shared"
)

// RepositoryPort defines data access for repair jobs.
type RepositoryPort interface {
	CreateRepair(ctx context.Context, rep *Repair) error
	GetRepair(ctx context.Context, id string) (*Repair, error)
	ListRepairs(ctx context.Context, status RepairStatus) ([]Repair, error)
	UpdateRepair(ctx context.Context, rep *Repair) error
	UpdateStatus(ctx context.Context, id string, status RepairStatus, deliveredAt time.Time) error
	NextRepairNumber(ctx context.Context) (string, error)
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service wraps repair-desk business rules.
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

// CreateRepairInput carries a new repair intake.
type CreateRepairInput struct {
	CustomerID       string
	ItemDescription  string
	IssueDescription string
	ReceivedDate     time.Time
	ExpectedDate     time.Time
	EstimatedCost    decimal.Decimal
	AdvancePaid      decimal.Decimal
	AssignedTo       string
	Notes            string
	ActorID          string
	ActorIP          string
}

// CreateRepair takes in a piece at the counter.
func (s *Service) CreateRepair(ctx context.Context, in CreateRepairInput) (*Repair, error) {
	if in.CustomerID == "" {
		return nil, shared.Invalid("customer_id", "customer required")
	}
	if in.ItemDescription == "" {
		return nil, shared.Invalid("item_description", "item description required")
	}
	if in.IssueDescription == "" {
		return nil, shared.Invalid("issue_description", "issue description required")
	}
	if in.EstimatedCost.Sign() < 0 || in.AdvancePaid.Sign() < 0 {
		return nil, shared.Invalid("estimated_cost", "costs must not be negative")
	}

	number, err := s.repo.NextRepairNumber(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	received := in.ReceivedDate
	if received.IsZero() {
		received = now
	}
	rep := &Repair{
		ID:               uuid.NewString(),
		RepairNumber:     number,
		CustomerID:       in.CustomerID,
		ItemDescription:  in.ItemDescription,
		IssueDescription: in.IssueDescription,
		Status:           RepairReceived,
		ReceivedDate:     received,
		ExpectedDate:     in.ExpectedDate,
		EstimatedCost:    in.EstimatedCost,
		AdvancePaid:      in.AdvancePaid,
		AssignedTo:       in.AssignedTo,
		Notes:            in.Notes,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.repo.CreateRepair(ctx, rep); err != nil {
		return nil, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID: in.ActorID, Action: "CREATE", TableName: "repairs",
			RecordID: rep.ID, NewValues: rep, IPAddress: in.ActorIP,
		})
	}
	return rep, nil
}

// RepairUpdate carries partial changes; nil fields are left alone.
type RepairUpdate struct {
	ItemDescription  *string
	IssueDescription *string
	ExpectedDate     *time.Time
	EstimatedCost    *decimal.Decimal
	FinalCost        *decimal.Decimal
	AdvancePaid      *decimal.Decimal
	AssignedTo       *string
	Notes            *string
}

// UpdateRepair edits intake details. Status changes go through
// UpdateStatus so the delivered date stays consistent.
func (s *Service) UpdateRepair(ctx context.Context, id string, upd RepairUpdate, actorID, actorIP string) (*Repair, error) {
	rep, err := s.repo.GetRepair(ctx, id)
	if err != nil {
		return nil, err
	}
	old := *rep
	if upd.ItemDescription != nil {
		if *upd.ItemDescription == "" {
			return nil, shared.Invalid("item_description", "item description required")
		}
		rep.ItemDescription = *upd.ItemDescription
	}
	if upd.IssueDescription != nil {
		rep.IssueDescription = *upd.IssueDescription
	}
	if upd.ExpectedDate != nil {
		rep.ExpectedDate = *upd.ExpectedDate
	}
	if upd.EstimatedCost != nil {
		rep.EstimatedCost = *upd.EstimatedCost
	}
	if upd.FinalCost != nil {
		rep.FinalCost = *upd.FinalCost
	}
	if upd.AdvancePaid != nil {
		rep.AdvancePaid = *upd.AdvancePaid
	}
	if upd.AssignedTo != nil {
		rep.AssignedTo = *upd.AssignedTo
	}
	if upd.Notes != nil {
		rep.Notes = *upd.Notes
	}
	if rep.EstimatedCost.Sign() < 0 || rep.FinalCost.Sign() < 0 || rep.AdvancePaid.Sign() < 0 {
		return nil, shared.Invalid("final_cost", "costs must not be negative")
	}
	rep.UpdatedAt = s.now()
	if err := s.repo.UpdateRepair(ctx, rep); err != nil {
		return nil, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID: actorID, Action: "UPDATE", TableName: "repairs",
			RecordID: id, OldValues: old, NewValues: rep, IPAddress: actorIP,
		})
	}
	return rep, nil
}

// UpdateStatus moves a repair along the counter flow. Delivering stamps
// the delivered date; a delivered repair never changes again.
func (s *Service) UpdateStatus(ctx context.Context, id string, status RepairStatus, actorID, actorIP string) (*Repair, error) {
	if !ValidStatus(status) {
		return nil, shared.Invalid("status", "unknown repair status")
	}
	var deliveredAt time.Time
	if status == RepairDelivered {
		deliveredAt = s.now()
	}
	if err := s.repo.UpdateStatus(ctx, id, status, deliveredAt); err != nil {
		return nil, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID: actorID, Action: "UPDATE", TableName: "repairs",
			RecordID: id, NewValues: map[string]any{"status": status}, IPAddress: actorIP,
		})
	}
	return s.repo.GetRepair(ctx, id)
}

// GetRepair fetches one repair.
func (s *Service) GetRepair(ctx context.Context, id string) (*Repair, error) {
	return s.repo.GetRepair(ctx, id)
}

// ListRepairs returns repairs, optionally filtered by status.
func (s *Service) ListRepairs(ctx context.Context, status RepairStatus) ([]Repair, error) {
	if status != "" && !ValidStatus(status) {
		return nil, shared.Invalid("status", "unknown repair status")
	}
	return s.repo.ListRepairs(ctx, status)
}
