package production

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jewelms/jewelms/internal/shared"
)

// RepositoryPort defines data access for production jobs.
type RepositoryPort interface {
	CreateJob(ctx context.Context, j *Job) error
	GetJob(ctx context.Context, id string) (*Job, error)
	ListJobs(ctx context.Context, status JobStatus) ([]Job, error)
	StartJob(ctx context.Context, id, actorID string) error
	CompleteJob(ctx context.Context, id, actorID string) error
	CancelJob(ctx context.Context, id string) error
	NextJobNumber(ctx context.Context) (string, error)
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service wraps production business rules.
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

// ComponentInput is one BOM line.
type ComponentInput struct {
	ProductID string
	Quantity  int64
}

// CreateJobInput carries a new production job.
type CreateJobInput struct {
	OutputProductID string
	OutputQty       int64
	Notes           string
	Components      []ComponentInput
	ActorID         string
	ActorIP         string
}

// CreateJob registers a pending job with its BOM.
func (s *Service) CreateJob(ctx context.Context, in CreateJobInput) (*Job, error) {
	if in.OutputProductID == "" {
		return nil, shared.Invalid("output_product_id", "output product required")
	}
	if in.OutputQty <= 0 {
		return nil, shared.Invalid("output_qty", "output quantity must be positive")
	}
	if len(in.Components) == 0 {
		return nil, shared.Invalid("components", "at least one component is required")
	}
	components := make([]BOMItem, 0, len(in.Components))
	for _, c := range in.Components {
		if c.ProductID == "" || c.Quantity <= 0 {
			return nil, shared.Invalid("components", "each component needs a product and positive quantity")
		}
		components = append(components, BOMItem{
			ID:        uuid.NewString(),
			ProductID: c.ProductID,
			Quantity:  c.Quantity,
		})
	}

	number, err := s.repo.NextJobNumber(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	job := &Job{
		ID:              uuid.NewString(),
		JobNumber:       number,
		OutputProductID: in.OutputProductID,
		OutputQty:       in.OutputQty,
		Status:          JobPending,
		Notes:           in.Notes,
		CreatedBy:       in.ActorID,
		CreatedAt:       now,
		UpdatedAt:       now,
		Components:      components,
	}
	if err := s.repo.CreateJob(ctx, job); err != nil {
		return nil, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID: in.ActorID, Action: "CREATE", TableName: "production_jobs",
			RecordID: job.ID, NewValues: job, IPAddress: in.ActorIP,
		})
	}
	return job, nil
}

// StartJob consumes components and moves the job to in_progress.
func (s *Service) StartJob(ctx context.Context, id, actorID, actorIP string) (*Job, error) {
	if err := s.repo.StartJob(ctx, id, actorID); err != nil {
		return nil, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID: actorID, Action: "UPDATE", TableName: "production_jobs",
			RecordID: id, NewValues: map[string]any{"status": JobInProgress}, IPAddress: actorIP,
		})
	}
	return s.repo.GetJob(ctx, id)
}

// CompleteJob adds the finished stock and moves the job to completed.
func (s *Service) CompleteJob(ctx context.Context, id, actorID, actorIP string) (*Job, error) {
	if err := s.repo.CompleteJob(ctx, id, actorID); err != nil {
		return nil, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID: actorID, Action: "UPDATE", TableName: "production_jobs",
			RecordID: id, NewValues: map[string]any{"status": JobCompleted}, IPAddress: actorIP,
		})
	}
	return s.repo.GetJob(ctx, id)
}

// CancelJob cancels a pending job.
func (s *Service) CancelJob(ctx context.Context, id, actorID, actorIP string) error {
	if err := s.repo.CancelJob(ctx, id); err != nil {
		return err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID: actorID, Action: "UPDATE", TableName: "production_jobs",
			RecordID: id, NewValues: map[string]any{"status": JobCancelled}, IPAddress: actorIP,
		})
	}
	return nil
}

// GetJob fetches a job with its BOM.
func (s *Service) GetJob(ctx context.Context, id string) (*Job, error) {
	return s.repo.GetJob(ctx, id)
}

// ListJobs returns jobs, optionally filtered by status.
func (s *Service) ListJobs(ctx context.Context, status JobStatus) ([]Job, error) {
	return s.repo.ListJobs(ctx, status)
}
