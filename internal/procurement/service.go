package procurement

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jewelms/jewelms/internal/shared"
)

// RepositoryPort defines data access for procurement.
type RepositoryPort interface {
	CreateSupplier(ctx context.Context, s *Supplier) error
	UpdateSupplier(ctx context.Context, s *Supplier) error
	GetSupplier(ctx context.Context, id string) (*Supplier, error)
	ListSuppliers(ctx context.Context) ([]Supplier, error)
	SoftDeleteSupplier(ctx context.Context, id string) error

	CreatePO(ctx context.Context, po *PurchaseOrder) error
	GetPO(ctx context.Context, id string) (*PurchaseOrder, error)
	ListPOs(ctx context.Context, status POStatus) ([]PurchaseOrder, error)
	Receive(ctx context.Context, poID string, lines []ReceiptLine, actorID string) (POStatus, error)
	CancelPO(ctx context.Context, id string) error
	NextPONumber(ctx context.Context) (string, error)
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service wraps procurement business rules.
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

// SupplierInput carries the writable supplier fields.
type SupplierInput struct {
	Name    string
	Phone   string
	Email   string
	Address string
	GSTIN   string
	Notes   string
}

// CreateSupplier registers a supplier.
func (s *Service) CreateSupplier(ctx context.Context, in SupplierInput, actorID, actorIP string) (*Supplier, error) {
	if in.Name == "" {
		return nil, shared.Invalid("name", "name required")
	}
	now := s.now()
	sup := &Supplier{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Phone:     in.Phone,
		Email:     in.Email,
		Address:   in.Address,
		GSTIN:     in.GSTIN,
		Notes:     in.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateSupplier(ctx, sup); err != nil {
		return nil, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID: actorID, Action: "CREATE", TableName: "suppliers",
			RecordID: sup.ID, NewValues: sup, IPAddress: actorIP,
		})
	}
	return sup, nil
}

// UpdateSupplier edits a supplier.
func (s *Service) UpdateSupplier(ctx context.Context, id string, in SupplierInput) (*Supplier, error) {
	if in.Name == "" {
		return nil, shared.Invalid("name", "name required")
	}
	sup, err := s.repo.GetSupplier(ctx, id)
	if err != nil {
		return nil, err
	}
	sup.Name = in.Name
	sup.Phone = in.Phone
	sup.Email = in.Email
	sup.Address = in.Address
	sup.GSTIN = in.GSTIN
	sup.Notes = in.Notes
	sup.UpdatedAt = s.now()
	if err := s.repo.UpdateSupplier(ctx, sup); err != nil {
		return nil, err
	}
	return sup, nil
}

// GetSupplier fetches a supplier.
func (s *Service) GetSupplier(ctx context.Context, id string) (*Supplier, error) {
	return s.repo.GetSupplier(ctx, id)
}

// ListSuppliers returns all live suppliers.
func (s *Service) ListSuppliers(ctx context.Context) ([]Supplier, error) {
	return s.repo.ListSuppliers(ctx)
}

// DeleteSupplier soft-deletes a supplier.
func (s *Service) DeleteSupplier(ctx context.Context, id string) error {
	return s.repo.SoftDeleteSupplier(ctx, id)
}

// POItemInput is one ordered line.
type POItemInput struct {
	ProductID string
	Quantity  int64
	UnitCost  decimal.Decimal
}

// CreatePOInput carries a new purchase order.
type CreatePOInput struct {
	SupplierID   string
	OrderDate    time.Time
	ExpectedDate time.Time
	Notes        string
	Items        []POItemInput
	ActorID      string
	ActorIP      string
}

// CreatePO places a purchase order.
func (s *Service) CreatePO(ctx context.Context, in CreatePOInput) (*PurchaseOrder, error) {
	if in.SupplierID == "" {
		return nil, shared.Invalid("supplier_id", "supplier required")
	}
	if len(in.Items) == 0 {
		return nil, shared.Invalid("items", "at least one item is required")
	}
	total := decimal.Zero
	items := make([]POItem, 0, len(in.Items))
	for _, item := range in.Items {
		if item.ProductID == "" {
			return nil, shared.Invalid("items", "product required")
		}
		if item.Quantity <= 0 {
			return nil, shared.Invalid("items", "quantity must be positive")
		}
		if item.UnitCost.Sign() < 0 {
			return nil, shared.Invalid("items", "unit cost must not be negative")
		}
		items = append(items, POItem{
			ID:        uuid.NewString(),
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitCost:  item.UnitCost,
		})
		total = total.Add(item.UnitCost.Mul(decimal.NewFromInt(item.Quantity)))
	}

	number, err := s.repo.NextPONumber(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	orderDate := in.OrderDate
	if orderDate.IsZero() {
		orderDate = now
	}
	po := &PurchaseOrder{
		ID:           uuid.NewString(),
		PONumber:     number,
		SupplierID:   in.SupplierID,
		Status:       POPending,
		OrderDate:    orderDate,
		ExpectedDate: in.ExpectedDate,
		TotalAmount:  total,
		Notes:        in.Notes,
		CreatedBy:    in.ActorID,
		CreatedAt:    now,
		UpdatedAt:    now,
		Items:        items,
	}
	if err := s.repo.CreatePO(ctx, po); err != nil {
		return nil, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID: in.ActorID, Action: "CREATE", TableName: "purchase_orders",
			RecordID: po.ID, NewValues: po, IPAddress: in.ActorIP,
		})
	}
	return po, nil
}

// GetPO fetches a purchase order with items.
func (s *Service) GetPO(ctx context.Context, id string) (*PurchaseOrder, error) {
	return s.repo.GetPO(ctx, id)
}

// ListPOs returns purchase orders, optionally filtered by status.
func (s *Service) ListPOs(ctx context.Context, status POStatus) ([]PurchaseOrder, error) {
	return s.repo.ListPOs(ctx, status)
}

// ReceiveInput records goods received against a purchase order.
type ReceiveInput struct {
	POID    string
	Lines   []ReceiptLine
	ActorID string
	ActorIP string
}

// Receive posts a (possibly partial) receipt: stock, ledger and PO state
// move together or not at all.
func (s *Service) Receive(ctx context.Context, in ReceiveInput) (*PurchaseOrder, error) {
	if in.POID == "" {
		return nil, shared.Invalid("po_id", "purchase order required")
	}
	if len(in.Lines) == 0 {
		return nil, shared.Invalid("lines", "at least one receipt line is required")
	}
	for _, line := range in.Lines {
		if line.ItemID == "" || line.Quantity <= 0 {
			return nil, shared.Invalid("lines", "each line needs an item and a positive quantity")
		}
	}
	status, err := s.repo.Receive(ctx, in.POID, in.Lines, in.ActorID)
	if err != nil {
		return nil, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID: in.ActorID, Action: "UPDATE", TableName: "purchase_orders",
			RecordID: in.POID,
			NewValues: map[string]any{"event": "PO_RECEIVED", "status": status, "lines": in.Lines},
			IPAddress: in.ActorIP,
		})
	}
	return s.repo.GetPO(ctx, in.POID)
}

// CancelPO cancels a pending purchase order.
func (s *Service) CancelPO(ctx context.Context, id, actorID, actorIP string) error {
	if err := s.repo.CancelPO(ctx, id); err != nil {
		return err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID: actorID, Action: "UPDATE", TableName: "purchase_orders",
			RecordID: id, NewValues: map[string]any{"status": POCancelled}, IPAddress: actorIP,
		})
	}
	return nil
}
