package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jewelms/jewelms/internal/pricing"
	"github.com/jewelms/jewelms/internal/shared"
)

// RepositoryPort defines data access for the catalog.
type RepositoryPort interface {
	CreateCategory(ctx context.Context, c *Category) error
	UpdateCategory(ctx context.Context, c *Category) error
	GetCategory(ctx context.Context, id string) (*Category, error)
	ListCategories(ctx context.Context) ([]Category, error)
	DeleteCategory(ctx context.Context, id string) error

	CreateProduct(ctx context.Context, p *Product, actorID string) error
	UpdateProduct(ctx context.Context, p *Product) error
	GetProduct(ctx context.Context, id string) (*Product, error)
	SoftDeleteProduct(ctx context.Context, id string) error
	SearchProducts(ctx context.Context, req SearchRequest) ([]Product, int64, error)
}

// RatePort resolves the current metal rate used for live price quotes.
type RatePort interface {
	Latest(ctx context.Context, metalType string, purity decimal.Decimal, onOrBefore time.Time) (*pricing.MetalRate, error)
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// SearchRequest filters product listings.
type SearchRequest struct {
	Query      string
	CategoryID string
	ActiveOnly bool
	Limit      int
	Offset     int
}

// Service wraps catalog business rules.
type Service struct {
	repo  RepositoryPort
	rates RatePort
	audit AuditPort
	now   func() time.Time
}

// NewService constructs a Service.
func NewService(repo RepositoryPort, rates RatePort, audit AuditPort) *Service {
	return &Service{
		repo:  repo,
		rates: rates,
		audit: audit,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// CreateCategory adds a category.
func (s *Service) CreateCategory(ctx context.Context, name, description string) (*Category, error) {
	if name == "" {
		return nil, shared.Invalid("name", "name required")
	}
	now := s.now()
	c := &Category{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateCategory(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateCategory renames a category.
func (s *Service) UpdateCategory(ctx context.Context, id, name, description string) (*Category, error) {
	c, err := s.repo.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	if name != "" {
		c.Name = name
	}
	c.Description = description
	c.UpdatedAt = s.now()
	if err := s.repo.UpdateCategory(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// ListCategories returns all categories.
func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	return s.repo.ListCategories(ctx)
}

// DeleteCategory removes a category.
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	return s.repo.DeleteCategory(ctx, id)
}

// ProductInput carries the writable product fields.
type ProductInput struct {
	SKU           string
	Barcode       string
	Name          string
	CategoryID    string
	HSNCode       string
	MetalType     string
	Purity        decimal.Decimal
	WeightGrams   decimal.Decimal
	BasePrice     decimal.Decimal
	SellingPrice  decimal.Decimal
	MakingCharges decimal.Decimal
	WastagePct    decimal.Decimal
	StoneCharges  decimal.Decimal
	OpeningStock  int64
	MinStock      int64
	IsActive      bool
}

func validateProduct(in ProductInput) error {
	if in.Name == "" {
		return shared.Invalid("name", "name required")
	}
	if in.WeightGrams.Sign() < 0 {
		return shared.Invalid("weight_grams", "weight must not be negative")
	}
	if in.BasePrice.Sign() < 0 || in.SellingPrice.Sign() < 0 {
		return shared.Invalid("price", "prices must not be negative")
	}
	if in.OpeningStock < 0 || in.MinStock < 0 {
		return shared.Invalid("stock", "stock must not be negative")
	}
	if in.Purity.Sign() != 0 {
		if _, err := pricing.PurityFactor(in.Purity); err != nil {
			return err
		}
	}
	return nil
}

// CreateProduct registers a new product with its opening stock.
func (s *Service) CreateProduct(ctx context.Context, in ProductInput, actorID, actorIP string) (*Product, error) {
	if err := validateProduct(in); err != nil {
		return nil, err
	}
	now := s.now()
	p := &Product{
		ID:            uuid.NewString(),
		SKU:           in.SKU,
		Barcode:       in.Barcode,
		Name:          in.Name,
		CategoryID:    in.CategoryID,
		HSNCode:       in.HSNCode,
		MetalType:     in.MetalType,
		Purity:        in.Purity,
		WeightGrams:   in.WeightGrams,
		BasePrice:     in.BasePrice,
		SellingPrice:  in.SellingPrice,
		MakingCharges: in.MakingCharges,
		WastagePct:    in.WastagePct,
		StoneCharges:  in.StoneCharges,
		StockQty:      in.OpeningStock,
		MinStock:      in.MinStock,
		IsActive:      in.IsActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.CreateProduct(ctx, p, actorID); err != nil {
		return nil, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:   actorID,
			Action:    "CREATE",
			TableName: "products",
			RecordID:  p.ID,
			NewValues: p,
			IPAddress: actorIP,
		})
	}
	return p, nil
}

// UpdateProduct edits catalog fields; stock is untouched.
func (s *Service) UpdateProduct(ctx context.Context, id string, in ProductInput, actorID, actorIP string) (*Product, error) {
	if err := validateProduct(in); err != nil {
		return nil, err
	}
	p, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	before := *p

	p.SKU = in.SKU
	p.Barcode = in.Barcode
	p.Name = in.Name
	p.CategoryID = in.CategoryID
	p.HSNCode = in.HSNCode
	p.MetalType = in.MetalType
	p.Purity = in.Purity
	p.WeightGrams = in.WeightGrams
	p.BasePrice = in.BasePrice
	p.SellingPrice = in.SellingPrice
	p.MakingCharges = in.MakingCharges
	p.WastagePct = in.WastagePct
	p.StoneCharges = in.StoneCharges
	p.MinStock = in.MinStock
	p.IsActive = in.IsActive
	p.UpdatedAt = s.now()

	if err := s.repo.UpdateProduct(ctx, p); err != nil {
		return nil, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:   actorID,
			Action:    "UPDATE",
			TableName: "products",
			RecordID:  p.ID,
			OldValues: before,
			NewValues: p,
			IPAddress: actorIP,
		})
	}
	return p, nil
}

// GetProduct fetches a product.
func (s *Service) GetProduct(ctx context.Context, id string) (*Product, error) {
	return s.repo.GetProduct(ctx, id)
}

// DeleteProduct soft-deletes a product.
func (s *Service) DeleteProduct(ctx context.Context, id, actorID, actorIP string) error {
	if err := s.repo.SoftDeleteProduct(ctx, id); err != nil {
		return err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:   actorID,
			Action:    "DELETE",
			TableName: "products",
			RecordID:  id,
			IPAddress: actorIP,
		})
	}
	return nil
}

// Search lists products matching the filter.
func (s *Service) Search(ctx context.Context, req SearchRequest) ([]Product, int64, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}
	if req.Limit > 200 {
		req.Limit = 200
	}
	return s.repo.SearchProducts(ctx, req)
}

// QuotePrice computes a live price from the latest metal rate. Products
// without metal parameters fall back to the stored selling price.
func (s *Service) QuotePrice(ctx context.Context, id string) (*pricing.Quote, error) {
	p, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.rates == nil || p.MetalType == "" || p.Purity.Sign() == 0 || p.WeightGrams.Sign() == 0 {
		return &pricing.Quote{Total: p.SellingPrice}, nil
	}
	rate, err := s.rates.Latest(ctx, p.MetalType, p.Purity, s.now())
	if err != nil {
		return nil, err
	}
	// the published rate is already for this purity, so price at face
	// caratage using the fine-basis helper with a 24K factor of 1
	quote, err := pricing.ComputeQuote(pricing.QuoteInput{
		WeightGrams:    p.WeightGrams,
		Carat:          decimal.NewFromInt(24),
		RatePerGram24k: rate.RatePerGram,
		WastagePct:     p.WastagePct,
		MakingMode:     pricing.MakingFlat,
		MakingRate:     p.MakingCharges,
		StoneCharges:   p.StoneCharges,
	})
	if err != nil {
		return nil, err
	}
	return &quote, nil
}
