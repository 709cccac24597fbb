package customers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/jewelms/jewelms/internal/shared"
)

// Customer is a retail customer. TotalPurchases and LoyaltyPoints are
// aggregates owned by billing; this module never writes them.
type Customer struct {
	ID             string
	Name           string
	Phone          string
	Email          string
	Address        string
	GSTIN          string
	TotalPurchases decimal.Decimal
	LoyaltyPoints  int64
	Notes          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Input carries the writable customer fields.
type Input struct {
	Name    string
	Phone   string
	Email   string
	Address string
	GSTIN   string
	Notes   string
}

// SearchRequest filters customer listings.
type SearchRequest struct {
	Query  string
	Limit  int
	Offset int
}

// Repository provides PostgreSQL backed persistence for customers.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const selectCustomer = `
	SELECT id, name, COALESCE(phone, ''), COALESCE(email, ''),
		COALESCE(address, ''), COALESCE(gstin, ''),
		total_purchases, loyalty_points, COALESCE(notes, ''),
		created_at, updated_at
	FROM customers`

func scanCustomer(row pgx.Row) (*Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.Email,
		&c.Address, &c.GSTIN,
		&c.TotalPurchases, &c.LoyaltyPoints, &c.Notes,
		&c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("customer: %w", shared.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a customer.
func (r *Repository) Create(ctx context.Context, c *Customer) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO customers (id, name, phone, email, address, gstin, notes,
			total_purchases, loyalty_points, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, NULLIF($6, ''), $7, 0, 0, $8, $9)`,
		c.ID, c.Name, c.Phone, c.Email, c.Address, c.GSTIN, c.Notes,
		c.CreatedAt, c.UpdatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: phone already registered", shared.ErrConflict)
	}
	return err
}

// Update persists profile fields; the purchase aggregates stay untouched.
func (r *Repository) Update(ctx context.Context, c *Customer) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE customers
		SET name = $2, phone = NULLIF($3, ''), email = NULLIF($4, ''),
			address = $5, gstin = NULLIF($6, ''), notes = $7, updated_at = $8
		WHERE id = $1 AND deleted_at IS NULL`,
		c.ID, c.Name, c.Phone, c.Email, c.Address, c.GSTIN, c.Notes, c.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: phone already registered", shared.ErrConflict)
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("customer: %w", shared.ErrNotFound)
	}
	return nil
}

// Get fetches one live customer.
func (r *Repository) Get(ctx context.Context, id string) (*Customer, error) {
	return scanCustomer(r.pool.QueryRow(ctx, selectCustomer+` WHERE id = $1 AND deleted_at IS NULL`, id))
}

// SoftDelete marks a customer deleted; invoices keep their reference.
func (r *Repository) SoftDelete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE customers SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("customer: %w", shared.ErrNotFound)
	}
	return nil
}

// Search filters live customers by name, phone or email.
func (r *Repository) Search(ctx context.Context, req SearchRequest) ([]Customer, int64, error) {
	where := ` WHERE deleted_at IS NULL`
	args := []any{}
	argNum := 1

	if req.Query != "" {
		where += fmt.Sprintf(" AND (name ILIKE $%d OR phone ILIKE $%d OR email ILIKE $%d)", argNum, argNum, argNum)
		args = append(args, "%"+req.Query+"%")
		argNum++
	}

	var total int64
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM customers"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := selectCustomer + where + " ORDER BY name"
	if req.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, req.Limit)
		argNum++
	}
	if req.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argNum)
		args = append(args, req.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, err
		}
		customers = append(customers, *c)
	}
	return customers, total, rows.Err()
}

// RepositoryPort defines data access for customers.
type RepositoryPort interface {
	Create(ctx context.Context, c *Customer) error
	Update(ctx context.Context, c *Customer) error
	Get(ctx context.Context, id string) (*Customer, error)
	SoftDelete(ctx context.Context, id string) error
	Search(ctx context.Context, req SearchRequest) ([]Customer, int64, error)
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service wraps customer business rules.
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

// Create registers a customer.
func (s *Service) Create(ctx context.Context, in Input, actorID, actorIP string) (*Customer, error) {
	if in.Name == "" {
		return nil, shared.Invalid("name", "name required")
	}
	now := s.now()
	c := &Customer{
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
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID: actorID, Action: "CREATE", TableName: "customers",
			RecordID: c.ID, NewValues: c, IPAddress: actorIP,
		})
	}
	return c, nil
}

// Update edits a customer profile.
func (s *Service) Update(ctx context.Context, id string, in Input, actorID, actorIP string) (*Customer, error) {
	if in.Name == "" {
		return nil, shared.Invalid("name", "name required")
	}
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	before := *c
	c.Name = in.Name
	c.Phone = in.Phone
	c.Email = in.Email
	c.Address = in.Address
	c.GSTIN = in.GSTIN
	c.Notes = in.Notes
	c.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID: actorID, Action: "UPDATE", TableName: "customers",
			RecordID: c.ID, OldValues: before, NewValues: c, IPAddress: actorIP,
		})
	}
	return c, nil
}

// Get fetches a customer.
func (s *Service) Get(ctx context.Context, id string) (*Customer, error) {
	return s.repo.Get(ctx, id)
}

// Delete soft-deletes a customer.
func (s *Service) Delete(ctx context.Context, id, actorID, actorIP string) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID: actorID, Action: "DELETE", TableName: "customers",
			RecordID: id, IPAddress: actorIP,
		})
	}
	return nil
}

// Search lists customers matching the filter.
func (s *Service) Search(ctx context.Context, req SearchRequest) ([]Customer, int64, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}
	if req.Limit > 200 {
		req.Limit = 200
	}
	return s.repo.Search(ctx, req)
}
