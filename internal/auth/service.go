package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jewelms/jewelms/internal/shared"
)

// RepositoryPort defines data access for accounts.
type RepositoryPort interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	List(ctx context.Context) ([]User, error)
	Create(ctx context.Context, u *User) error
	Update(ctx context.Context, u *User) error
	UpdatePassword(ctx context.Context, id, hash string) error
}

// PINPort resolves the billing supervisor PIN hash, typically backed by
// the settings store. An empty hash disables the PIN check.
type PINPort interface {
	BillingPINHash(ctx context.Context) (string, error)
}

// Service wraps authentication business rules.
type Service struct {
	repo RepositoryPort
	pin  PINPort
	now  func() time.Time
}

// NewService constructs a new Service.
func NewService(repo RepositoryPort, pin PINPort) *Service {
	return &Service{
		repo: repo,
		pin:  pin,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// VerifyBillingPIN checks the supervisor PIN used to unlock sensitive
// billing actions. Returns nil when no PIN is configured.
func (s *Service) VerifyBillingPIN(ctx context.Context, pin string) error {
	if s.pin == nil {
		return nil
	}
	hash, err := s.pin.BillingPINHash(ctx)
	if err != nil {
		return err
	}
	if hash == "" {
		return nil
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)); err != nil {
		return shared.ErrInvalidCredentials
	}
	return nil
}

// CreateUserInput carries new account fields.
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// CreateUser registers a new account with a bcrypt password hash.
func (s *Service) CreateUser(ctx context.Context, input CreateUserInput) (*User, error) {
	if !ValidRole(input.Role) {
		return nil, shared.Invalid("role", "must be admin, manager or staff")
	}
	if len(input.Password) < 8 {
		return nil, shared.Invalid("password", "must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := s.now()
	user := &User{
		ID:           uuid.NewString(),
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: string(hash),
		Role:         input.Role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateUserInput is the typed update command for accounts. Nil fields
// are left unchanged.
type UpdateUserInput struct {
	Name     *string
	Email    *string
	Role     *string
	IsActive *bool
}

// UpdateUser applies profile changes to an account.
func (s *Service) UpdateUser(ctx context.Context, id string, input UpdateUserInput) (*User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.Email != nil {
		user.Email = *input.Email
	}
	if input.Role != nil {
		if !ValidRole(*input.Role) {
			return nil, shared.Invalid("role", "must be admin, manager or staff")
		}
		user.Role = *input.Role
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}
	user.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ChangePassword replaces an account's password.
func (s *Service) ChangePassword(ctx context.Context, id, password string) error {
	if len(password) < 8 {
		return shared.Invalid("password", "must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, id, string(hash))
}

// ListUsers returns all accounts.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// GetUser returns a single account.
func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	return s.repo.FindByID(ctx, id)
}
