package auth

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jewelms/jewelms/internal/shared"
)

type fakeUserRepo struct {
	users map[string]*User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*User{}}
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("user: %w", shared.ErrNotFound)
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id string) (*User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, fmt.Errorf("user: %w", shared.ErrNotFound)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) List(ctx context.Context) ([]User, error) {
	var out []User
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeUserRepo) Create(ctx context.Context, u *User) error {
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return fmt.Errorf("%w: email already registered", shared.ErrConflict)
		}
	}
	copied := *u
	f.users[u.ID] = &copied
	return nil
}

func (f *fakeUserRepo) Update(ctx context.Context, u *User) error {
	if _, ok := f.users[u.ID]; !ok {
		return fmt.Errorf("user: %w", shared.ErrNotFound)
	}
	copied := *u
	f.users[u.ID] = &copied
	return nil
}

func (f *fakeUserRepo) UpdatePassword(ctx context.Context, id, hash string) error {
	u, ok := f.users[id]
	if !ok {
		return fmt.Errorf("user: %w", shared.ErrNotFound)
	}
	u.PasswordHash = hash
	return nil
}

type fakePIN struct {
	hash string
}

func (f fakePIN) BillingPINHash(ctx context.Context) (string, error) {
	return f.hash, nil
}

func seedUser(t *testing.T, repo *fakeUserRepo, svc *Service, password string, active bool) *User {
	t.Helper()
	user, err := svc.CreateUser(context.Background(), CreateUserInput{
		Name:     "Asha",
		Email:    "asha@example.com",
		Password: password,
		Role:     RoleStaff,
	})
	require.NoError(t, err)
	if !active {
		repo.users[user.ID].IsActive = false
	}
	return user
}

func TestAuthenticate(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewService(repo, nil)
	seedUser(t, repo, svc, "correct horse", true)

	user, err := svc.Authenticate(context.Background(), "asha@example.com", "correct horse")
	require.NoError(t, err)
	require.Equal(t, "Asha", user.Name)

	_, err = svc.Authenticate(context.Background(), "asha@example.com", "wrong")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, err = svc.Authenticate(context.Background(), "nobody@example.com", "correct horse")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestAuthenticateRejectsInactiveAccount(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewService(repo, nil)
	seedUser(t, repo, svc, "correct horse", false)

	_, err := svc.Authenticate(context.Background(), "asha@example.com", "correct horse")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestVerifyBillingPIN(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("4321"), bcrypt.MinCost)
	require.NoError(t, err)

	svc := NewService(newFakeUserRepo(), fakePIN{hash: string(hash)})
	require.NoError(t, svc.VerifyBillingPIN(context.Background(), "4321"))
	require.ErrorIs(t, svc.VerifyBillingPIN(context.Background(), "0000"), shared.ErrInvalidCredentials)

	// no PIN configured means the check is open
	open := NewService(newFakeUserRepo(), fakePIN{})
	require.NoError(t, open.VerifyBillingPIN(context.Background(), "anything"))
}

func TestCreateUserValidation(t *testing.T) {
	svc := NewService(newFakeUserRepo(), nil)

	_, err := svc.CreateUser(context.Background(), CreateUserInput{
		Name: "X", Email: "x@example.com", Password: "longenough", Role: "owner",
	})
	require.Error(t, err)

	_, err = svc.CreateUser(context.Background(), CreateUserInput{
		Name: "X", Email: "x@example.com", Password: "short", Role: RoleStaff,
	})
	require.Error(t, err)
}

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewService(repo, nil)
	seedUser(t, repo, svc, "correct horse", true)

	_, err := svc.CreateUser(context.Background(), CreateUserInput{
		Name: "Other", Email: "asha@example.com", Password: "longenough", Role: RoleStaff,
	})
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestUpdateUserPartial(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewService(repo, nil)
	user := seedUser(t, repo, svc, "correct horse", true)

	role := RoleManager
	updated, err := svc.UpdateUser(context.Background(), user.ID, UpdateUserInput{Role: &role})
	require.NoError(t, err)
	require.Equal(t, RoleManager, updated.Role)
	require.Equal(t, "Asha", updated.Name)

	bad := "owner"
	_, err = svc.UpdateUser(context.Background(), user.ID, UpdateUserInput{Role: &bad})
	require.Error(t, err)
}
