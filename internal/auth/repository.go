package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jewelms/jewelms/internal/shared"
)

// Repository provides PostgreSQL backed persistence for users.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const selectUser = `
	SELECT id, name, email, password_hash, role, is_active, created_at, updated_at
	FROM users`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role,
		&u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("user: %w", shared.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// FindByEmail looks up an account by email, case-insensitively.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := r.pool.QueryRow(ctx, selectUser+` WHERE LOWER(email) = $1`, strings.ToLower(email))
	return scanUser(row)
}

// FindByID looks up an account by id.
func (r *Repository) FindByID(ctx context.Context, id string) (*User, error) {
	row := r.pool.QueryRow(ctx, selectUser+` WHERE id = $1`, id)
	return scanUser(row)
}

// List returns all accounts, newest first.
func (r *Repository) List(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, selectUser+` ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// Create inserts a new account. A duplicate email maps to ErrConflict.
func (r *Repository) Create(ctx context.Context, u *User) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, name, email, password_hash, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Role, u.IsActive, u.CreatedAt, u.UpdatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: email already registered", shared.ErrConflict)
	}
	return err
}

// Update persists profile fields of an account.
func (r *Repository) Update(ctx context.Context, u *User) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users
		SET name = $2, email = $3, role = $4, is_active = $5, updated_at = $6
		WHERE id = $1`,
		u.ID, u.Name, u.Email, u.Role, u.IsActive, u.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: email already registered", shared.ErrConflict)
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user: %w", shared.ErrNotFound)
	}
	return nil
}

// UpdatePassword replaces the stored password hash.
func (r *Repository) UpdatePassword(ctx context.Context, id, hash string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, id, hash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user: %w", shared.ErrNotFound)
	}
	return nil
}
