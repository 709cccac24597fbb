package shared

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across modules.
var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrConflict indicates a concurrent modification lost the race
	// (duplicate serial number, double finalize). Callers may retry.
	ErrConflict = errors.New("conflict")
	// ErrImmutable indicates an attempt to modify protected fields of a
	// finalized invoice.
	ErrImmutable = errors.New("record is finalized and cannot be modified")
)

// ValidationError rejects a request before any write happens.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Invalid builds a ValidationError.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// StockError aborts an entire transaction when a movement would drive a
// product's stock negative.
type StockError struct {
	ProductID   string
	ProductName string
	Requested   int64
	Available   int64
}

func (e *StockError) Error() string {
	name := e.ProductName
	if name == "" {
		name = e.ProductID
	}
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d", name, e.Requested, e.Available)
}

// UserSafeMessage returns a message safe to surface to API clients.
// Internal failures collapse to a generic message.
func UserSafeMessage(err error) string {
	var vErr *ValidationError
	var sErr *StockError
	switch {
	case errors.As(err, &vErr):
		return vErr.Error()
	case errors.As(err, &sErr):
		return sErr.Error()
	case errors.Is(err, ErrNotFound):
		return "resource not found"
	case errors.Is(err, ErrImmutable):
		return ErrImmutable.Error()
	case errors.Is(err, ErrConflict):
		return "the record was modified concurrently, please retry"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid credentials"
	default:
		return "internal error"
	}
}
