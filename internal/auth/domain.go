package auth

import "time"

// Roles ordered by privilege. Admin manages users and settings, manager
// finalizes invoices and issues correction notes, staff runs the counter.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleStaff   = "staff"
)

// ValidRole reports whether the role is one of the known roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleManager, RoleStaff:
		return true
	}
	return false
}

// User is a back-office account.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
