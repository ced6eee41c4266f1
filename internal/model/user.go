package model

import "time"

// Roles carried in the JWT "role" claim.  Students create reservations
// for themselves; porters and admins run allocations; directors get the
// read-only oversight surface.
const (
	RoleStudent  = "STUDENT"
	RolePorter   = "PORTER"
	RoleAdmin    = "ADMIN"
	RoleDirector = "DIRECTOR"
)

// User mirrors the users table.  Identity is otherwise an external
// concern; the allocation core consumes it as an opaque id plus role.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// KnownRole reports whether the given role is one this service issues.
func KnownRole(role string) bool {
	switch role {
	case RoleStudent, RolePorter, RoleAdmin, RoleDirector:
		return true
	}
	return false
}
