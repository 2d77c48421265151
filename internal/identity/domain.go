package identity

import "time"

// Admin roles. The super-admin flag, not the role string, is authoritative
// for the bypass; the role is kept because tokens normalise from either.
const (
	RoleAdmin      = "admin"
	RoleModerator  = "moderator"
	RoleSuperAdmin = "superadmin"
)

// Admin represents an administrator account.
type Admin struct {
	ID           int64
	Username     string
	PasswordHash string
	Role         string
	IsSuperAdmin bool
	Permissions  map[string]map[string]bool
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ValidRole reports whether the role name is known.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleModerator, RoleSuperAdmin:
		return true
	}
	return false
}
