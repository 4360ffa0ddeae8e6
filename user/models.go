package user

import "time"

type Role string

const (
	RoleTenant   Role = "tenant"
	RoleLandlord Role = "landlord"
	RoleAdmin    Role = "admin"
)

// User is the domain representation of a directory entry. It mirrors the
// users table and carries no JSON annotations so it can be reused by
// different presentation layers.
type User struct {
	ID        string
	Email     string
	FullName  string
	Phone     *string
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidRole reports whether the role is one of the known directory roles.
func ValidRole(role Role) bool {
	switch role {
	case RoleTenant, RoleLandlord, RoleAdmin:
		return true
	default:
		return false
	}
}
