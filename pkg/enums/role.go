package enums

import "fmt"

// UserRole is the authorization role carried in access tokens.
type UserRole string

const (
	UserRoleAdmin      UserRole = "admin"
	UserRoleAccountant UserRole = "accountant"
	UserRoleStaff      UserRole = "staff"
)

var validUserRoles = []UserRole{
	UserRoleAdmin,
	UserRoleAccountant,
	UserRoleStaff,
}

// IsValid reports whether the value matches the canonical role enum.
func (u UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == u {
			return true
		}
	}
	return false
}

// ParseUserRole converts the raw string to UserRole.
func ParseUserRole(value string) (UserRole, error) {
	for _, candidate := range validUserRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}

// CanPostPayments reports whether the role may collect fees and run payroll.
func (u UserRole) CanPostPayments() bool {
	return u == UserRoleAdmin || u == UserRoleAccountant
}
