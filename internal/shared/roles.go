package shared

import "strings"

// Role is the account type stored on every user.
type Role string

// Supported roles.
const (
	RoleAdmin          Role = "ADMIN"
	RolePrincipal      Role = "PRINCIPAL"
	RoleTeacher        Role = "TEACHER"
	RoleStudent        Role = "STUDENT"
	RoleParent         Role = "PARENT"
	RoleAccountant     Role = "ACCOUNTANT"
	RoleLibrarian      Role = "LIBRARIAN"
	RoleTransportStaff Role = "TRANSPORT_STAFF"
)

// AllRoles lists every role in declaration order.
func AllRoles() []Role {
	return []Role{
		RoleAdmin,
		RolePrincipal,
		RoleTeacher,
		RoleStudent,
		RoleParent,
		RoleAccountant,
		RoleLibrarian,
		RoleTransportStaff,
	}
}

// ParseRole normalises raw input into a known Role.
func ParseRole(raw string) (Role, bool) {
	role := Role(strings.ToUpper(strings.TrimSpace(raw)))
	return role, role.Valid()
}

// Valid reports whether r is one of the supported roles.
func (r Role) Valid() bool {
	for _, known := range AllRoles() {
		if r == known {
			return true
		}
	}
	return false
}

// IsStaff reports whether the role is backed by a staff record.
func (r Role) IsStaff() bool {
	switch r {
	case RoleTeacher, RoleAccountant, RoleLibrarian, RoleTransportStaff:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// HasRole reports whether role appears in roles.
func HasRole(roles []Role, role Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
