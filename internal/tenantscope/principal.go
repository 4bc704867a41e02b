package tenantscope

import "fmt"

// Role is the user's role within their home tenant.
type Role string

const (
	// RoleAdmin is the only role with cross-tenant read visibility.
	RoleAdmin    Role = "ADMIN"
	RoleManager  Role = "MANAGER"
	RoleOperator Role = "OPERATOR"
	RoleViewer   Role = "VIEWER"
)

// Valid reports whether the role is one of the declared roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleOperator, RoleViewer:
		return true
	default:
		return false
	}
}

// Principal is the authenticated actor for one request. It is constructed
// once by the auth middleware from session claims, passed explicitly into
// every resolver call, and never persisted. Every user, including admins,
// has exactly one home tenant used for mutation attribution.
type Principal struct {
	UserID   uint
	TenantID uint
	Role     Role
}

// IsAdmin reports whether the principal has cross-tenant visibility.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// String returns a compact representation for audit logs.
func (p Principal) String() string {
	return fmt.Sprintf("user:%d tenant:%d role:%s", p.UserID, p.TenantID, p.Role)
}
