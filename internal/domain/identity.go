package domain

// Role enumerates store roles.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleEmployee:
		return true
	}
	return false
}

// IsStaffLead reports whether the role may act on behalf of the store.
func (r Role) IsStaffLead() bool {
	return r == RoleAdmin || r == RoleManager
}

// Identity is the authenticated caller, resolved once per request.
type Identity struct {
	UserID  string
	Role    Role
	StoreID string
	Name    string
	Email   string
}
