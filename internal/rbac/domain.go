package rbac

import "strings"

// Role is the dashboard persona asserted by the upstream gateway.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleCashier Role = "cashier"
	RoleBuyer   Role = "buyer"
)

// Dashboard permissions.
const (
	PermInvoicesView  = "invoices.view"
	PermPaymentsView  = "payments.view"
	PermBuyersView    = "buyers.view"
	PermInventoryView = "inventory.view"
	PermAgingView     = "aging.view"
	PermExport        = "dashboard.export"
	PermRefresh       = "dashboard.refresh"
	// PermSelfView lets a buyer read their own summary.
	PermSelfView = "self.view"
)

var rolePermissions = map[Role][]string{
	RoleAdmin: {
		PermInvoicesView, PermPaymentsView, PermBuyersView, PermInventoryView,
		PermAgingView, PermExport, PermRefresh, PermSelfView,
	},
	RoleManager: {
		PermInvoicesView, PermPaymentsView, PermBuyersView, PermInventoryView,
		PermAgingView, PermExport, PermRefresh, PermSelfView,
	},
	RoleCashier: {PermInvoicesView, PermPaymentsView, PermAgingView, PermExport},
	RoleBuyer:   {PermInvoicesView, PermPaymentsView, PermSelfView},
}

// ParseRole normalises a role header value. ok is false for unknown roles.
func ParseRole(raw string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	_, ok := rolePermissions[role]
	return role, ok
}

// Permissions returns the permissions granted to role.
func Permissions(role Role) []string {
	return append([]string(nil), rolePermissions[role]...)
}

// Principal describes the authenticated actor of a request.
type Principal struct {
	UserID  string
	Role    Role
	BuyerID int64
}

// Can reports whether the principal holds perm.
func (p Principal) Can(perm string) bool {
	return hasAnyPermission(rolePermissions[p.Role], normalizePermissions([]string{perm}))
}

// BuyerScope returns the buyer every read must be restricted to. ok is false
// for staff roles, which see all buyers.
func (p Principal) BuyerScope() (int64, bool) {
	if p.Role != RoleBuyer {
		return 0, false
	}
	return p.BuyerID, true
}
