package rbac

// Role constants
const (
	RoleAdmin  = "admin"
	RoleLawyer = "lawyer"
)

// Permission constants
const (
	PermRegisterToken = "register_token"
	PermGrantRole     = "grant_role"
	PermCreditAccount = "credit_account"
	PermCreateDeal    = "create_deal"
	PermFinalizeDeal  = "finalize_deal"
	PermCancelDeal    = "cancel_deal"
)

// RolePermissions defines what each role can do. Roles are additive and never
// revoked; an address may hold both.
var RolePermissions = map[string][]string{
	RoleAdmin: {
		PermRegisterToken, PermGrantRole, PermCreditAccount,
	},
	RoleLawyer: {
		PermCreateDeal, PermFinalizeDeal, PermCancelDeal,
	},
}

// Valid reports whether the role name is a known role.
func Valid(role string) bool {
	_, ok := RolePermissions[role]
	return ok
}

// HasPermission checks if a role has a specific permission.
func HasPermission(role, permission string) bool {
	perms, ok := RolePermissions[role]
	if !ok {
		return false
	}
	for _, p := range perms {
		if p == permission {
			return true
		}
	}
	return false
}

// RoleFor returns the role required for the given permission, or "".
func RoleFor(permission string) string {
	for role, perms := range RolePermissions {
		for _, p := range perms {
			if p == permission {
				return role
			}
		}
	}
	return ""
}
