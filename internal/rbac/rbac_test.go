package rbac

import "testing"

func TestValid(t *testing.T) {
	if !Valid(RoleAdmin) || !Valid(RoleLawyer) {
		t.Error("admin and lawyer must be valid roles")
	}
	if Valid("superuser") || Valid("") {
		t.Error("unknown roles must be invalid")
	}
}

func TestHasPermission(t *testing.T) {
	tests := []struct {
		role       string
		permission string
		expected   bool
	}{
		{RoleAdmin, PermRegisterToken, true},
		{RoleAdmin, PermGrantRole, true},
		{RoleAdmin, PermCreditAccount, true},
		{RoleLawyer, PermCreateDeal, true},
		{RoleLawyer, PermFinalizeDeal, true},
		{RoleLawyer, PermCancelDeal, true},

		// Admins do not broker deals and lawyers do not run the registry.
		{RoleAdmin, PermCreateDeal, false},
		{RoleAdmin, PermFinalizeDeal, false},
		{RoleLawyer, PermRegisterToken, false},
		{RoleLawyer, PermGrantRole, false},
		{RoleLawyer, PermCreditAccount, false},
		{"unknown", PermCreateDeal, false},
	}

	for _, tt := range tests {
		t.Run(tt.role+"/"+tt.permission, func(t *testing.T) {
			if got := HasPermission(tt.role, tt.permission); got != tt.expected {
				t.Errorf("HasPermission(%q, %q) = %v, want %v", tt.role, tt.permission, got, tt.expected)
			}
		})
	}
}

func TestRoleFor(t *testing.T) {
	if got := RoleFor(PermFinalizeDeal); got != RoleLawyer {
		t.Errorf("RoleFor(finalize_deal) = %q, want lawyer", got)
	}
	if got := RoleFor(PermRegisterToken); got != RoleAdmin {
		t.Errorf("RoleFor(register_token) = %q, want admin", got)
	}
	if got := RoleFor("fly"); got != "" {
		t.Errorf("RoleFor(unknown) = %q, want empty", got)
	}
}
