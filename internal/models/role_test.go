package models

import "testing"

func TestRoleOrdering(t *testing.T) {
	ordered := []Role{RoleReadOnly, RoleUser, RoleDeveloper, RoleAdmin}
	for i := 1; i < len(ordered); i++ {
		if ordered[i].Rank() <= ordered[i-1].Rank() {
			t.Errorf("%s should outrank %s", ordered[i], ordered[i-1])
		}
	}
}

func TestRoleAtLeast(t *testing.T) {
	tests := []struct {
		role Role
		min  Role
		want bool
	}{
		{RoleAdmin, RoleReadOnly, true},
		{RoleAdmin, RoleAdmin, true},
		{RoleDeveloper, RoleAdmin, false},
		{RoleUser, RoleUser, true},
		{RoleUser, RoleDeveloper, false},
		{RoleReadOnly, RoleUser, false},
		{Role("bogus"), RoleReadOnly, false},
	}
	for _, tt := range tests {
		if got := tt.role.AtLeast(tt.min); got != tt.want {
			t.Errorf("%s.AtLeast(%s) = %v, want %v", tt.role, tt.min, got, tt.want)
		}
	}
}

func TestParseRole(t *testing.T) {
	for _, valid := range []string{"read_only", "user", "developer", "admin"} {
		if _, err := ParseRole(valid); err != nil {
			t.Errorf("ParseRole(%q) returned error: %v", valid, err)
		}
	}
	for _, invalid := range []string{"", "superadmin", "Admin", "USER"} {
		if _, err := ParseRole(invalid); err == nil {
			t.Errorf("ParseRole(%q) should fail", invalid)
		}
	}
}
