package domain

import "testing"

func TestRouteTable_Lookup(t *testing.T) {
	table := DefaultRouteTable()

	tests := []struct {
		name         string
		path         string
		requiresAuth bool
		roles        []Role
	}{
		{"login is public", "/login", false, nil},
		{"dashboard allows any role", "/dashboard", true, nil},
		{"admin section", "/admin/dashboard", true, []Role{RoleAdmin}},
		{"admin group root", "/admin", true, []Role{RoleAdmin}},
		{"teacher section", "/teacher/questions", true, []Role{RoleTeacher}},
		{"student section", "/student/results", true, []Role{RoleStudent}},
		{"exam taking", "/exam/42", true, []Role{RoleStudent}},
		{"unknown path falls back", "/settings", true, nil},
		{"prefix stops at segment boundary", "/adminx", true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := table.Lookup(tt.path)
			if spec.RequiresAuth != tt.requiresAuth {
				t.Fatalf("RequiresAuth = %v, want %v", spec.RequiresAuth, tt.requiresAuth)
			}
			if len(spec.AllowedRoles) != len(tt.roles) {
				t.Fatalf("AllowedRoles = %v, want %v", spec.AllowedRoles, tt.roles)
			}
			for i, r := range tt.roles {
				if spec.AllowedRoles[i] != r {
					t.Fatalf("AllowedRoles = %v, want %v", spec.AllowedRoles, tt.roles)
				}
			}
		})
	}
}

func TestRouteTable_LongestPrefixWins(t *testing.T) {
	table := NewRouteTable().
		Group("/admin", RoleAdmin).
		Group("/admin/reports", RoleAdmin, RoleTeacher)

	spec := table.Lookup("/admin/reports/weekly")
	if !spec.RoleAllowed(RoleTeacher) {
		t.Fatalf("expected the more specific rule, got %v", spec.AllowedRoles)
	}
	if spec := table.Lookup("/admin/users"); spec.RoleAllowed(RoleTeacher) {
		t.Fatalf("expected the general rule, got %v", spec.AllowedRoles)
	}
}

func TestRoleHome(t *testing.T) {
	tests := []struct {
		role Role
		home string
		ok   bool
	}{
		{RoleAdmin, AdminHomePath, true},
		{RoleTeacher, TeacherHomePath, true},
		{RoleStudent, StudentHomePath, true},
		{Role("auditor"), "", false},
		{Role(""), "", false},
	}
	for _, tt := range tests {
		home, ok := RoleHome(tt.role)
		if home != tt.home || ok != tt.ok {
			t.Fatalf("RoleHome(%q) = %q, %v; want %q, %v", tt.role, home, ok, tt.home, tt.ok)
		}
	}
}

func TestUser_Merge(t *testing.T) {
	base := &User{ID: 2, Username: "teacher1", Email: "t1@test.com", Role: RoleTeacher}
	merged := base.Merge(&User{Phone: "13800138001", RealName: "Ms. Zhang"})

	if merged.Phone != "13800138001" || merged.RealName != "Ms. Zhang" {
		t.Fatalf("new fields not applied: %+v", merged)
	}
	if merged.Username != "teacher1" || merged.Email != "t1@test.com" || merged.Role != RoleTeacher {
		t.Fatalf("existing fields lost: %+v", merged)
	}
	if base.Phone != "" {
		t.Fatalf("merge mutated the receiver: %+v", base)
	}
}

func TestErrorMessage(t *testing.T) {
	if got := ErrorMessage(&APIError{Status: 400, Message: "bad input"}, "fallback"); got != "bad input" {
		t.Fatalf("got %q", got)
	}
	if got := ErrorMessage(ErrUnauthorized, "fallback"); got != "fallback" {
		t.Fatalf("got %q", got)
	}
	if got := ErrorMessage(nil, "fallback"); got != "fallback" {
		t.Fatalf("got %q", got)
	}
}
