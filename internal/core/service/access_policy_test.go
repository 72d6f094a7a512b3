package service

import (
	"testing"

	"github.com/examstack/examgate/internal/core/domain"
)

func sessionWithRole(r domain.Role) domain.Session {
	return domain.Session{
		Token: "tok",
		User:  &domain.User{ID: 1, Username: "u", Role: r},
	}
}

func TestAuthorize_PublicRouteAlwaysAllowed(t *testing.T) {
	spec := domain.RouteAuthSpec{RequiresAuth: false}

	if got := Authorize(domain.Session{}, spec); got != domain.Allow {
		t.Fatalf("empty session on public route: got %s, want allow", got)
	}
	if got := Authorize(sessionWithRole(domain.RoleStudent), spec); got != domain.Allow {
		t.Fatalf("authenticated session on public route: got %s, want allow", got)
	}
}

func TestAuthorize_EmptyTokenNeverAllowed(t *testing.T) {
	specs := []domain.RouteAuthSpec{
		{RequiresAuth: true},
		{RequiresAuth: true, AllowedRoles: []domain.Role{domain.RoleAdmin}},
		{RequiresAuth: true, AllowedRoles: []domain.Role{domain.RoleAdmin, domain.RoleTeacher, domain.RoleStudent}},
	}
	for _, spec := range specs {
		if got := Authorize(domain.Session{}, spec); got != domain.RequireLogin {
			t.Fatalf("spec %+v: got %s, want require_login", spec, got)
		}
	}
}

func TestAuthorize_AnyAuthenticatedRoleWhenUnrestricted(t *testing.T) {
	spec := domain.RouteAuthSpec{RequiresAuth: true}
	for _, r := range []domain.Role{domain.RoleAdmin, domain.RoleTeacher, domain.RoleStudent} {
		if got := Authorize(sessionWithRole(r), spec); got != domain.Allow {
			t.Fatalf("role %s: got %s, want allow", r, got)
		}
	}
}

func TestAuthorize_ExactRoleMembership(t *testing.T) {
	roles := []domain.Role{domain.RoleAdmin, domain.RoleTeacher, domain.RoleStudent}
	for _, allowed := range roles {
		spec := domain.RouteAuthSpec{RequiresAuth: true, AllowedRoles: []domain.Role{allowed}}
		for _, actual := range roles {
			got := Authorize(sessionWithRole(actual), spec)
			want := domain.Forbidden
			if actual == allowed {
				want = domain.Allow
			}
			if got != want {
				t.Fatalf("allowed=%s actual=%s: got %s, want %s", allowed, actual, got, want)
			}
		}
	}
}

func TestAuthorize_TokenWithoutUserIsForbiddenOnRestrictedRoute(t *testing.T) {
	spec := domain.RouteAuthSpec{RequiresAuth: true, AllowedRoles: []domain.Role{domain.RoleAdmin}}
	sess := domain.Session{Token: "tok"}

	if got := Authorize(sess, spec); got != domain.Forbidden {
		t.Fatalf("got %s, want forbidden", got)
	}
}
