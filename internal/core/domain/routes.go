package domain

import "strings"

// Well-known paths the guard redirects to.
const (
	LoginPath         = "/login"
	AdminHomePath     = "/admin/dashboard"
	TeacherHomePath   = "/teacher/dashboard"
	StudentHomePath   = "/student/dashboard"
	DashboardRedirect = "/dashboard"
)

// RoleHome returns the landing page for a role. Unknown roles have no
// home; the guard sends those to the login page.
func RoleHome(r Role) (string, bool) {
	switch r {
	case RoleAdmin:
		return AdminHomePath, true
	case RoleTeacher:
		return TeacherHomePath, true
	case RoleStudent:
		return StudentHomePath, true
	}
	return "", false
}

// Decision is the access policy's three-way outcome.
type Decision int

const (
	Allow Decision = iota
	RequireLogin
	Forbidden
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RequireLogin:
		return "require_login"
	case Forbidden:
		return "forbidden"
	}
	return "unknown"
}

// RouteAuthSpec is the declarative requirement attached to a route group.
// An empty AllowedRoles set means any authenticated role suffices.
type RouteAuthSpec struct {
	RequiresAuth bool
	AllowedRoles []Role
}

// RoleAllowed applies exact-set inclusion over AllowedRoles.
func (s RouteAuthSpec) RoleAllowed(r Role) bool {
	for _, allowed := range s.AllowedRoles {
		if allowed == r {
			return true
		}
	}
	return false
}

type routeRule struct {
	prefix string
	exact  bool
	spec   RouteAuthSpec
}

// RouteTable resolves a navigation target to its auth requirement.
// Paths that match no rule fall back to the default spec: authentication
// required, any role.
type RouteTable struct {
	rules    []routeRule
	fallback RouteAuthSpec
}

// NewRouteTable builds an empty table with the authenticated-by-default
// fallback.
func NewRouteTable() *RouteTable {
	return &RouteTable{fallback: RouteAuthSpec{RequiresAuth: true}}
}

// Public registers an exact path that needs no authentication.
func (t *RouteTable) Public(path string) *RouteTable {
	t.rules = append(t.rules, routeRule{prefix: path, exact: true, spec: RouteAuthSpec{}})
	return t
}

// Exact registers an exact path restricted to the given roles.
func (t *RouteTable) Exact(path string, roles ...Role) *RouteTable {
	t.rules = append(t.rules, routeRule{prefix: path, exact: true, spec: RouteAuthSpec{RequiresAuth: true, AllowedRoles: roles}})
	return t
}

// Group registers a path prefix restricted to the given roles. The prefix
// matches itself and any descendant segment.
func (t *RouteTable) Group(prefix string, roles ...Role) *RouteTable {
	t.rules = append(t.rules, routeRule{prefix: prefix, spec: RouteAuthSpec{RequiresAuth: true, AllowedRoles: roles}})
	return t
}

// Lookup resolves path to its RouteAuthSpec, preferring the longest match.
func (t *RouteTable) Lookup(path string) RouteAuthSpec {
	best := -1
	spec := t.fallback
	for _, rule := range t.rules {
		if rule.exact {
			if path == rule.prefix && len(rule.prefix) > best {
				best = len(rule.prefix)
				spec = rule.spec
			}
			continue
		}
		if matchesPrefix(path, rule.prefix) && len(rule.prefix) > best {
			best = len(rule.prefix)
			spec = rule.spec
		}
	}
	return spec
}

// matchesPrefix matches on segment boundaries so /adminx never matches the
// /admin group.
func matchesPrefix(path, prefix string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	if len(path) == len(prefix) {
		return true
	}
	return path[len(prefix)] == '/'
}

// DefaultRouteTable mirrors the application's route groups: a public login
// page, one section per role, the student-only exam-taking page, and a
// role-agnostic dashboard redirect.
func DefaultRouteTable() *RouteTable {
	return NewRouteTable().
		Public(LoginPath).
		Exact(DashboardRedirect).
		Group("/admin", RoleAdmin).
		Group("/teacher", RoleTeacher).
		Group("/student", RoleStudent).
		Group("/exam", RoleStudent)
}
