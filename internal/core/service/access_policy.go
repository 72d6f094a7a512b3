package service

import "github.com/examstack/examgate/internal/core/domain"

// Authorize decides whether a session may enter a route group. It is a
// pure function over its inputs:
//
//   - routes that need no authentication are always allowed;
//   - no token means the visitor must log in first;
//   - an empty role restriction admits any authenticated role;
//   - otherwise the user's role must be in the allowed set.
//
// Role membership is exact-set inclusion; no role implies another.
func Authorize(sess domain.Session, spec domain.RouteAuthSpec) domain.Decision {
	if !spec.RequiresAuth {
		return domain.Allow
	}
	if sess.Token == "" {
		return domain.RequireLogin
	}
	if len(spec.AllowedRoles) == 0 {
		return domain.Allow
	}
	if sess.User != nil && spec.RoleAllowed(sess.User.Role) {
		return domain.Allow
	}
	return domain.Forbidden
}
