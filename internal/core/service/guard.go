package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/examstack/examgate/internal/core/domain"
	"github.com/examstack/examgate/internal/core/ports"
)

// GuardAction is the terminal outcome of a guard evaluation. Exactly one
// is produced per route transition.
type GuardAction int

const (
	// Proceed lets the transition continue to its target.
	Proceed GuardAction = iota
	// RedirectLogin aborts the transition towards the login page.
	RedirectLogin
	// RedirectHome aborts the transition towards the visitor's role home.
	RedirectHome
)

func (a GuardAction) String() string {
	switch a {
	case Proceed:
		return "proceed"
	case RedirectLogin:
		return "redirect_login"
	case RedirectHome:
		return "redirect_home"
	}
	return "unknown"
}

// GuardOutcome is the guard's decision for one transition. Target is the
// redirect destination for the redirect actions; Notice carries an
// optional user-facing message the shell may display.
type GuardOutcome struct {
	Action GuardAction
	Target string
	Notice string
}

func proceed() GuardOutcome {
	return GuardOutcome{Action: Proceed}
}

func toLogin(notice string) GuardOutcome {
	return GuardOutcome{Action: RedirectLogin, Target: domain.LoginPath, Notice: notice}
}

// NavigationGuard decides, for every route transition, whether the visitor
// may proceed, must authenticate, or is bounced to a role-appropriate
// landing page.
type NavigationGuard struct {
	mgr    *SessionManager
	routes *domain.RouteTable
	audit  ports.AuditSink
	log    zerolog.Logger
}

// NewNavigationGuard builds a guard over the manager and route table. A
// nil table uses the application defaults; a nil audit sink discards
// events.
func NewNavigationGuard(mgr *SessionManager, routes *domain.RouteTable, audit ports.AuditSink, log zerolog.Logger) *NavigationGuard {
	if routes == nil {
		routes = domain.DefaultRouteTable()
	}
	if audit == nil {
		audit = ports.NopAuditSink{}
	}
	return &NavigationGuard{mgr: mgr, routes: routes, audit: audit, log: log}
}

// Evaluate runs the guard for a transition towards path. Every branch
// settles into exactly one of proceed, redirect-to-login, or
// redirect-to-role-home; a transition is never left pending.
func (g *NavigationGuard) Evaluate(ctx context.Context, path string) GuardOutcome {
	spec := g.routes.Lookup(path)
	sess := g.mgr.Snapshot()

	if spec.RequiresAuth {
		if sess.Token == "" {
			return toLogin("")
		}

		// A token without a loaded user means the session survived a
		// restart with only the credential; hydrate it before deciding.
		if sess.User == nil {
			if err := g.mgr.FetchUserInfo(ctx); err != nil {
				g.log.Info().Err(err).Str("path", path).Msg("user hydration failed, forcing re-login")
				return toLogin("failed to load user info, please log in again")
			}
			sess = g.mgr.Snapshot()
		}

		switch Authorize(sess, spec) {
		case domain.Forbidden:
			return g.deny(ctx, sess, path)
		case domain.RequireLogin:
			// Defensive: the token/user checks above normally catch this.
			return toLogin("")
		}
	}

	// A fully authenticated visitor has no business on the login page.
	if path == domain.LoginPath && sess.LoggedIn() {
		if home, ok := domain.RoleHome(sess.User.Role); ok {
			return GuardOutcome{Action: RedirectHome, Target: home}
		}
	}

	return proceed()
}

// deny produces the Forbidden outcome: a permission notice plus a redirect
// to the visitor's own landing page, or to login when the role is not
// recognised.
func (g *NavigationGuard) deny(ctx context.Context, sess domain.Session, path string) GuardOutcome {
	const notice = "you do not have permission to access this page"

	event := domain.SessionEvent{
		Type: domain.EventAccessDenied,
		Path: path,
		At:   time.Now().UTC(),
	}
	if sess.User != nil {
		event.Username = sess.User.Username
		event.Role = sess.User.Role
	}
	if err := g.audit.Record(ctx, event); err != nil {
		g.log.Debug().Err(err).Msg("audit record failed")
	}

	if sess.User != nil {
		if home, ok := domain.RoleHome(sess.User.Role); ok {
			return GuardOutcome{Action: RedirectHome, Target: home, Notice: notice}
		}
	}
	return toLogin(notice)
}
