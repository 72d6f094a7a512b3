package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/examstack/examgate/internal/api/metrics"
	"github.com/examstack/examgate/internal/core/domain"
	"github.com/examstack/examgate/internal/core/ports"
	"github.com/examstack/examgate/internal/core/service"
	"github.com/examstack/examgate/internal/infrastructure/api"
	redisstore "github.com/examstack/examgate/internal/infrastructure/db/redis"
)

const (
	managerContextKey = "session_manager"
	guardContextKey   = "navigation_guard"
)

// SessionBuilder assembles the per-browser session stack: a credential
// store scoped to the browser's sid, the backend client reading from it,
// and the session manager plus navigation guard on top. One stack is
// built per request; all durable state lives in the store.
type SessionBuilder struct {
	Redis      *goredis.Client
	SessionTTL time.Duration
	BackendURL string
	TenantID   string
	Audit      ports.AuditSink
	Routes     *domain.RouteTable
	Log        zerolog.Logger

	// NewClient overrides backend client construction; tests substitute a
	// stub AuthAPI here. Nil builds the real client.
	NewClient func(store ports.CredentialStore) ports.AuthAPI

	// NewStore overrides credential store construction; nil scopes a
	// redis store to the sid.
	NewStore func(sid string) ports.CredentialStore
}

// Middleware hydrates the session for the request's browser and stashes
// the manager and guard in the echo context.
func (b *SessionBuilder) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			store := b.store(SID(c))
			client := b.client(store)
			mgr := service.NewSessionManager(store, client, b.Audit, b.Log)

			// An unauthorized backend response during this request tears the
			// session down through the manager, not just the store.
			if hooked, ok := client.(interface{ SetUnauthorizedHook(func()) }); ok {
				hooked.SetUnauthorizedHook(mgr.Invalidate)
			}
			mgr.Restore(c.Request().Context())

			c.Set(managerContextKey, mgr)
			c.Set(guardContextKey, service.NewNavigationGuard(mgr, b.Routes, b.Audit, b.Log))
			err := next(c)

			select {
			case <-mgr.Invalidated():
				metrics.ForcedClearsTotal.Inc()
			default:
			}
			return err
		}
	}
}

func (b *SessionBuilder) store(sid string) ports.CredentialStore {
	if b.NewStore != nil {
		return b.NewStore(sid)
	}
	return redisstore.NewSessionStore(b.Redis, sid, b.SessionTTL)
}

func (b *SessionBuilder) client(store ports.CredentialStore) ports.AuthAPI {
	if b.NewClient != nil {
		return b.NewClient(store)
	}
	return api.NewClient(b.BackendURL, store, api.Options{TenantID: b.TenantID})
}

// ManagerFrom returns the request's session manager.
func ManagerFrom(c echo.Context) *service.SessionManager {
	mgr, _ := c.Get(managerContextKey).(*service.SessionManager)
	return mgr
}

// GuardFrom returns the request's navigation guard.
func GuardFrom(c echo.Context) *service.NavigationGuard {
	g, _ := c.Get(guardContextKey).(*service.NavigationGuard)
	return g
}
