package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/examstack/examgate/docs"
	"github.com/examstack/examgate/internal/api/handler"
	"github.com/examstack/examgate/internal/api/middleware"
	"github.com/examstack/examgate/internal/core/domain"
	"github.com/examstack/examgate/internal/core/ports"
	"github.com/examstack/examgate/internal/pkg/config"
)

// Dependencies carries everything the router needs wired in.
type Dependencies struct {
	Cfg   *config.Config
	Redis *goredis.Client
	Mongo *mongo.Database // nil when the audit trail is disabled
	Audit ports.AuditSink
	Log   zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddleware("examgate"))
	e.Use(middleware.BrowserSession(deps.Cfg.CookieSecret))

	sessions := &middleware.SessionBuilder{
		Redis:      deps.Redis,
		SessionTTL: deps.Cfg.SessionTTL,
		BackendURL: deps.Cfg.BackendURL,
		TenantID:   deps.Cfg.TenantID,
		Audit:      deps.Audit,
		Routes:     domain.DefaultRouteTable(),
		Log:        deps.Log,
	}

	// --- Session operations ---
	sessionHandler := handler.NewSessionHandler()
	ops := e.Group("/session", sessions.Middleware())
	ops.POST("/login", sessionHandler.Login)
	ops.POST("/register", sessionHandler.Register)
	ops.POST("/logout", sessionHandler.Logout)
	ops.GET("", sessionHandler.Show)
	ops.PUT("/profile", sessionHandler.UpdateProfile)
	ops.PUT("/password", sessionHandler.ChangePassword)

	// --- Guarded page routes ---
	pageHandler := handler.NewPageHandler()
	pages := e.Group("", sessions.Middleware(), middleware.Guard())
	pages.GET(domain.LoginPath, pageHandler.Login)
	pages.GET(domain.DashboardRedirect, pageHandler.Dashboard)
	pages.GET("/admin/*", pageHandler.Page)
	pages.GET("/teacher/*", pageHandler.Page)
	pages.GET("/student/*", pageHandler.Page)
	pages.GET("/exam/:examId", pageHandler.Page)

	// --- Health probes (no session required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Redis, deps.Mongo)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Operational endpoints ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	return e
}
