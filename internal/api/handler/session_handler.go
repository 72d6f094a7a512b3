package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/examstack/examgate/internal/api/metrics"
	"github.com/examstack/examgate/internal/api/middleware"
	"github.com/examstack/examgate/internal/core/domain"
	"github.com/examstack/examgate/internal/core/service"
)

// SessionHandler exposes the session manager's operations to the browser.
// Every request operates on the session stack the middleware hydrated for
// this browser's sid.
type SessionHandler struct{}

func NewSessionHandler() *SessionHandler {
	return &SessionHandler{}
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type sessionResponse struct {
	LoggedIn  bool         `json:"loggedIn"`
	Loading   bool         `json:"loading"`
	User      *domain.User `json:"user,omitempty"`
	IsAdmin   bool         `json:"isAdmin"`
	IsTeacher bool         `json:"isTeacher"`
	IsStudent bool         `json:"isStudent"`
}

type passwordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}

// Login authenticates against the backend and establishes the session.
//
// @Summary      Log in
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /session/login [post]
func (h *SessionHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	res := h.run(c, "login", func(mgr *service.SessionManager) domain.Result {
		return mgr.Login(c.Request().Context(), req.Username, req.Password)
	})
	if !res.OK {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": res.Message})
	}
	return c.JSON(http.StatusOK, messageResponse{Message: res.Message})
}

// Register creates an account; the caller logs in separately.
//
// @Summary      Register
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      domain.RegisterInput  true  "Registration details"
// @Success      201   {object}  messageResponse
// @Failure      400   {object}  map[string]string
// @Router       /session/register [post]
func (h *SessionHandler) Register(c echo.Context) error {
	var req domain.RegisterInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	res := h.run(c, "register", func(mgr *service.SessionManager) domain.Result {
		return mgr.Register(c.Request().Context(), req)
	})
	if !res.OK {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": res.Message})
	}
	return c.JSON(http.StatusCreated, messageResponse{Message: res.Message})
}

// Logout ends the session. The local session is cleared even when the
// backend cannot be reached.
//
// @Summary      Log out
// @Tags         session
// @Produce      json
// @Success      200  {object}  messageResponse
// @Router       /session/logout [post]
func (h *SessionHandler) Logout(c echo.Context) error {
	mgr := middleware.ManagerFrom(c)
	mgr.Logout(c.Request().Context())
	metrics.SessionOpsTotal.WithLabelValues("logout", "ok").Inc()
	return c.JSON(http.StatusOK, messageResponse{Message: "logged out"})
}

// Show returns the read-only session projection for conditional rendering.
//
// @Summary      Current session
// @Tags         session
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Router       /session [get]
func (h *SessionHandler) Show(c echo.Context) error {
	mgr := middleware.ManagerFrom(c)
	sess := mgr.Snapshot()
	return c.JSON(http.StatusOK, sessionResponse{
		LoggedIn:  sess.LoggedIn(),
		Loading:   sess.Loading,
		User:      sess.User,
		IsAdmin:   sess.RoleIs(domain.RoleAdmin),
		IsTeacher: sess.RoleIs(domain.RoleTeacher),
		IsStudent: sess.RoleIs(domain.RoleStudent),
	})
}

// UpdateProfile merges a partial profile update into the session's user.
//
// @Summary      Update profile
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      domain.ProfileUpdate  true  "Fields to change"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  map[string]string
// @Router       /session/profile [put]
func (h *SessionHandler) UpdateProfile(c echo.Context) error {
	var req domain.ProfileUpdate
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	res := h.run(c, "profile_update", func(mgr *service.SessionManager) domain.Result {
		return mgr.UpdateProfile(c.Request().Context(), req)
	})
	if !res.OK {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": res.Message})
	}
	return c.JSON(http.StatusOK, messageResponse{Message: res.Message})
}

// ChangePassword rotates the account password.
//
// @Summary      Change password
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      passwordRequest  true  "Old and new password"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  map[string]string
// @Router       /session/password [put]
func (h *SessionHandler) ChangePassword(c echo.Context) error {
	var req passwordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	res := h.run(c, "password_change", func(mgr *service.SessionManager) domain.Result {
		return mgr.ChangePassword(c.Request().Context(), req.OldPassword, req.NewPassword)
	})
	if !res.OK {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": res.Message})
	}
	return c.JSON(http.StatusOK, messageResponse{Message: res.Message})
}

// run times an operation against the request's session manager and
// records its outcome metric.
func (h *SessionHandler) run(c echo.Context, op string, fn func(mgr *service.SessionManager) domain.Result) domain.Result {
	start := time.Now()
	res := fn(middleware.ManagerFrom(c))
	metrics.SessionOpDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	result := "ok"
	if !res.OK {
		result = "failed"
	}
	metrics.SessionOpsTotal.WithLabelValues(op, result).Inc()
	return res
}
