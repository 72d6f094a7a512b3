package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/examstack/examgate/internal/api/middleware"
	"github.com/examstack/examgate/internal/core/domain"
)

// PageHandler answers the guarded page routes. Rendering is out of scope;
// the handler returns the routing decision's payload so the shell knows
// which view to mount and for whom.
type PageHandler struct{}

func NewPageHandler() *PageHandler {
	return &PageHandler{}
}

type pageResponse struct {
	Route    string      `json:"route"`
	Username string      `json:"username,omitempty"`
	Role     domain.Role `json:"role,omitempty"`
}

// Page serves any guarded page route the guard let through.
func (h *PageHandler) Page(c echo.Context) error {
	resp := pageResponse{Route: c.Request().URL.Path}
	if sess := middleware.ManagerFrom(c).Snapshot(); sess.User != nil {
		resp.Username = sess.User.Username
		resp.Role = sess.User.Role
	}
	return c.JSON(http.StatusOK, resp)
}

// Login serves the login page route for unauthenticated visitors; the
// guard bounces authenticated ones to their role home before this runs.
func (h *PageHandler) Login(c echo.Context) error {
	return c.JSON(http.StatusOK, pageResponse{Route: domain.LoginPath})
}

// Dashboard forwards the role-agnostic dashboard path to the visitor's
// role home. Unknown roles end up back at login.
func (h *PageHandler) Dashboard(c echo.Context) error {
	sess := middleware.ManagerFrom(c).Snapshot()
	if sess.User != nil {
		if home, ok := domain.RoleHome(sess.User.Role); ok {
			return c.Redirect(http.StatusFound, home)
		}
	}
	return c.Redirect(http.StatusFound, domain.LoginPath)
}
