package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/examstack/examgate/internal/api/metrics"
	"github.com/examstack/examgate/internal/core/service"
)

// NoticeHeader carries the guard's user-facing message on redirects, for
// the shell to display after following the Location.
const NoticeHeader = "X-Auth-Notice"

// Guard consults the navigation guard for every page transition and
// translates its outcome into HTTP: proceed runs the handler, both
// redirect outcomes become a 302. Requires the SessionBuilder middleware
// upstream.
func Guard() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			g := GuardFrom(c)
			if g == nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "session stack not initialised")
			}

			outcome := g.Evaluate(c.Request().Context(), c.Request().URL.Path)
			metrics.GuardDecisionsTotal.WithLabelValues(outcome.Action.String()).Inc()

			if outcome.Action == service.Proceed {
				return next(c)
			}
			if outcome.Notice != "" {
				c.Response().Header().Set(NoticeHeader, outcome.Notice)
			}
			return c.Redirect(http.StatusFound, outcome.Target)
		}
	}
}
