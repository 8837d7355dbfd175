package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireAdmin aborts with 403 unless the user stored by Guard.Require has
// the admin flag.  It must be mounted after Require.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u := UserFrom(c)
			if u == nil {
				return ErrUnauthenticated
			}
			if !u.IsAdmin {
				return echo.NewHTTPError(http.StatusForbidden, "admin access required")
			}
			return next(c)
		}
	}
}
