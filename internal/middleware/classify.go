package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-tracker/internal/session"
)

// Page prefixes handled by ClassifyRoutes.
var (
	ProtectedPages = []string{"/dashboard", "/movies", "/users"}
	PublicPages    = []string{"/login"}
)

// ClassifyRoutes redirects page requests on cookie presence alone.  Whether
// the cookie is valid is the guard's concern; API paths pass through.
//
//   - protected page, no cookie: 302 to /login?redirect=<path>
//   - public page, cookie present: 302 to /dashboard
func ClassifyRoutes() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			hasCookie := false
			if ck, err := c.Cookie(session.CookieName); err == nil && ck.Value != "" {
				hasCookie = true
			}

			switch {
			case matchPrefix(path, ProtectedPages) && !hasCookie:
				return c.Redirect(http.StatusFound, "/login?redirect="+url.QueryEscape(path))
			case matchPrefix(path, PublicPages) && hasCookie:
				return c.Redirect(http.StatusFound, "/dashboard")
			}
			return next(c)
		}
	}
}

// matchPrefix treats "/movies" as matching "/movies" and "/movies/3" but not
// "/moviesx".
func matchPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}
