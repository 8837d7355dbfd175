package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-tracker/internal/model"
	"github.com/iliyamo/movie-tracker/internal/repository"
	"github.com/iliyamo/movie-tracker/internal/session"
)

// userKey is the echo context key holding the resolved *model.User.
const userKey = "user"

// ErrUnauthenticated is the 401 returned when a guarded route has no user.
var ErrUnauthenticated = echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")

// Guard resolves the current user from the session cookie.
type Guard struct {
	Sessions *session.Manager
	Users    *repository.UserRepo
}

func NewGuard(sessions *session.Manager, users *repository.UserRepo) *Guard {
	return &Guard{Sessions: sessions, Users: users}
}

// CurrentUser returns the authenticated user, or nil when the request has no
// valid session or the session's user has since been deleted.  A nil user is
// the logged-out state and is not an error.
func (g *Guard) CurrentUser(c echo.Context) (*model.User, error) {
	if u := UserFrom(c); u != nil {
		return u, nil
	}
	id, ok, err := g.Sessions.Get(c)
	if err != nil {
		return nil, fmt.Errorf("resolve session: %w", err)
	}
	if !ok {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	u, err := g.Users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session user: %w", err)
	}
	c.Set(userKey, u)
	return u, nil
}

// Require rejects requests without a current user with 401 before the
// wrapped handler runs.
func (g *Guard) Require() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u, err := g.CurrentUser(c)
			if err != nil {
				return err
			}
			if u == nil {
				return ErrUnauthenticated
			}
			return next(c)
		}
	}
}

// UserFrom returns the user stored by Require, or nil.
func UserFrom(c echo.Context) *model.User {
	u, _ := c.Get(userKey).(*model.User)
	return u
}
