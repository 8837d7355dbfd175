package session

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// CookieName is the cookie that carries the session token.
const CookieName = "auth-session"

// DefaultTTL is the session lifetime when none is configured.
const DefaultTTL = 7 * 24 * time.Hour

// Manager owns the session cookie.  No other component reads or writes it,
// except the route classifier which only checks for its presence.
type Manager struct {
	store       TokenStore
	ttl         time.Duration
	forceSecure bool
	logger      *slog.Logger
}

// NewManager builds a Manager.  forceSecure sets the Secure attribute even
// when the request did not arrive over TLS.
func NewManager(store TokenStore, ttl time.Duration, forceSecure bool, logger *slog.Logger) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{store: store, ttl: ttl, forceSecure: forceSecure, logger: logger}
}

// TTL is the lifetime of newly issued sessions.
func (m *Manager) TTL() time.Duration { return m.ttl }

// Create issues a token for userID and sets the session cookie.
func (m *Manager) Create(c echo.Context, userID uint64) error {
	token, err := m.store.Issue(c.Request().Context(), userID, m.ttl)
	if err != nil {
		return err
	}
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl / time.Second),
		Expires:  time.Now().Add(m.ttl),
		HttpOnly: true,
		Secure:   m.secure(c),
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Get returns the user id behind the request's session cookie.  A missing,
// malformed, expired or revoked token yields ok=false with a nil error; only
// a store failure is reported as an error.  The user is not looked up here.
func (m *Manager) Get(c echo.Context) (userID uint64, ok bool, err error) {
	ck, err := c.Cookie(CookieName)
	if err != nil || ck.Value == "" {
		return 0, false, nil
	}
	id, err := m.store.Resolve(c.Request().Context(), ck.Value)
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return id, true, nil
}

// Delete revokes the current token, if any, and always expires the cookie.
// Calling it on an anonymous request is a no-op apart from the cookie header.
func (m *Manager) Delete(c echo.Context) {
	if ck, err := c.Cookie(CookieName); err == nil && ck.Value != "" {
		if err := m.store.Revoke(c.Request().Context(), ck.Value); err != nil {
			m.logger.Warn("session revoke failed", "error", err)
		}
	}
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   m.secure(c),
		SameSite: http.SameSiteLaxMode,
	})
}

// secure reports whether the cookie must carry the Secure attribute.
// c.Scheme honours X-Forwarded-Proto from a TLS-terminating proxy.
func (m *Manager) secure(c echo.Context) bool {
	return m.forceSecure || c.IsTLS() || c.Scheme() == "https"
}
