package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-tracker/internal/events"
	"github.com/iliyamo/movie-tracker/internal/middleware"
	"github.com/iliyamo/movie-tracker/internal/model"
	"github.com/iliyamo/movie-tracker/internal/repository"
	"github.com/iliyamo/movie-tracker/internal/session"
	"github.com/iliyamo/movie-tracker/internal/utils"
)

const invalidCredentials = "invalid email or password"

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Users    *repository.UserRepo
	Hasher   utils.PasswordHasher
	Sessions *session.Manager
	Events   events.Publisher
	Logger   *slog.Logger
}

func NewAuthHandler(users *repository.UserRepo, hasher utils.PasswordHasher, sessions *session.Manager, pub events.Publisher, logger *slog.Logger) *AuthHandler {
	if pub == nil {
		pub = events.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{Users: users, Hasher: hasher, Sessions: sessions, Events: pub, Logger: logger}
}

type registerReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// userPart is the public subset of a user returned by auth endpoints.
type userPart struct {
	ID    uint64 `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func toUserPart(u *model.User) userPart {
	return userPart{ID: u.ID, Email: u.Email, Name: u.Name}
}

// Register creates an account.  It does not log the user in.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return validationError("invalid request body")
	}
	req.Email = repository.NormalizeEmail(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if req.Email == "" || req.Password == "" || req.Name == "" {
		return validationError("email, password and name are required")
	}
	if msg := utils.CheckPasswordLength(req.Password); msg != "" {
		return validationError(msg)
	}

	hash, err := h.Hasher.Hash(req.Password)
	if err != nil {
		return unhandled(err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.Create(ctx, req.Email, hash, req.Name, false)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return validationError("email is already registered")
		}
		return unhandled(err)
	}

	publish(c, h.Events, h.Logger, events.Event{Type: events.UserRegistered, UserID: u.ID, Email: u.Email})
	return c.JSON(http.StatusCreated, echo.Map{"message": "user created", "user": toUserPart(u)})
}

// Login verifies credentials and sets the session cookie.  An unknown email
// and a wrong password produce the same 401.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return validationError("invalid request body")
	}
	req.Email = repository.NormalizeEmail(req.Email)
	if req.Email == "" || req.Password == "" {
		return validationError("email and password are required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.Hasher.VerifyMissing(req.Password)
			return echo.NewHTTPError(http.StatusUnauthorized, invalidCredentials)
		}
		return unhandled(err)
	}
	if !h.Hasher.Verify(u.PasswordHash, req.Password) {
		return echo.NewHTTPError(http.StatusUnauthorized, invalidCredentials)
	}

	if err := h.Sessions.Create(c, u.ID); err != nil {
		return unhandled(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "logged in", "user": toUserPart(u)})
}

// Logout revokes the session and clears the cookie.  It succeeds without a
// session.
func (h *AuthHandler) Logout(c echo.Context) error {
	h.Sessions.Delete(c)
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

// Me returns the current user.  Mounted behind Guard.Require.
func (h *AuthHandler) Me(c echo.Context) error {
	u := middleware.UserFrom(c)
	if u == nil {
		return middleware.ErrUnauthenticated
	}
	return c.JSON(http.StatusOK, echo.Map{"user": u})
}

// publish hands ev to the publisher with the actor and timestamp filled in.
// Failures are logged and never fail the request.
func publish(c echo.Context, pub events.Publisher, logger *slog.Logger, ev events.Event) {
	if ev.ActorID == 0 {
		if u := middleware.UserFrom(c); u != nil {
			ev.ActorID = u.ID
		}
	}
	ev.OccurredAt = time.Now().UTC()
	if err := pub.Publish(c.Request().Context(), ev); err != nil {
		logger.Warn("publish activity event", "type", ev.Type, "error", err)
	}
}
