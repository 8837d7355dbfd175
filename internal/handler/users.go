package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-tracker/internal/events"
	"github.com/iliyamo/movie-tracker/internal/middleware"
	"github.com/iliyamo/movie-tracker/internal/model"
	"github.com/iliyamo/movie-tracker/internal/repository"
	"github.com/iliyamo/movie-tracker/internal/utils"
)

const userNotFound = "user not found"

// UserHandler serves /api/users.  Admins manage every account; everyone
// else sees and edits only their own, and other ids read as missing.
type UserHandler struct {
	Users  *repository.UserRepo
	Hasher utils.PasswordHasher
	Events events.Publisher
	Logger *slog.Logger
}

func NewUserHandler(users *repository.UserRepo, hasher utils.PasswordHasher, pub events.Publisher, logger *slog.Logger) *UserHandler {
	if pub == nil {
		pub = events.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &UserHandler{Users: users, Hasher: hasher, Events: pub, Logger: logger}
}

type createUserReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	IsAdmin  bool   `json:"isAdmin"`
}

func (h *UserHandler) List(c echo.Context) error {
	me := middleware.UserFrom(c)
	if !me.IsAdmin {
		return c.JSON(http.StatusOK, echo.Map{"users": []*model.User{me}})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, err := h.Users.List(ctx)
	if err != nil {
		return unhandled(err)
	}
	if users == nil {
		users = []*model.User{}
	}
	return c.JSON(http.StatusOK, echo.Map{"users": users})
}

// Create is admin only; the route is mounted behind RequireAdmin.
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserReq
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

	u, err := h.Users.Create(ctx, req.Email, hash, req.Name, req.IsAdmin)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return validationError("email is already registered")
		}
		return unhandled(err)
	}
	publish(c, h.Events, h.Logger, events.Event{Type: events.UserCreated, UserID: u.ID, Email: u.Email})
	return c.JSON(http.StatusCreated, echo.Map{"message": "user created", "user": u})
}

func (h *UserHandler) Get(c echo.Context) error {
	me := middleware.UserFrom(c)
	id, err := userID(c)
	if err != nil {
		return err
	}
	if !me.IsAdmin && id != me.ID {
		return notFoundError(userNotFound)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFoundError(userNotFound)
		}
		return unhandled(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"user": u})
}

// Update applies a partial update.  A new email is checked for uniqueness,
// a new password is re-hashed and only admins may change isAdmin.
func (h *UserHandler) Update(c echo.Context) error {
	me := middleware.UserFrom(c)
	id, err := userID(c)
	if err != nil {
		return err
	}
	if !me.IsAdmin && id != me.ID {
		return notFoundError(userNotFound)
	}

	var upd model.UserUpdate
	if err := c.Bind(&upd); err != nil {
		return validationError("invalid request body")
	}
	ch, err := h.userChanges(me, upd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.Update(ctx, id, ch)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return notFoundError(userNotFound)
		case errors.Is(err, repository.ErrEmailExists):
			return validationError("email is already registered")
		}
		return unhandled(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "user updated", "user": u})
}

// Delete removes a user and, by cascade, their movies and sessions.  Deleting
// yourself is refused before any other rule applies.
func (h *UserHandler) Delete(c echo.Context) error {
	me := middleware.UserFrom(c)
	id, err := userID(c)
	if err != nil {
		return err
	}
	if id == me.ID {
		return errSelfDeletion
	}
	if !me.IsAdmin {
		return forbiddenError("admin access required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFoundError(userNotFound)
		}
		return unhandled(err)
	}
	publish(c, h.Events, h.Logger, events.Event{Type: events.UserDeleted, UserID: id})
	return c.JSON(http.StatusOK, echo.Map{"message": "user deleted"})
}

func (h *UserHandler) userChanges(me *model.User, upd model.UserUpdate) (repository.UserChanges, error) {
	var ch repository.UserChanges
	if upd.Email.Set {
		email := repository.NormalizeEmail(upd.Email.Value)
		if upd.Email.Null || email == "" {
			return ch, validationError("email cannot be empty")
		}
		ch.Email = &email
	}
	if upd.Name.Set {
		name := strings.TrimSpace(upd.Name.Value)
		if upd.Name.Null || name == "" {
			return ch, validationError("name cannot be empty")
		}
		ch.Name = &name
	}
	if upd.Password.Set {
		if upd.Password.Null {
			return ch, validationError("password must be at least 4 characters")
		}
		if msg := utils.CheckPasswordLength(upd.Password.Value); msg != "" {
			return ch, validationError(msg)
		}
		hash, err := h.Hasher.Hash(upd.Password.Value)
		if err != nil {
			return ch, unhandled(err)
		}
		ch.PasswordHash = &hash
	}
	if upd.IsAdmin.Set {
		if !me.IsAdmin {
			return ch, forbiddenError("only admins can change admin status")
		}
		if upd.IsAdmin.Null {
			return ch, validationError("isAdmin cannot be null")
		}
		ch.IsAdmin = upd.IsAdmin.Ptr()
	}
	return ch, nil
}

// userID parses :id.  Unlike movies, a malformed user id is a 400.
func userID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, validationError("invalid user id")
	}
	return id, nil
}
