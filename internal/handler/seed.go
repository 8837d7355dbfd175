package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-tracker/internal/model"
	"github.com/iliyamo/movie-tracker/internal/repository"
	"github.com/iliyamo/movie-tracker/internal/utils"
)

// Default administrator created by SeedAdmin.
const (
	AdminEmail    = "admin@admin.com"
	AdminPassword = "admin"
	AdminName     = "Administrator"
)

// SeedAdmin creates the default administrator unless the email is taken.
// created is false when the account already existed.
func SeedAdmin(ctx context.Context, users *repository.UserRepo, hasher utils.PasswordHasher) (u *model.User, created bool, err error) {
	if u, err := users.GetByEmail(ctx, AdminEmail); err == nil {
		return u, false, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, err
	}

	hash, err := hasher.Hash(AdminPassword)
	if err != nil {
		return nil, false, err
	}
	u, err = users.Create(ctx, AdminEmail, hash, AdminName, true)
	if errors.Is(err, repository.ErrEmailExists) {
		// Lost a race with a concurrent seed.
		u, err = users.GetByEmail(ctx, AdminEmail)
		return u, false, err
	}
	if err != nil {
		return nil, false, err
	}
	return u, true, nil
}

// SeedHandler exposes SeedAdmin over HTTP outside production.
type SeedHandler struct {
	Users      *repository.UserRepo
	Hasher     utils.PasswordHasher
	Production bool
}

func NewSeedHandler(users *repository.UserRepo, hasher utils.PasswordHasher, production bool) *SeedHandler {
	return &SeedHandler{Users: users, Hasher: hasher, Production: production}
}

func (h *SeedHandler) Seed(c echo.Context) error {
	if h.Production {
		return forbiddenError("seeding is disabled in production")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, created, err := SeedAdmin(ctx, h.Users, h.Hasher)
	if err != nil {
		return unhandled(err)
	}
	msg := "admin user already exists"
	if created {
		msg = "admin user created"
	}
	return c.JSON(http.StatusOK, echo.Map{"message": msg, "user": toUserPart(u)})
}
