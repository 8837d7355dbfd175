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
)

const movieNotFound = "movie not found"

// MovieHandler serves /api/movies.  Every route runs behind Guard.Require and
// only ever touches rows owned by the current user.
type MovieHandler struct {
	Movies *repository.MovieRepo
	Events events.Publisher
	Logger *slog.Logger
}

func NewMovieHandler(movies *repository.MovieRepo, pub events.Publisher, logger *slog.Logger) *MovieHandler {
	if pub == nil {
		pub = events.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MovieHandler{Movies: movies, Events: pub, Logger: logger}
}

type createMovieReq struct {
	Title      string  `json:"title"`
	Synopsis   *string `json:"synopsis"`
	CoverImage *string `json:"coverImage"`
	Comments   *string `json:"comments"`
	Rating     *int    `json:"rating"`
	Duration   *int    `json:"duration"`
	Watched    *bool   `json:"watched"`
}

// List returns the caller's movies, newest first, optionally filtered by
// ?watched=true|false.
func (h *MovieHandler) List(c echo.Context) error {
	owner := middleware.UserFrom(c)
	var watched *bool
	if raw := c.QueryParam("watched"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return validationError("watched must be true or false")
		}
		watched = &b
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	movies, err := h.Movies.ListByOwner(ctx, owner.ID, watched)
	if err != nil {
		return unhandled(err)
	}
	if movies == nil {
		movies = []*model.Movie{}
	}
	return c.JSON(http.StatusOK, echo.Map{"movies": movies})
}

// Create adds a movie owned by the caller.  watched defaults to true and
// rating to 0; blank optional strings are stored as null.
func (h *MovieHandler) Create(c echo.Context) error {
	owner := middleware.UserFrom(c)
	var req createMovieReq
	if err := c.Bind(&req); err != nil {
		return validationError("invalid request body")
	}

	m := &model.Movie{
		UserID:     owner.ID,
		Title:      strings.TrimSpace(req.Title),
		Synopsis:   blankToNil(req.Synopsis),
		CoverImage: blankToNil(req.CoverImage),
		Comments:   blankToNil(req.Comments),
		Duration:   req.Duration,
		Watched:    true,
	}
	if m.Title == "" {
		return validationError("title is required")
	}
	if req.Rating != nil {
		m.Rating = *req.Rating
	}
	if req.Watched != nil {
		m.Watched = *req.Watched
	}
	if err := checkRating(m.Rating); err != nil {
		return err
	}
	if m.Duration != nil {
		if err := checkDuration(*m.Duration); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Movies.Create(ctx, m); err != nil {
		return unhandled(err)
	}
	publish(c, h.Events, h.Logger, events.Event{Type: events.MovieCreated, UserID: owner.ID, MovieID: m.ID, Title: m.Title})
	return c.JSON(http.StatusCreated, echo.Map{"message": "movie created", "movie": m})
}

// Get returns one of the caller's movies.
func (h *MovieHandler) Get(c echo.Context) error {
	owner := middleware.UserFrom(c)
	id, ok := movieID(c)
	if !ok {
		return notFoundError(movieNotFound)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	m, err := h.Movies.GetByIDAndOwner(ctx, id, owner.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFoundError(movieNotFound)
		}
		return unhandled(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"movie": m})
}

// Update applies a partial update.  Absent fields are untouched and null
// clears synopsis, coverImage, comments and duration.
func (h *MovieHandler) Update(c echo.Context) error {
	owner := middleware.UserFrom(c)
	id, ok := movieID(c)
	if !ok {
		return notFoundError(movieNotFound)
	}
	var upd model.MovieUpdate
	if err := c.Bind(&upd); err != nil {
		return validationError("invalid request body")
	}
	if err := normalizeMovieUpdate(&upd); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	m, err := h.Movies.Update(ctx, id, owner.ID, upd)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFoundError(movieNotFound)
		}
		return unhandled(err)
	}
	if !upd.Empty() {
		publish(c, h.Events, h.Logger, events.Event{Type: events.MovieUpdated, UserID: owner.ID, MovieID: m.ID, Title: m.Title})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "movie updated", "movie": m})
}

// Delete removes one of the caller's movies.
func (h *MovieHandler) Delete(c echo.Context) error {
	owner := middleware.UserFrom(c)
	id, ok := movieID(c)
	if !ok {
		return notFoundError(movieNotFound)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Movies.DeleteByIDAndOwner(ctx, id, owner.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFoundError(movieNotFound)
		}
		return unhandled(err)
	}
	publish(c, h.Events, h.Logger, events.Event{Type: events.MovieDeleted, UserID: owner.ID, MovieID: id})
	return c.JSON(http.StatusOK, echo.Map{"message": "movie deleted"})
}

// movieID parses :id.  A malformed id cannot name a movie the caller owns,
// so callers answer 404 rather than 400.
func movieID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

func normalizeMovieUpdate(u *model.MovieUpdate) error {
	if u.Title.Set {
		u.Title.Value = strings.TrimSpace(u.Title.Value)
		if u.Title.Null || u.Title.Value == "" {
			return validationError("title cannot be empty")
		}
	}
	if u.Rating.Set {
		if u.Rating.Null {
			return validationError("rating cannot be null")
		}
		if err := checkRating(u.Rating.Value); err != nil {
			return err
		}
	}
	if u.Watched.Set && u.Watched.Null {
		return validationError("watched cannot be null")
	}
	if u.Duration.Set && !u.Duration.Null {
		if err := checkDuration(u.Duration.Value); err != nil {
			return err
		}
	}
	for _, f := range []*model.Optional[string]{&u.Synopsis, &u.CoverImage, &u.Comments} {
		if f.Set && !f.Null && strings.TrimSpace(f.Value) == "" {
			*f = model.Null[string]()
		}
	}
	return nil
}

func checkRating(r int) error {
	if r < model.MinRating || r > model.MaxRating {
		return validationError("rating must be between 0 and 5")
	}
	return nil
}

func checkDuration(d int) error {
	if d < 0 {
		return validationError("duration must not be negative")
	}
	if d > model.MaxDuration {
		return validationError("duration is too large")
	}
	return nil
}

// blankToNil maps nil and whitespace-only strings to nil.
func blankToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}
