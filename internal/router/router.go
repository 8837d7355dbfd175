package router

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/movie-tracker/internal/handler"
	"github.com/iliyamo/movie-tracker/internal/middleware"
)

// New builds the echo instance with the process-wide middleware: request id,
// structured request log, panic recovery, optional CORS and the page route
// classifier.  Routes are added by the Register* functions.
func New(logger *slog.Logger, corsOrigins []string) (*echo.Echo, error) {
	if logger == nil {
		logger = slog.Default()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.HTTPErrorHandler(logger)

	tpl, err := handler.NewTemplates()
	if err != nil {
		return nil, err
	}
	e.Renderer = tpl

	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger(logger))
	e.Use(echomw.Recover())
	if len(corsOrigins) > 0 {
		e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins:     corsOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
			AllowCredentials: true,
		}))
	}
	e.Use(middleware.ClassifyRoutes())
	return e, nil
}

// RegisterRoutes registers the health check and the page shells.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)

	e.GET("/", handler.Page("index", "Movie Tracker"))
	e.GET("/login", handler.Page("login", "Log in"))
	e.GET("/dashboard", handler.Page("dashboard", "Dashboard"))
	e.GET("/movies", handler.Page("movies", "Movies"))
	e.GET("/users", handler.Page("users", "Users"))
}

// RegisterAuth mounts /api/auth.  Register and login are rate limited;
// /me requires a session.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, guard *middleware.Guard, limiter echo.MiddlewareFunc) {
	g := e.Group("/api/auth")
	g.POST("/register", a.Register, limiter)
	g.POST("/login", a.Login, limiter)
	g.POST("/logout", a.Logout)
	g.GET("/me", a.Me, guard.Require())
}

// RegisterMovies mounts the owner-scoped movie API.
func RegisterMovies(e *echo.Echo, h *handler.MovieHandler, guard *middleware.Guard) {
	g := e.Group("/api/movies", guard.Require())
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.PATCH("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

// RegisterUsers mounts the user management API.  Creating users is admin
// only; the remaining rules live in the handler.
func RegisterUsers(e *echo.Echo, h *handler.UserHandler, guard *middleware.Guard) {
	g := e.Group("/api/users", guard.Require())
	g.GET("", h.List)
	g.POST("", h.Create, middleware.RequireAdmin())
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.PATCH("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

// RegisterSeed mounts POST /api/seed.
func RegisterSeed(e *echo.Echo, h *handler.SeedHandler) {
	e.POST("/api/seed", h.Seed)
}
