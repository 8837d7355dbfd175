package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/iliyamo/movie-tracker/internal/config"
	"github.com/iliyamo/movie-tracker/internal/database"
	"github.com/iliyamo/movie-tracker/internal/events"
	"github.com/iliyamo/movie-tracker/internal/handler"
	"github.com/iliyamo/movie-tracker/internal/middleware"
	"github.com/iliyamo/movie-tracker/internal/repository"
	"github.com/iliyamo/movie-tracker/internal/router"
	"github.com/iliyamo/movie-tracker/internal/session"
	"github.com/iliyamo/movie-tracker/internal/utils"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(ctx *commandContext) *cobra.Command {
	var skipMigrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			sigCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(sigCtx, ctx, !skipMigrate)
		},
	}
	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "Do not create missing tables on startup")
	return cmd
}

func runServe(ctx context.Context, cc *commandContext, migrate bool) error {
	db, cfg, err := cc.openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	logger := cc.logger()

	if migrate {
		if err := database.Migrate(ctx, db, cfg.DBDriver); err != nil {
			return err
		}
	}

	rdb, err := connectRedis(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
	}

	store, err := newTokenStore(cfg, db, rdb)
	if err != nil {
		return err
	}

	var pub events.Publisher = events.Nop{}
	if cfg.AMQPURL != "" {
		p := events.NewAMQPPublisher(cfg.AMQPURL, logger)
		go p.Run(ctx)
		pub = p
	}

	users := repository.NewUserRepo(db)
	hasher := utils.NewPasswordHasher(cfg.BcryptCost)
	sessions := session.NewManager(store, cfg.SessionTTL, cfg.CookieSecure, logger)
	guard := middleware.NewGuard(sessions, users)

	e, err := router.New(logger, cfg.CORSOrigins)
	if err != nil {
		return err
	}
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(users, hasher, sessions, pub, logger), guard,
		middleware.NewTokenBucket(cfg.RateLimit, rdb, logger))
	router.RegisterMovies(e, handler.NewMovieHandler(repository.NewMovieRepo(db), pub, logger), guard)
	router.RegisterUsers(e, handler.NewUserHandler(users, hasher, pub, logger), guard)
	router.RegisterSeed(e, handler.NewSeedHandler(users, hasher, cfg.Production()))

	logger.Info("listening", "addr", ":"+cfg.Port, "env", cfg.Env, "db", cfg.DBDriver, "sessions", cfg.SessionStore)
	return serve(ctx, e, ":"+cfg.Port, logger)
}

// serve runs e until ctx is cancelled and then drains in-flight requests.
func serve(ctx context.Context, e *echo.Echo, addr string, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// connectRedis returns nil when Redis is not configured.  An unreachable
// Redis is fatal only for the redis session store; the rate limiter falls
// back to memory.
func connectRedis(ctx context.Context, cfg config.Config, logger *slog.Logger) (*redis.Client, error) {
	if !cfg.Redis.Configured() && cfg.SessionStore != config.SessionStoreRedis {
		return nil, nil
	}
	rdb, err := config.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		if cfg.SessionStore == config.SessionStoreRedis {
			return nil, err
		}
		logger.Warn("redis unavailable, using in-memory rate limiting", "error", err)
		return nil, nil
	}
	return rdb, nil
}

func newTokenStore(cfg config.Config, db *sql.DB, rdb *redis.Client) (session.TokenStore, error) {
	switch cfg.SessionStore {
	case config.SessionStoreDB:
		return session.NewDBStore(repository.NewSessionRepo(db)), nil
	case config.SessionStoreRedis:
		if rdb == nil {
			return nil, errors.New("SESSION_STORE=redis requires a reachable Redis")
		}
		return session.NewRedisStore(rdb), nil
	case config.SessionStoreJWT:
		return session.NewJWTStore(cfg.SessionSecret), nil
	}
	return nil, fmt.Errorf("unknown session store %q", cfg.SessionStore)
}
