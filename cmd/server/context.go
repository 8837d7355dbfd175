package main

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/iliyamo/movie-tracker/internal/config"
	"github.com/iliyamo/movie-tracker/internal/database"
)

// commandContext loads configuration once per process and hands out the
// shared logger and database handle.
type commandContext struct {
	logOutput io.Writer

	configOnce sync.Once
	config     config.Config
	configErr  error
}

func newCommandContext() *commandContext {
	return &commandContext{logOutput: os.Stdout}
}

func (c *commandContext) ensureConfig() (config.Config, error) {
	c.configOnce.Do(func() {
		c.config, c.configErr = config.Load()
	})
	return c.config, c.configErr
}

func (c *commandContext) logger() *slog.Logger {
	return newLogger(c.logOutput, c.config.LogLevel)
}

// openDB loads the configuration and opens the configured database.
func (c *commandContext) openDB(ctx context.Context) (*sql.DB, config.Config, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, cfg, err
	}
	db, err := database.Open(ctx, cfg)
	if err != nil {
		return nil, cfg, err
	}
	return db, cfg, nil
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
}
