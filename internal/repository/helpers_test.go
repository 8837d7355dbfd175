package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movie-tracker/internal/config"
	"github.com/iliyamo/movie-tracker/internal/database"
	"github.com/iliyamo/movie-tracker/internal/model"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()
	db, err := database.OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(ctx, db, config.DriverSQLite))
	return db
}

func mustCreateUser(t *testing.T, users *UserRepo, email string) *model.User {
	t.Helper()
	u, err := users.Create(context.Background(), email, "hash", "User "+email, false)
	require.NoError(t, err)
	return u
}

func strPtr(s string) *string { return &s }
