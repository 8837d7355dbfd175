package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func useSQLite(t *testing.T) {
	t.Helper()
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "cli.db"))
	t.Setenv("BCRYPT_COST", "4")
	t.Setenv("APP_ENV", "development")
}

func TestMigrateSeedAndListUsers(t *testing.T) {
	useSQLite(t)

	out, err := runCLI(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "schema up to date (sqlite)")

	out, err = runCLI(t, "users", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "no users")

	out, err = runCLI(t, "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "created admin admin@admin.com")

	out, err = runCLI(t, "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "already exists")

	out, err = runCLI(t, "users", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "admin@admin.com")
	assert.Contains(t, out, "Administrator")
	assert.Contains(t, out, "yes")

	out, err = runCLI(t, "sessions", "prune")
	require.NoError(t, err)
	assert.Contains(t, out, "pruned 0 sessions")
}

func TestSeedRefusedInProduction(t *testing.T) {
	useSQLite(t)
	t.Setenv("APP_ENV", "production")

	_, err := runCLI(t, "migrate")
	require.NoError(t, err)
	_, err = runCLI(t, "seed")
	assert.ErrorContains(t, err, "disabled in production")
}

func TestActivityConsumeNeedsBroker(t *testing.T) {
	useSQLite(t)
	t.Setenv("RABBITMQ_URL", "")
	t.Setenv("AMQP_URL", "")

	_, err := runCLI(t, "activity", "consume")
	assert.ErrorContains(t, err, "RABBITMQ_URL")
}

func TestConfigErrorsSurface(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("DB_USER", "")
	t.Setenv("DB_NAME", "")

	_, err := runCLI(t, "migrate")
	assert.ErrorContains(t, err, "DB_USER")
}
