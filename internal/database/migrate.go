package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iliyamo/movie-tracker/internal/config"
)

// Every statement is idempotent so Migrate can run on each start.
var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		email         VARCHAR(255)    NOT NULL,
		password_hash VARCHAR(255)    NOT NULL,
		name          VARCHAR(255)    NOT NULL,
		is_admin      BOOLEAN         NOT NULL DEFAULT FALSE,
		created_at    DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at    DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS movies (
		id          BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		user_id     BIGINT UNSIGNED NOT NULL,
		title       VARCHAR(255)    NOT NULL,
		synopsis    TEXT            NULL,
		cover_image VARCHAR(2048)   NULL,
		comments    TEXT            NULL,
		rating      INT             NOT NULL DEFAULT 0,
		duration    INT             NULL,
		watched     BOOLEAN         NOT NULL DEFAULT FALSE,
		created_at  DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at  DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_movies_user_created (user_id, created_at),
		CONSTRAINT fk_movies_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		user_id    BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64)        NOT NULL,
		expires_at DATETIME        NOT NULL,
		revoked_at DATETIME        NULL,
		created_at DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_sessions_token (token_hash),
		KEY idx_sessions_user (user_id),
		CONSTRAINT fk_sessions_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            INTEGER  PRIMARY KEY AUTOINCREMENT,
		email         TEXT     NOT NULL UNIQUE,
		password_hash TEXT     NOT NULL,
		name          TEXT     NOT NULL,
		is_admin      BOOLEAN  NOT NULL DEFAULT 0,
		created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS movies (
		id          INTEGER  PRIMARY KEY AUTOINCREMENT,
		user_id     INTEGER  NOT NULL REFERENCES users (id) ON DELETE CASCADE,
		title       TEXT     NOT NULL,
		synopsis    TEXT,
		cover_image TEXT,
		comments    TEXT,
		rating      INTEGER  NOT NULL DEFAULT 0,
		duration    INTEGER,
		watched     BOOLEAN  NOT NULL DEFAULT 0,
		created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_movies_user_created ON movies (user_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id         INTEGER  PRIMARY KEY AUTOINCREMENT,
		user_id    INTEGER  NOT NULL REFERENCES users (id) ON DELETE CASCADE,
		token_hash TEXT     NOT NULL UNIQUE,
		expires_at DATETIME NOT NULL,
		revoked_at DATETIME,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions (user_id)`,
}

// Migrate creates the users, movies and sessions tables for the given driver.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	var stmts []string
	switch driver {
	case config.DriverMySQL:
		stmts = mysqlSchema
	case config.DriverSQLite:
		stmts = sqliteSchema
	default:
		return fmt.Errorf("migrate: unsupported driver %q", driver)
	}
	for i, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
