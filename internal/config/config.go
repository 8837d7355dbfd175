package config // package config loads application configuration from environment variables

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Supported values for DB_DRIVER.
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// Supported values for SESSION_STORE.
const (
	SessionStoreDB    = "db"
	SessionStoreRedis = "redis"
	SessionStoreJWT   = "jwt"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable; see Load for names and defaults.
type Config struct {
	Env      string // application environment (development, production)
	Port     string // HTTP port to listen on
	LogLevel string // slog level name

	DBDriver   string // mysql or sqlite
	DBUser     string // database username
	DBPass     string // database password (optional)
	DBHost     string // database host address
	DBPort     string // database port number
	DBName     string // database name
	SQLitePath string // sqlite database file when DBDriver is sqlite

	BcryptCost int // bcrypt cost for password hashing

	SessionStore  string        // db, redis or jwt
	SessionSecret string        // HMAC secret for the jwt session store
	SessionTTL    time.Duration // cookie and token lifetime
	CookieSecure  bool          // force the Secure cookie attribute

	CORSOrigins []string // allowed origins; empty disables CORS
	AMQPURL     string   // RabbitMQ URL; empty disables activity events

	Redis     RedisConfig
	RateLimit RateLimitConfig
}

// Production reports whether the service runs with APP_ENV=production.
func (c Config) Production() bool { return strings.EqualFold(c.Env, "production") }

// Load reads an optional .env file and then the process environment.  Every
// missing or malformed required variable is reported in the returned error.
func Load() (Config, error) {
	// A missing .env file is the normal case outside local development.
	_ = godotenv.Load()

	var errs []error
	cfg := Config{
		Env:      envStr("APP_ENV", "development"),
		Port:     envStr("APP_PORT", "8080"),
		LogLevel: envStr("LOG_LEVEL", "info"),

		DBDriver:   strings.ToLower(envStr("DB_DRIVER", DriverMySQL)),
		DBUser:     os.Getenv("DB_USER"),
		DBPass:     os.Getenv("DB_PASS"),
		DBHost:     envStr("DB_HOST", "localhost"),
		DBPort:     envStr("DB_PORT", "3306"),
		DBName:     os.Getenv("DB_NAME"),
		SQLitePath: envStr("SQLITE_PATH", "movie-tracker.db"),

		BcryptCost: envInt("BCRYPT_COST", 10),

		SessionStore:  strings.ToLower(envStr("SESSION_STORE", SessionStoreDB)),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		SessionTTL:    envDur("SESSION_TTL", 7*24*time.Hour),
		CookieSecure:  envBool("COOKIE_SECURE", false),

		CORSOrigins: splitList(os.Getenv("CORS_ORIGINS")),
		AMQPURL:     firstNonEmpty(os.Getenv("RABBITMQ_URL"), os.Getenv("AMQP_URL")),

		Redis:     LoadRedisConfig(),
		RateLimit: LoadRateLimitConfig(),
	}

	switch cfg.DBDriver {
	case DriverMySQL:
		if cfg.DBUser == "" {
			errs = append(errs, missing("DB_USER"))
		}
		if cfg.DBName == "" {
			errs = append(errs, missing("DB_NAME"))
		}
	case DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("invalid DB_DRIVER %q (want mysql or sqlite)", cfg.DBDriver))
	}

	switch cfg.SessionStore {
	case SessionStoreDB, SessionStoreRedis:
	case SessionStoreJWT:
		if cfg.SessionSecret == "" {
			errs = append(errs, missing("SESSION_SECRET"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid SESSION_STORE %q (want db, redis or jwt)", cfg.SessionStore))
	}

	if cfg.SessionTTL <= 0 {
		errs = append(errs, fmt.Errorf("SESSION_TTL must be positive"))
	}
	return cfg, errors.Join(errs...)
}

func missing(key string) error { return fmt.Errorf("missing required env var: %s", key) }

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	switch v {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}
