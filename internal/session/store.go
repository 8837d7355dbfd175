// Package session issues, resolves and revokes the opaque token carried in
// the auth-session cookie.  The token never encodes the raw user id; it is
// either a random value indexed server side (database or Redis) or a signed
// JWT.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/movie-tracker/internal/repository"
	"github.com/iliyamo/movie-tracker/internal/utils"
)

// ErrNoSession is returned by Resolve for unknown, expired, revoked or
// malformed tokens.  Callers treat it as the anonymous state.
var ErrNoSession = errors.New("no session")

// TokenStore maps session tokens to user ids.
type TokenStore interface {
	// Issue creates a token for userID that is valid for ttl.
	Issue(ctx context.Context, userID uint64, ttl time.Duration) (string, error)
	// Resolve returns the user id behind token or ErrNoSession.
	Resolve(ctx context.Context, token string) (uint64, error)
	// Revoke invalidates token.  Unknown tokens are not an error.
	Revoke(ctx context.Context, token string) error
}

// DBStore keeps SHA-256 token hashes in the sessions table.
type DBStore struct {
	Sessions *repository.SessionRepo
	Now      func() time.Time
}

func NewDBStore(sessions *repository.SessionRepo) *DBStore {
	return &DBStore{Sessions: sessions, Now: time.Now}
}

func (s *DBStore) Issue(ctx context.Context, userID uint64, ttl time.Duration) (string, error) {
	raw, err := utils.NewSessionToken()
	if err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	if err := s.Sessions.Store(ctx, userID, utils.HashToken(raw), s.Now().Add(ttl)); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return raw, nil
}

func (s *DBStore) Resolve(ctx context.Context, token string) (uint64, error) {
	id, err := s.Sessions.Validate(ctx, utils.HashToken(token), s.Now())
	if errors.Is(err, repository.ErrNotFound) {
		return 0, ErrNoSession
	}
	return id, err
}

func (s *DBStore) Revoke(ctx context.Context, token string) error {
	return s.Sessions.RevokeByHash(ctx, utils.HashToken(token))
}

// RedisStore keeps session:<sha256> -> user id with a TTL, so expiry is
// enforced by Redis itself.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: "session:"}
}

func (s *RedisStore) key(token string) string { return s.prefix + utils.HashToken(token) }

func (s *RedisStore) Issue(ctx context.Context, userID uint64, ttl time.Duration) (string, error) {
	raw, err := utils.NewSessionToken()
	if err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	if err := s.rdb.Set(ctx, s.key(raw), userID, ttl).Err(); err != nil {
		return "", fmt.Errorf("redis set session: %w", err)
	}
	return raw, nil
}

func (s *RedisStore) Resolve(ctx context.Context, token string) (uint64, error) {
	id, err := s.rdb.Get(ctx, s.key(token)).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, ErrNoSession
	}
	if err != nil {
		return 0, fmt.Errorf("redis get session: %w", err)
	}
	return id, nil
}

func (s *RedisStore) Revoke(ctx context.Context, token string) error {
	return s.rdb.Del(ctx, s.key(token)).Err()
}

// JWTStore issues stateless HS256 tokens.  Revoke cannot invalidate a token
// before its expiry; logout relies on the cookie being cleared.
type JWTStore struct {
	Secret string
	Now    func() time.Time
}

func NewJWTStore(secret string) *JWTStore {
	return &JWTStore{Secret: secret, Now: time.Now}
}

func (s *JWTStore) Issue(_ context.Context, userID uint64, ttl time.Duration) (string, error) {
	tok, _, err := utils.SignSessionJWT(s.Secret, userID, ttl, s.Now())
	return tok, err
}

func (s *JWTStore) Resolve(_ context.Context, token string) (uint64, error) {
	id, err := utils.ParseSessionJWT(s.Secret, token)
	if err != nil {
		return 0, ErrNoSession
	}
	return id, nil
}

func (s *JWTStore) Revoke(context.Context, string) error { return nil }
