package utils // package utils provides helpers for password hashing and session tokens

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionTokenBytes is the entropy of an opaque session token.
const SessionTokenBytes = 32

// NewSessionToken returns a hex-encoded random token suitable for a cookie.
func NewSessionToken() (string, error) {
	return randomHex(SessionTokenBytes)
}

// HashToken returns the SHA-256 hex digest of a raw token.  Only digests are
// persisted so a leaked sessions table cannot be replayed.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// randomHex returns n bytes of crypto/rand data, hex encoded.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// ErrInvalidToken covers every reason a signed session token is rejected.
var ErrInvalidToken = errors.New("invalid session token")

// SignSessionJWT builds and signs an HS256 JWT whose subject is the user id.
func SignSessionJWT(secret string, userID uint64, ttl time.Duration, now time.Time) (string, time.Time, error) {
	exp := now.UTC().Add(ttl)
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now.UTC()),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}
	return signed, exp, nil
}

// ParseSessionJWT validates signature, algorithm and expiry and returns the
// user id from the subject claim.
func ParseSessionJWT(secret, raw string) (uint64, error) {
	var claims jwt.RegisteredClaims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !tok.Valid {
		return 0, ErrInvalidToken
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidToken
	}
	return id, nil
}
