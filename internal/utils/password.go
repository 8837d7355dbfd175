package utils

import (
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// Password length limits, enforced by callers before hashing.  bcrypt only
// accepts up to 72 bytes.
const (
	MinPasswordLength = 4
	MaxPasswordBytes  = 72
)

// CheckPasswordLength reports the first length rule plain breaks, or "".
func CheckPasswordLength(plain string) string {
	switch {
	case len(plain) < MinPasswordLength:
		return "password must be at least 4 characters"
	case len(plain) > MaxPasswordBytes:
		return "password must be at most 72 bytes"
	}
	return ""
}

// dummyHashes holds one throwaway hash per cost for VerifyMissing.
var dummyHashes sync.Map

// PasswordHasher hashes and verifies credentials with bcrypt.
type PasswordHasher struct {
	Cost int
}

// NewPasswordHasher clamps cost into bcrypt's accepted range.
func NewPasswordHasher(cost int) PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return PasswordHasher{Cost: cost}
}

// Hash returns a salted bcrypt hash of plain.
func (h PasswordHasher) Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.Cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

// Verify safely compares a bcrypt hash and a plain password.
func (h PasswordHasher) Verify(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// VerifyMissing spends the same bcrypt work as Verify when there is no
// stored hash to check, so unknown accounts answer as slowly as known ones.
// It always reports false.
func (h PasswordHasher) VerifyMissing(plain string) bool {
	v, ok := dummyHashes.Load(h.Cost)
	if !ok {
		b, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), h.Cost)
		if err != nil {
			return false
		}
		v, _ = dummyHashes.LoadOrStore(h.Cost, b)
	}
	_ = bcrypt.CompareHashAndPassword(v.([]byte), []byte(plain))
	return false
}
