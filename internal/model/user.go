package model

import "time"

// User represents an application user record as stored in the `users`
// table.  PasswordHash is never serialized.
type User struct {
	ID           uint64    `json:"id"`        // users.id
	Email        string    `json:"email"`     // users.email (unique, lower-cased)
	PasswordHash string    `json:"-"`         // users.password_hash (bcrypt)
	Name         string    `json:"name"`      // users.name
	IsAdmin      bool      `json:"isAdmin"`   // users.is_admin
	CreatedAt    time.Time `json:"createdAt"` // users.created_at
	UpdatedAt    time.Time `json:"updatedAt"` // users.updated_at
}

// Session models a row in the `sessions` table.  Only the SHA-256 hash of
// the cookie token is stored.
type Session struct {
	ID        uint64     // sessions.id
	UserID    uint64     // sessions.user_id
	TokenHash string     // sessions.token_hash
	ExpiresAt time.Time  // sessions.expires_at
	RevokedAt *time.Time // sessions.revoked_at (nullable)
	CreatedAt time.Time  // sessions.created_at
}
