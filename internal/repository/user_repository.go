package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/movie-tracker/internal/database"
	"github.com/iliyamo/movie-tracker/internal/model"
)

const userColumns = "id, email, password_hash, name, is_admin, created_at, updated_at"

// UserRepo is the credential store.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// NormalizeEmail trims and lower-cases an address before it is stored or
// looked up.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserChanges holds already validated and hashed values for Update.  Nil
// fields are left unchanged.
type UserChanges struct {
	Email        *string
	PasswordHash *string
	Name         *string
	IsAdmin      *bool
}

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Create checks for a duplicate email, inserts the user and reads the row back
// so identity and timestamps are populated.  The unique index still guards
// against a concurrent insert between the check and the write.
func (r *UserRepo) Create(ctx context.Context, email, passwordHash, name string, isAdmin bool) (*model.User, error) {
	email = NormalizeEmail(email)
	if _, err := r.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, name, is_admin) VALUES (?,?,?,?)",
		email, passwordHash, name, isAdmin)
	if err != nil {
		if database.IsDuplicateKey(err) {
			return nil, ErrEmailExists
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, uint64(id))
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = ? LIMIT 1",
		NormalizeEmail(email)))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ? LIMIT 1", id))
}

// List returns every user, newest first.
func (r *UserRepo) List(ctx context.Context) ([]*model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update applies the non-nil fields of ch.  A changed email is checked for
// duplicates owned by another user first.
func (r *UserRepo) Update(ctx context.Context, id uint64, ch UserChanges) (*model.User, error) {
	if ch.Email != nil {
		email := NormalizeEmail(*ch.Email)
		ch.Email = &email
		existing, err := r.GetByEmail(ctx, email)
		switch {
		case err == nil && existing.ID != id:
			return nil, ErrEmailExists
		case err != nil && !errors.Is(err, ErrNotFound):
			return nil, err
		}
	}

	sets := []string{}
	args := []any{}
	if ch.Email != nil {
		sets = append(sets, "email = ?")
		args = append(args, *ch.Email)
	}
	if ch.PasswordHash != nil {
		sets = append(sets, "password_hash = ?")
		args = append(args, *ch.PasswordHash)
	}
	if ch.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *ch.Name)
	}
	if ch.IsAdmin != nil {
		sets = append(sets, "is_admin = ?")
		args = append(args, *ch.IsAdmin)
	}
	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, id)

	if _, err := r.DB.ExecContext(ctx,
		"UPDATE users SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...); err != nil {
		if database.IsDuplicateKey(err) {
			return nil, ErrEmailExists
		}
		return nil, err
	}
	// MySQL reports 0 affected rows when values are unchanged, so a missing
	// row is detected by the read instead of RowsAffected.
	return r.GetByID(ctx, id)
}

// Delete removes a user; movies and sessions go with it through ON DELETE
// CASCADE.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
