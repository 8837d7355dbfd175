package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/movie-tracker/internal/model"
)

const movieColumns = `id, user_id, title, synopsis, cover_image, comments, rating, duration,
	watched, created_at, updated_at`

// MovieRepo encapsulates all queries on the movies table.  Every statement
// that addresses a single movie carries the owner predicate, so existence and
// ownership are checked by the same query.
type MovieRepo struct {
	db *sql.DB
}

func NewMovieRepo(db *sql.DB) *MovieRepo {
	return &MovieRepo{db: db}
}

func scanMovie(row interface{ Scan(...any) error }) (*model.Movie, error) {
	var (
		m                             model.Movie
		synopsis, coverImage, comment sql.NullString
		duration                      sql.NullInt64
	)
	err := row.Scan(&m.ID, &m.UserID, &m.Title, &synopsis, &coverImage, &comment,
		&m.Rating, &duration, &m.Watched, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	m.Synopsis = nullString(synopsis)
	m.CoverImage = nullString(coverImage)
	m.Comments = nullString(comment)
	if duration.Valid {
		d := int(duration.Int64)
		m.Duration = &d
	}
	return &m, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// Create inserts m and refreshes it from the database so ID, CreatedAt and
// UpdatedAt are populated.
func (r *MovieRepo) Create(ctx context.Context, m *model.Movie) error {
	const q = `INSERT INTO movies (user_id, title, synopsis, cover_image, comments, rating, duration, watched)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, m.UserID, m.Title, m.Synopsis, m.CoverImage,
		m.Comments, m.Rating, m.Duration, m.Watched)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	stored, err := r.GetByIDAndOwner(ctx, uint64(id), m.UserID)
	if err != nil {
		return err
	}
	*m = *stored
	return nil
}

// GetByIDAndOwner fetches a movie only if it belongs to ownerID.  A missing
// movie and someone else's movie both yield ErrNotFound.
func (r *MovieRepo) GetByIDAndOwner(ctx context.Context, id, ownerID uint64) (*model.Movie, error) {
	return scanMovie(r.db.QueryRowContext(ctx,
		"SELECT "+movieColumns+" FROM movies WHERE id = ? AND user_id = ?", id, ownerID))
}

// ListByOwner returns the owner's movies newest first, optionally filtered by
// watched status.
func (r *MovieRepo) ListByOwner(ctx context.Context, ownerID uint64, watched *bool) ([]*model.Movie, error) {
	q := "SELECT " + movieColumns + " FROM movies WHERE user_id = ?"
	args := []any{ownerID}
	if watched != nil {
		q += " AND watched = ?"
		args = append(args, *watched)
	}
	q += " ORDER BY created_at DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.Movie{}
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update applies the supplied fields of u in a single statement scoped to
// (id, owner) and returns the stored row.  Null clears nullable columns; the
// caller has already rejected null for title, rating and watched.
func (r *MovieRepo) Update(ctx context.Context, id, ownerID uint64, u model.MovieUpdate) (*model.Movie, error) {
	sets := []string{}
	args := []any{}
	if u.Title.Set {
		sets = append(sets, "title = ?")
		args = append(args, u.Title.Value)
	}
	if u.Synopsis.Set {
		sets = append(sets, "synopsis = ?")
		args = append(args, u.Synopsis.Ptr())
	}
	if u.CoverImage.Set {
		sets = append(sets, "cover_image = ?")
		args = append(args, u.CoverImage.Ptr())
	}
	if u.Comments.Set {
		sets = append(sets, "comments = ?")
		args = append(args, u.Comments.Ptr())
	}
	if u.Rating.Set {
		sets = append(sets, "rating = ?")
		args = append(args, u.Rating.Value)
	}
	if u.Duration.Set {
		sets = append(sets, "duration = ?")
		args = append(args, u.Duration.Ptr())
	}
	if u.Watched.Set {
		sets = append(sets, "watched = ?")
		args = append(args, u.Watched.Value)
	}
	if len(sets) == 0 {
		return r.GetByIDAndOwner(ctx, id, ownerID)
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, id, ownerID)

	q := "UPDATE movies SET " + strings.Join(sets, ", ") + " WHERE id = ? AND user_id = ?"
	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		return nil, err
	}
	return r.GetByIDAndOwner(ctx, id, ownerID)
}

// DeleteByIDAndOwner removes a movie owned by ownerID.  ErrNotFound is
// returned when nothing matched.
func (r *MovieRepo) DeleteByIDAndOwner(ctx context.Context, id, ownerID uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM movies WHERE id = ? AND user_id = ?", id, ownerID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
