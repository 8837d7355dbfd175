package model

import (
	"math"
	"time"
)

// Rating bounds, in stars.
const (
	MinRating = 0
	MaxRating = 5
)

// MaxDuration is the largest value movies.duration (signed INT) can hold.
const MaxDuration = math.MaxInt32

// Movie is a title on a user's list.  Watched=false means "want to watch".
// Nullable columns are pointers so they serialize as JSON null.
type Movie struct {
	ID         uint64    `json:"id"`         // movies.id
	UserID     uint64    `json:"userId"`     // movies.user_id, the owner
	Title      string    `json:"title"`      // movies.title
	Synopsis   *string   `json:"synopsis"`   // movies.synopsis
	CoverImage *string   `json:"coverImage"` // movies.cover_image (URL)
	Comments   *string   `json:"comments"`   // movies.comments
	Rating     int       `json:"rating"`     // movies.rating, 0..5
	Duration   *int      `json:"duration"`   // movies.duration in minutes
	Watched    bool      `json:"watched"`    // movies.watched
	CreatedAt  time.Time `json:"createdAt"`  // movies.created_at
	UpdatedAt  time.Time `json:"updatedAt"`  // movies.updated_at
}
