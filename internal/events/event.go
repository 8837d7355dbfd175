// Package events carries user and movie activity to RabbitMQ and back out
// into logs/activity.log.
package events

import (
	"fmt"
	"strings"
	"time"
)

// QueueName is the durable queue activity events are published to.
const QueueName = "movie-tracker.activity"

// Event types.
const (
	UserRegistered = "user.registered"
	UserCreated    = "user.created"
	UserDeleted    = "user.deleted"
	MovieCreated   = "movie.created"
	MovieUpdated   = "movie.updated"
	MovieDeleted   = "movie.deleted"
)

// Event is the message body.  ActorID is the user who caused the event;
// UserID is the account it concerns.
type Event struct {
	Type       string    `json:"type"`
	ActorID    uint64    `json:"actorId,omitempty"`
	UserID     uint64    `json:"userId"`
	MovieID    uint64    `json:"movieId,omitempty"`
	Title      string    `json:"title,omitempty"`
	Email      string    `json:"email,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Line renders the event as one activity.log line, without the newline.
func (e Event) Line() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.OccurredAt.UTC().Format(time.RFC3339), e.Type)
	if e.ActorID != 0 {
		fmt.Fprintf(&b, " | actor_id=%d", e.ActorID)
	}
	fmt.Fprintf(&b, " | user_id=%d", e.UserID)
	if e.MovieID != 0 {
		fmt.Fprintf(&b, " | movie_id=%d", e.MovieID)
	}
	if e.Title != "" {
		fmt.Fprintf(&b, " | title=%q", e.Title)
	}
	if e.Email != "" {
		fmt.Fprintf(&b, " | email=%q", e.Email)
	}
	return b.String()
}
