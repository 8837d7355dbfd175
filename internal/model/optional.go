package model

import (
	"bytes"
	"encoding/json"
)

// Optional carries the three states a JSON field can have in a partial
// update: absent (Set is false), explicit null (Set and Null), or a value.
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Some returns an Optional holding v.
func Some[T any](v T) Optional[T] { return Optional[T]{Set: true, Value: v} }

// Null returns an Optional that explicitly clears the field.
func Null[T any]() Optional[T] { return Optional[T]{Set: true, Null: true} }

// UnmarshalJSON is only invoked for keys present in the document, which is
// what distinguishes absent from null.
func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		o.Null = true
		var zero T
		o.Value = zero
		return nil
	}
	o.Null = false
	return json.Unmarshal(b, &o.Value)
}

// Ptr returns nil for null and a pointer to the value otherwise.  Callers
// check Set first.
func (o Optional[T]) Ptr() *T {
	if o.Null {
		return nil
	}
	v := o.Value
	return &v
}

// MovieUpdate lists the fields a partial movie update may touch.
type MovieUpdate struct {
	Title      Optional[string] `json:"title"`
	Synopsis   Optional[string] `json:"synopsis"`
	CoverImage Optional[string] `json:"coverImage"`
	Comments   Optional[string] `json:"comments"`
	Rating     Optional[int]    `json:"rating"`
	Duration   Optional[int]    `json:"duration"`
	Watched    Optional[bool]   `json:"watched"`
}

// Empty reports whether no field was supplied.
func (u MovieUpdate) Empty() bool {
	return !u.Title.Set && !u.Synopsis.Set && !u.CoverImage.Set && !u.Comments.Set &&
		!u.Rating.Set && !u.Duration.Set && !u.Watched.Set
}

// UserUpdate lists the fields a partial user update may touch.  Password is
// plain text here and is hashed before it reaches the repository.
type UserUpdate struct {
	Email    Optional[string] `json:"email"`
	Password Optional[string] `json:"password"`
	Name     Optional[string] `json:"name"`
	IsAdmin  Optional[bool]   `json:"isAdmin"`
}
