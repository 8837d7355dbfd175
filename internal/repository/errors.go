// Package repository contains data access logic separated from HTTP handlers.
// Sentinel errors defined here let handlers distinguish failure scenarios
// without inspecting driver-specific errors.
package repository

import "errors"

// ErrNotFound is returned when a row does not exist or is not visible to the
// caller.  Handlers translate it into HTTP 404; the two cases are
// deliberately indistinguishable.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when an insert or update would duplicate
// users.email.
var ErrEmailExists = errors.New("email already exists")
