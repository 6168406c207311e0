package store

import "errors"

// Validation errors abort the operation with no state change.
var (
	ErrEmptyName           = errors.New("name must not be blank")
	ErrNoProjectSelected   = errors.New("no project selected")
	ErrNonPositiveDuration = errors.New("end time must be after start time")
	ErrInvalidUnitCount    = errors.New("unit count must be positive")
)

// Authorization errors.
var (
	ErrNotAdmin      = errors.New("aggregate view requires an admin user")
	ErrWrongPassword = errors.New("wrong admin password")
)

// ErrBadSnapshot marks an import document that lacks the expected
// top-level collections. Nothing is applied when it is returned.
var ErrBadSnapshot = errors.New("snapshot: unrecognized document format")

// ErrNotFound is returned for lookups of ids the caller does not own
// or that do not exist.
var ErrNotFound = errors.New("not found")
