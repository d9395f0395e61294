package model

import "errors"

var (
	// ErrNotFound is returned when no row matches the given identifier or key.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateEmail is returned when an account with the email already exists.
	ErrDuplicateEmail = errors.New("email already exists")
	// ErrInvalidReading is returned when a reading violates the sensor invariants.
	ErrInvalidReading = errors.New("invalid weather reading")
	// ErrInvalidArgument is returned for malformed ids, pages, dates and payloads.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrDeletionLogFailed is returned when a reading was deleted but the audit
	// entry could not be appended. The deletion itself stays committed.
	ErrDeletionLogFailed = errors.New("deletion log append failed")
)
