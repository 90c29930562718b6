package storage

import "errors"

// Storage errors shared by all HiveStore backends.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a compare-and-swap status guard fails,
	// meaning another writer changed the record first.
	ErrConflict = errors.New("conflict: record status changed concurrently")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)
