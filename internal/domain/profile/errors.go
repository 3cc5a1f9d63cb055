package profile

import "errors"

var (
	// ErrNotFound is returned when no live record exists for the given ID.
	ErrNotFound = errors.New("profile not found")
	// ErrDuplicateKey is returned when a create collides with an existing ID.
	ErrDuplicateKey = errors.New("profile already exists")
	// ErrVersionConflict is returned when expectedVersion does not match the
	// stored version. Nothing was mutated.
	ErrVersionConflict = errors.New("profile version conflict")
	// ErrConcurrencyExhausted is returned by the service layer when bounded
	// retries on ErrVersionConflict run out.
	ErrConcurrencyExhausted = errors.New("profile concurrency retries exhausted")
	// ErrStorageUnavailable marks transport-level failures reaching the
	// backing store. Never retried internally.
	ErrStorageUnavailable = errors.New("profile storage unavailable")
)
