package domain

import "errors"

// Sentinel errors shared across packages. Callers match with errors.Is.
var (
	// ErrInvalidTransaction indicates a submission that fails validation
	// (missing fields or amount outside (0, 100000]).
	ErrInvalidTransaction = errors.New("invalid transaction")

	// ErrInvalidTransition indicates a status change out of a terminal
	// state or to an unknown status.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrMalformedTimestamp indicates a training row timestamp that does
	// not match the DD-MM-YYYY HH:MM format.
	ErrMalformedTimestamp = errors.New("malformed timestamp")

	// ErrModelNotFound indicates no model artifact exists at the
	// configured path. This is a normal condition for a fresh deployment.
	ErrModelNotFound = errors.New("model not found")

	// ErrModelCorrupt indicates the artifact exists but cannot be
	// deserialized into a valid classifier.
	ErrModelCorrupt = errors.New("model corrupt")
)
