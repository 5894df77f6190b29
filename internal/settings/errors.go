package settings

import "errors"

var (
	// ErrUnknownKey is returned when a key was never registered. A missing
	// registration is a deployment defect, never silently defaulted.
	ErrUnknownKey = errors.New("unknown setting key")

	// ErrNoSubject is returned when a mutation is attempted without a
	// concrete subject to scope the override to.
	ErrNoSubject = errors.New("no subject for override")
)
