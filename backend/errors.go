package backend

import (
	"errors"
	"fmt"
)

// Common errors returned by adapters and the registry.
var (
	// ErrUnknownBackend is returned when no backend is configured for a
	// requested media name.
	ErrUnknownBackend = errors.New("unknown backend")

	// ErrUnreachable is returned when a backend cannot be reached or a
	// call times out. Adapters never retry silently; retry policy
	// belongs to the caller.
	ErrUnreachable = errors.New("backend unreachable")

	// ErrRejected is returned when the backend itself rejected a call,
	// e.g. an invalid quality profile on an add.
	ErrRejected = errors.New("backend rejected request")
)

// Unreachable wraps a transport error as ErrUnreachable while keeping
// the cause available for logs.
func Unreachable(err error) error {
	return fmt.Errorf("%w: %w", ErrUnreachable, err)
}

// Rejected wraps a backend validation failure as ErrRejected.
func Rejected(err error) error {
	return fmt.Errorf("%w: %w", ErrRejected, err)
}
