package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown store backend, loader or embedding function.
	ErrUnsupportedType = errors.New("unsupported type")

	// Resolution Errors.

	// ErrLookup indicates an unknown scheme, a missing local path, an
	// unlocatable module or a package absent from the remote index.
	ErrLookup = errors.New("lookup failed")

	// ErrInvalidAddress indicates an address that cannot be parsed or built,
	// or a resource constructed with both or neither of content and handle.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrValidation indicates a resource failed its kind-specific validation.
	ErrValidation = errors.New("validation failed")

	// Snapshot Errors.

	// ErrSnapshotIntegrity indicates a snapshot target or source that cannot be used:
	// a missing component, a non-empty target without overwrite, a target that is
	// not a directory, or a concurrent save in progress.
	ErrSnapshotIntegrity = errors.New("snapshot integrity")
)

// ValidationError describes why a resource was rejected by its validator.
// It unwraps to ErrValidation.
type ValidationError struct {
	// Address identifies the rejected resource.
	Address string

	// Reason is a human-readable explanation.
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Address == "" {
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("validation failed for %s: %s", e.Address, e.Reason)
}

// Unwrap allows errors.Is(err, ErrValidation).
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
