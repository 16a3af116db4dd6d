package cran

import (
	"fmt"

	"github.com/custodia-labs/sercha-corpus/internal/core/domain"
)

// StatusError is returned when the repository answers with a non-200 status.
// It unwraps to domain.ErrLookup.
type StatusError struct {
	URL  string
	Code int
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: status %d", e.URL, e.Code)
}

// Unwrap allows errors.Is(err, domain.ErrLookup).
func (e *StatusError) Unwrap() error {
	return domain.ErrLookup
}
