package query

import "errors"

// Error definitions for the query view.
var (
	// ErrNoCorpusService indicates that no corpus service was provided.
	ErrNoCorpusService = errors.New("corpus service is required")

	// ErrNoSourceResource indicates the selected match has no address to open.
	ErrNoSourceResource = errors.New("match has no source resource")
)
