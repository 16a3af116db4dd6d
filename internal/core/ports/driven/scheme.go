package driven

import (
	"context"

	"github.com/custodia-labs/sercha-corpus/internal/core/domain"
)

// ResourceReader reads resources by location. A corpus implements it so
// the corpus scheme can resolve its own addresses.
type ResourceReader interface {
	ReadResource(ctx context.Context, location string) ([]byte, error)
}

// ReadOptions carry context needed by some schemes.
type ReadOptions struct {
	// BaseDir resolves relative filesystem paths.
	BaseDir string

	// Corpus is required by the corpus scheme.
	Corpus ResourceReader
}

// SchemeHandler knows how to read, build and discover addresses of one scheme.
type SchemeHandler interface {
	// Scheme returns the primary token.
	Scheme() string

	// Aliases returns alternative tokens.
	Aliases() []string

	// Read returns the bytes at addr. Addresses of a foreign scheme are
	// rejected with domain.ErrInvalidAddress.
	Read(ctx context.Context, addr domain.Address, opts ReadOptions) ([]byte, error)

	// JoinParts combines path segments the way this scheme does.
	JoinParts(parts ...string) string

	// AddressFor builds an address for location under base.
	AddressFor(location, base string) (domain.Address, error)

	// DefaultLoader returns the loader used to ingest locations of this scheme.
	DefaultLoader() (Loader, error)
}

// SchemeRegistry resolves scheme tokens to handlers.
type SchemeRegistry interface {
	// Lookup resolves a primary token or alias. Unknown tokens wrap domain.ErrLookup.
	Lookup(scheme string) (SchemeHandler, error)

	// Read dispatches to the handler for addr's scheme.
	Read(ctx context.Context, addr domain.Address, opts ReadOptions) ([]byte, error)
}
