package driven

import (
	"context"
	"iter"

	"github.com/custodia-labs/sercha-corpus/internal/core/domain"
)

// DiscoverRequest scopes a single discovery pass.
type DiscoverRequest struct {
	// Locations are loader-specific locators. Entries prefixed with "!"
	// are exclusions rather than roots.
	Locations []string

	// Metadata is merged into every discovered resource.
	Metadata map[string]any

	// Exclusions are added to the loader's own exclusions for this pass.
	Exclusions []string

	// Filter, when set, drops resources for which it returns false.
	Filter func(*domain.Resource) bool
}

// Loader enumerates resources reachable from a set of locations.
type Loader interface {
	// Slug identifies the loader in resource IDs.
	Slug() string

	// Discover lazily yields resources. A non-nil error ends the sequence.
	Discover(ctx context.Context, req DiscoverRequest) iter.Seq2[*domain.Resource, error]

	// Read returns the bytes at location, resolved relative to base.
	Read(ctx context.Context, location, base string) ([]byte, error)
}

// ResourceEmbedder converts resources into records for one resource kind.
type ResourceEmbedder interface {
	// Records validates (when applicable) and splits a resource.
	// Rejections wrap domain.ErrValidation.
	Records(ctx context.Context, res *domain.Resource) ([]domain.Record, error)

	// EmbeddingFunction returns the embedder's own function, or nil to
	// defer to the corpus default.
	EmbeddingFunction() EmbeddingFunction
}
