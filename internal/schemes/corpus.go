package schemes

import (
	"context"
	"fmt"
	"path"

	"github.com/custodia-labs/sercha-corpus/internal/core/domain"
	"github.com/custodia-labs/sercha-corpus/internal/core/ports/driven"
)

// Ensure CorpusHandler implements the interface.
var _ driven.SchemeHandler = (*CorpusHandler)(nil)

// CorpusHandler serves resources saved inside a corpus snapshot. Reads
// need the corpus passed in ReadOptions.
type CorpusHandler struct{}

// NewCorpusHandler creates a corpus handler.
func NewCorpusHandler() *CorpusHandler {
	return &CorpusHandler{}
}

// Scheme implements driven.SchemeHandler.
func (h *CorpusHandler) Scheme() string { return domain.SchemeCorpus }

// Aliases implements driven.SchemeHandler.
func (h *CorpusHandler) Aliases() []string { return nil }

// Read implements driven.SchemeHandler.
func (h *CorpusHandler) Read(ctx context.Context, addr domain.Address, opts driven.ReadOptions) ([]byte, error) {
	if addr.Scheme() != h.Scheme() {
		return nil, mismatch(addr, h.Scheme())
	}
	if opts.Corpus == nil {
		return nil, fmt.Errorf("%w: reading %s needs a corpus", domain.ErrInvalidInput, addr)
	}
	return opts.Corpus.ReadResource(ctx, addr.String())
}

// JoinParts implements driven.SchemeHandler.
func (h *CorpusHandler) JoinParts(parts ...string) string {
	return path.Join(parts...)
}

// AddressFor implements driven.SchemeHandler. base is usually a partition.
func (h *CorpusHandler) AddressFor(location, base string) (domain.Address, error) {
	return domain.NewAddress(h.Scheme(), h.JoinParts(base, location), "")
}

// DefaultLoader implements driven.SchemeHandler. Snapshots are opened, not ingested.
func (h *CorpusHandler) DefaultLoader() (driven.Loader, error) {
	return nil, fmt.Errorf("%w: the corpus scheme has no loader", domain.ErrUnsupportedType)
}
