package schemes

import (
	"context"
	"path"

	"github.com/custodia-labs/sercha-corpus/internal/core/domain"
	"github.com/custodia-labs/sercha-corpus/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-corpus/internal/loaders"
	"github.com/custodia-labs/sercha-corpus/internal/loaders/archive"
)

// Ensure ZippedFileHandler implements the interface.
var _ driven.SchemeHandler = (*ZippedFileHandler)(nil)

// ZippedFileHandler serves members of zip archives. The archive path sits
// before the fragment and the member path is the fragment.
type ZippedFileHandler struct {
	loader *archive.Loader
}

// NewZippedFileHandler creates a zipped-file handler.
func NewZippedFileHandler(defaults loaders.Defaults) *ZippedFileHandler {
	return &ZippedFileHandler{loader: archive.New(domain.KindGeneric, defaults)}
}

// Scheme implements driven.SchemeHandler.
func (h *ZippedFileHandler) Scheme() string { return domain.SchemeZippedFile }

// Aliases implements driven.SchemeHandler.
func (h *ZippedFileHandler) Aliases() []string { return nil }

// Read implements driven.SchemeHandler.
func (h *ZippedFileHandler) Read(ctx context.Context, addr domain.Address, _ driven.ReadOptions) ([]byte, error) {
	if addr.Scheme() != h.Scheme() {
		return nil, mismatch(addr, h.Scheme())
	}
	if addr.Fragment() == "" {
		return nil, mismatch(addr, h.Scheme())
	}
	return h.loader.Read(ctx, addr.String(), "")
}

// JoinParts implements driven.SchemeHandler.
func (h *ZippedFileHandler) JoinParts(parts ...string) string {
	return path.Join(parts...)
}

// AddressFor implements driven.SchemeHandler. location is the member and
// base the archive.
func (h *ZippedFileHandler) AddressFor(location, base string) (domain.Address, error) {
	return archive.AddressFor(base, location)
}

// DefaultLoader implements driven.SchemeHandler.
func (h *ZippedFileHandler) DefaultLoader() (driven.Loader, error) {
	return h.loader, nil
}
