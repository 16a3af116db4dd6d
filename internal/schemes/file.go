package schemes

import (
	"context"
	"path/filepath"

	"github.com/custodia-labs/sercha-corpus/internal/core/domain"
	"github.com/custodia-labs/sercha-corpus/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-corpus/internal/loaders"
	"github.com/custodia-labs/sercha-corpus/internal/loaders/localfile"
)

// Ensure FileHandler implements the interface.
var _ driven.SchemeHandler = (*FileHandler)(nil)

// FileHandler serves filesystem paths. The documentation and examples
// schemes are file handlers that tag discovered resources with their kind.
type FileHandler struct {
	scheme   string
	kind     domain.Kind
	defaults loaders.Defaults
}

// NewFileHandler handles file: addresses.
func NewFileHandler(defaults loaders.Defaults) *FileHandler {
	return &FileHandler{scheme: domain.SchemeFile, kind: domain.KindGeneric, defaults: defaults}
}

// NewDocumentationHandler handles documentation: addresses.
func NewDocumentationHandler(defaults loaders.Defaults) *FileHandler {
	return &FileHandler{scheme: domain.SchemeDocumentation, kind: domain.KindDocumentation, defaults: defaults}
}

// NewExamplesHandler handles examples: addresses.
func NewExamplesHandler(defaults loaders.Defaults) *FileHandler {
	return &FileHandler{scheme: domain.SchemeExamples, kind: domain.KindExample, defaults: defaults}
}

// Scheme implements driven.SchemeHandler.
func (h *FileHandler) Scheme() string { return h.scheme }

// Aliases implements driven.SchemeHandler.
func (h *FileHandler) Aliases() []string { return nil }

// Kind returns the kind given to discovered resources.
func (h *FileHandler) Kind() domain.Kind { return h.kind }

// Read implements driven.SchemeHandler.
func (h *FileHandler) Read(ctx context.Context, addr domain.Address, opts driven.ReadOptions) ([]byte, error) {
	if !owns(addr, h.scheme, nil) {
		return nil, mismatch(addr, h.scheme)
	}
	p := filepath.FromSlash(addr.Authority() + addr.Path())
	return h.loader().Read(ctx, p, opts.BaseDir)
}

// JoinParts implements driven.SchemeHandler.
func (h *FileHandler) JoinParts(parts ...string) string {
	return filepath.ToSlash(filepath.Join(parts...))
}

// AddressFor implements driven.SchemeHandler. Relative locations are
// resolved against base and made absolute.
func (h *FileHandler) AddressFor(location, base string) (domain.Address, error) {
	p := filepath.FromSlash(location)
	if !filepath.IsAbs(p) && base != "" {
		p = filepath.Join(base, p)
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return domain.Address{}, err
	}
	return domain.NewAddress(h.scheme, filepath.ToSlash(abs), "")
}

// DefaultLoader implements driven.SchemeHandler.
func (h *FileHandler) DefaultLoader() (driven.Loader, error) {
	return h.loader(), nil
}

func (h *FileHandler) loader() *localfile.Loader {
	return localfile.New(
		localfile.WithScheme(h.scheme),
		localfile.WithKind(h.kind),
		localfile.WithDefaults(h.defaults),
	)
}
