package schemes

import (
	"context"
	"path"

	"github.com/custodia-labs/sercha-corpus/internal/core/domain"
	"github.com/custodia-labs/sercha-corpus/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-corpus/internal/loaders"
	"github.com/custodia-labs/sercha-corpus/internal/loaders/rpackage"
)

// Ensure RPackageHandler implements the interface.
var _ driven.SchemeHandler = (*RPackageHandler)(nil)

// RPackageHandler serves files inside R packages.
//
// Unlike other schemes the fragment carries the identity (the package name)
// and the path is relative to the package root: rcran-package:R/utils.R#dplyr.
type RPackageHandler struct {
	loader *rpackage.Loader
}

// NewRPackageHandler creates a handler fetching packages through cache.
func NewRPackageHandler(cache driven.PackageCache, defaults loaders.Defaults) *RPackageHandler {
	return &RPackageHandler{loader: rpackage.New(cache, defaults)}
}

// Scheme implements driven.SchemeHandler.
func (h *RPackageHandler) Scheme() string { return domain.SchemeRPackage }

// Aliases implements driven.SchemeHandler.
func (h *RPackageHandler) Aliases() []string { return []string{"r_cran", "rlang", "r", "irkernel"} }

// Read implements driven.SchemeHandler.
func (h *RPackageHandler) Read(ctx context.Context, addr domain.Address, _ driven.ReadOptions) ([]byte, error) {
	if addr.Scheme() == "" || !owns(addr, h.Scheme(), h.Aliases()) {
		return nil, mismatch(addr, h.Scheme())
	}
	return h.loader.Read(ctx, addr.Path(), addr.Fragment())
}

// JoinParts implements driven.SchemeHandler.
func (h *RPackageHandler) JoinParts(parts ...string) string {
	return path.Join(parts...)
}

// AddressFor implements driven.SchemeHandler. base is the package name.
func (h *RPackageHandler) AddressFor(location, base string) (domain.Address, error) {
	return domain.NewAddress(h.Scheme(), location, base)
}

// DefaultLoader implements driven.SchemeHandler.
func (h *RPackageHandler) DefaultLoader() (driven.Loader, error) {
	return h.loader, nil
}
