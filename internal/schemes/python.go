package schemes

import (
	"context"
	"strings"

	"github.com/custodia-labs/sercha-corpus/internal/core/domain"
	"github.com/custodia-labs/sercha-corpus/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-corpus/internal/loaders"
	"github.com/custodia-labs/sercha-corpus/internal/loaders/pymodule"
)

// Ensure PythonModuleHandler implements the interface.
var _ driven.SchemeHandler = (*PythonModuleHandler)(nil)

// PythonModuleHandler serves dotted Python module names.
type PythonModuleHandler struct {
	loader *pymodule.Loader
}

// NewPythonModuleHandler creates a handler resolving modules through locator.
func NewPythonModuleHandler(locator driven.ModuleLocator, defaults loaders.Defaults) *PythonModuleHandler {
	return &PythonModuleHandler{loader: pymodule.New(locator, defaults)}
}

// Scheme implements driven.SchemeHandler.
func (h *PythonModuleHandler) Scheme() string { return domain.SchemePyModule }

// Aliases implements driven.SchemeHandler.
func (h *PythonModuleHandler) Aliases() []string { return []string{"python", "python3"} }

// Read implements driven.SchemeHandler.
func (h *PythonModuleHandler) Read(ctx context.Context, addr domain.Address, _ driven.ReadOptions) ([]byte, error) {
	if addr.Scheme() == "" || !owns(addr, h.Scheme(), h.Aliases()) {
		return nil, mismatch(addr, h.Scheme())
	}
	return h.loader.Read(ctx, addr.Path(), "")
}

// JoinParts implements driven.SchemeHandler.
func (h *PythonModuleHandler) JoinParts(parts ...string) string {
	nonEmpty := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.Trim(p, "."); p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, ".")
}

// AddressFor implements driven.SchemeHandler. base is a parent package.
func (h *PythonModuleHandler) AddressFor(location, base string) (domain.Address, error) {
	return domain.NewAddress(h.Scheme(), h.JoinParts(base, location), "")
}

// DefaultLoader implements driven.SchemeHandler.
func (h *PythonModuleHandler) DefaultLoader() (driven.Loader, error) {
	return h.loader, nil
}
