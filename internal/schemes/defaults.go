package schemes

import (
	"github.com/custodia-labs/sercha-corpus/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-corpus/internal/loaders"
)

// Dependencies are the collaborators of the built-in handlers.
type Dependencies struct {
	Locator driven.ModuleLocator
	Cache   driven.PackageCache
}

// NewDefaultRegistry registers every built-in scheme. Handlers whose
// collaborator is nil are left out.
func NewDefaultRegistry(deps Dependencies) *Registry {
	r := NewRegistry(
		NewFileHandler(loaders.Defaults{}),
		NewDocumentationHandler(loaders.Defaults{}),
		NewExamplesHandler(loaders.Defaults{}),
		NewZippedFileHandler(loaders.Defaults{}),
		NewCorpusHandler(),
	)
	if deps.Locator != nil {
		r.Register(NewPythonModuleHandler(deps.Locator, loaders.Defaults{}))
	}
	if deps.Cache != nil {
		r.Register(NewRPackageHandler(deps.Cache, loaders.Defaults{}))
	}
	return r
}
