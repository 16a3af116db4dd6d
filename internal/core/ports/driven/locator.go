package driven

import "context"

// ModuleInfo describes a located language module.
type ModuleInfo struct {
	// Name is the fully qualified dotted name.
	Name string

	// Origin is the file the module was loaded from, or "" for namespace packages.
	Origin string

	// Source is the module's source text when HasSource is true.
	Source string

	// HasSource is false for compiled extensions and namespace packages.
	HasSource bool

	// IsPackage reports whether the module can contain submodules.
	IsPackage bool

	// Children are the fully qualified names of direct submodules.
	Children []string
}

// ModuleLocator resolves dotted module names without importing them.
type ModuleLocator interface {
	// Locate finds a module. Unknown names wrap domain.ErrNotFound.
	Locate(ctx context.Context, dotted string) (*ModuleInfo, error)
}
