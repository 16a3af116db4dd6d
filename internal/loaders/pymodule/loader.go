// Package pymodule discovers Python modules and their submodules as code
// resources through a driven.ModuleLocator, so nothing is ever imported.
package pymodule

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/custodia-labs/sercha-corpus/internal/core/domain"
	"github.com/custodia-labs/sercha-corpus/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-corpus/internal/loaders"
	"github.com/custodia-labs/sercha-corpus/internal/logger"
)

// Slug identifies this loader in resource IDs.
const Slug = "python"

// Language is recorded in resource metadata.
const Language = "python3"

// Ensure Loader implements the interface.
var _ driven.Loader = (*Loader)(nil)

// Loader walks a module tree breadth first.
type Loader struct {
	locator  driven.ModuleLocator
	defaults loaders.Defaults
}

// New creates a loader backed by locator.
func New(locator driven.ModuleLocator, defaults loaders.Defaults) *Loader {
	return &Loader{locator: locator, defaults: defaults}
}

// Slug implements driven.Loader.
func (l *Loader) Slug() string { return Slug }

// Discover implements driven.Loader.
// Every root must be locatable. Exclusions are applied before a package's
// children are expanded, so an excluded package's descendants are never visited.
func (l *Loader) Discover(ctx context.Context, req driven.DiscoverRequest) iter.Seq2[*domain.Resource, error] {
	return func(yield func(*domain.Resource, error) bool) {
		pass := l.defaults.Resolve(req)

		var queue []*driven.ModuleInfo
		for _, root := range pass.Roots {
			name := moduleName(root)
			if pass.Excluded(name) {
				continue
			}
			info, err := l.locator.Locate(ctx, name)
			if err != nil {
				yield(nil, fmt.Errorf("%w: module %q cannot be located: %w", domain.ErrLookup, name, err))
				return
			}
			queue = append(queue, info)
		}

		for len(queue) > 0 {
			info := queue[0]
			queue = queue[1:]

			if info.IsPackage {
				for _, child := range info.Children {
					if pass.Excluded(child) {
						continue
					}
					childInfo, err := l.locator.Locate(ctx, child)
					if err != nil {
						if !yield(nil, fmt.Errorf("locating %s: %w", child, err)) {
							return
						}
						continue
					}
					queue = append(queue, childInfo)
				}
			}

			if !info.HasSource || !strings.HasSuffix(info.Origin, ".py") {
				logger.Debug("Skipping non-python module %s (%s)", info.Name, info.Origin)
				continue
			}

			res, err := l.resource(info, pass.Metadata)
			if err != nil {
				if !yield(nil, err) {
					return
				}
				continue
			}
			if !pass.Keep(res) {
				continue
			}
			if !yield(res, nil) {
				return
			}
		}
	}
}

func (l *Loader) resource(info *driven.ModuleInfo, metadata map[string]any) (*domain.Resource, error) {
	addr, err := domain.NewAddress(domain.SchemePyModule, info.Name, "")
	if err != nil {
		return nil, err
	}
	meta := loaders.MergeMetadata(map[string]any{
		"package":  info.Name,
		"type":     domain.KindCode.String(),
		"language": Language,
	}, metadata)

	res, err := domain.NewResource(addr, domain.KindCode, []byte(info.Source), nil, meta)
	if err != nil {
		return nil, err
	}
	res.ID = loaders.ResourceID(Slug, addr)
	return res, nil
}

// Read implements driven.Loader. A non-empty base is treated as the parent
// package of location.
func (l *Loader) Read(ctx context.Context, location, base string) ([]byte, error) {
	name := moduleName(location)
	if base != "" && !strings.HasPrefix(location, domain.SchemePyModule+":") {
		name = base + "." + name
	}
	info, err := l.locator.Locate(ctx, name)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("locating %s: %w", name, err)
	}
	if !info.HasSource {
		return nil, fmt.Errorf("%w: module %s has no source", domain.ErrNotFound, name)
	}
	return []byte(info.Source), nil
}

// moduleName strips a scheme prefix from location.
func moduleName(location string) string {
	if addr, err := domain.ParseAddress(location); err == nil && addr.Scheme() != "" {
		return addr.Path()
	}
	return location
}
