// Package rpackage discovers R package sources fetched through a shared
// driven.PackageCache. Files are classified by directory: .R files under
// R/ are code, R-flavoured files under vignettes/ are examples and under
// man/ are documentation. Everything else is ignored.
package rpackage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/custodia-labs/sercha-corpus/internal/core/domain"
	"github.com/custodia-labs/sercha-corpus/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-corpus/internal/loaders"
)

// Slug identifies this loader in resource IDs.
const Slug = "rcran"

// Language is recorded in resource metadata.
const Language = "rlang"

// Ensure Loader implements the interface.
var _ driven.Loader = (*Loader)(nil)

// Loader discovers files of R packages.
type Loader struct {
	cache    driven.PackageCache
	defaults loaders.Defaults
}

// New creates a loader that fetches packages through cache.
func New(cache driven.PackageCache, defaults loaders.Defaults) *Loader {
	return &Loader{cache: cache, defaults: defaults}
}

// Slug implements driven.Loader.
func (l *Loader) Slug() string { return Slug }

// Classify returns the kind of a file at rel inside a package, or false
// when the file is not collected.
func Classify(rel string) (domain.Kind, bool) {
	parts := strings.Split(filepath.ToSlash(rel), "/")
	dirs := parts[:len(parts)-1]
	ext := path.Ext(rel)

	switch {
	case slices.Contains(dirs, "R") && ext == ".R":
		return domain.KindCode, true
	case slices.Contains(dirs, "vignettes") && strings.HasPrefix(ext, ".R"):
		return domain.KindExample, true
	case slices.Contains(dirs, "man") && strings.HasPrefix(ext, ".R"):
		return domain.KindDocumentation, true
	}
	return "", false
}

// Discover implements driven.Loader.
// All packages are held for the whole iteration and released when it ends,
// including when the consumer stops early.
func (l *Loader) Discover(ctx context.Context, req driven.DiscoverRequest) iter.Seq2[*domain.Resource, error] {
	return func(yield func(*domain.Resource, error) bool) {
		pass := l.defaults.Resolve(req)

		var packages []string
		for _, root := range pass.Roots {
			name := packageName(root)
			if pass.Excluded(name) {
				continue
			}
			packages = append(packages, name)
		}
		if len(packages) == 0 {
			return
		}

		dirs, err := l.cache.Acquire(ctx, packages)
		if err != nil {
			yield(nil, err)
			return
		}
		defer l.cache.Release(packages) //nolint:errcheck // release failures only affect cleanup

		for _, pkg := range packages {
			resources, err := l.walk(pkg, dirs[pkg], pass)
			if err != nil {
				yield(nil, err)
				return
			}
			for _, res := range resources {
				if !pass.Keep(res) {
					continue
				}
				if !yield(res, nil) {
					return
				}
			}
		}
	}
}

// walk collects a package's resources in path order.
func (l *Loader) walk(pkg, dir string, pass loaders.Pass) ([]*domain.Resource, error) {
	var out []*domain.Resource
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if strings.HasPrefix(d.Name(), ".") && p != dir {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		kind, ok := Classify(rel)
		if !ok || pass.Excluded(pkg+"/"+rel) {
			return nil
		}

		content, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("reading %s: %w", p, err)
		}
		addr, err := domain.NewAddress(domain.SchemeRPackage, rel, pkg)
		if err != nil {
			return err
		}
		meta := loaders.MergeMetadata(map[string]any{
			"package":  pkg,
			"path":     rel,
			"type":     kind.String(),
			"language": Language,
		}, pass.Metadata)

		res, err := domain.NewResource(addr, kind, content, nil, meta)
		if err != nil {
			return err
		}
		res.ID = loaders.ResourceID(Slug, addr)
		out = append(out, res)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking package %s: %w", pkg, err)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Address.Path() < out[j].Address.Path() })
	return out, nil
}

// Read implements driven.Loader. location is a path inside the package
// named by base.
func (l *Loader) Read(ctx context.Context, location, base string) ([]byte, error) {
	if addr, err := domain.ParseAddress(location); err == nil && addr.Scheme() != "" {
		location, base = addr.Path(), addr.Fragment()
	}
	if base == "" {
		return nil, fmt.Errorf("%w: %q names no package", domain.ErrInvalidAddress, location)
	}

	pkg := packageName(base)
	dirs, err := l.cache.Acquire(ctx, []string{pkg})
	if err != nil {
		return nil, err
	}
	data, readErr := os.ReadFile(filepath.Join(dirs[pkg], filepath.FromSlash(location)))
	if err := l.cache.Release([]string{pkg}); err != nil {
		return nil, err
	}
	if errors.Is(readErr, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s in package %s", domain.ErrNotFound, location, pkg)
	}
	if readErr != nil {
		return nil, fmt.Errorf("reading %s in package %s: %w", location, pkg, readErr)
	}
	return data, nil
}

// packageName strips a scheme prefix from location.
func packageName(location string) string {
	if addr, err := domain.ParseAddress(location); err == nil && addr.Scheme() != "" {
		return addr.Path()
	}
	return location
}
