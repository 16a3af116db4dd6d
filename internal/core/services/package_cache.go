package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/custodia-labs/sercha-corpus/internal/core/domain"
	"github.com/custodia-labs/sercha-corpus/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-corpus/internal/logger"
	"github.com/custodia-labs/sercha-corpus/internal/metrics"
)

// Ensure PackageCache implements the interface.
var _ driven.PackageCache = (*PackageCache)(nil)

// cacheEntry is one live extraction.
type cacheEntry struct {
	// dir is the temporary directory removed when refs reaches zero.
	dir string

	// root is the package root inside dir.
	root string

	refs int
}

// PackageCache extracts remote packages into temporary directories shared by
// every caller that holds a reference. One instance is shared per process.
type PackageCache struct {
	fetcher  driven.PackageFetcher
	tempRoot string

	mu      sync.Mutex
	index   map[string]PackageEntry
	entries map[string]*cacheEntry
}

// PackageCacheOption configures a PackageCache.
type PackageCacheOption func(*PackageCache)

// WithTempRoot places extraction directories under dir instead of os.TempDir.
func WithTempRoot(dir string) PackageCacheOption {
	return func(c *PackageCache) {
		c.tempRoot = dir
	}
}

// NewPackageCache creates a cache backed by fetcher.
func NewPackageCache(fetcher driven.PackageFetcher, opts ...PackageCacheOption) *PackageCache {
	c := &PackageCache{
		fetcher: fetcher,
		entries: make(map[string]*cacheEntry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Acquire implements driven.PackageCache.
func (c *PackageCache) Acquire(ctx context.Context, locations []string) (map[string]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	dirs := make(map[string]string, len(locations))
	var acquired []string
	for _, loc := range dedupe(locations) {
		entry, ok := c.entries[loc]
		if ok && dirExists(entry.root) {
			entry.refs++
			acquired = append(acquired, loc)
			dirs[loc] = entry.root
			continue
		}

		dir, root, err := c.fetch(ctx, loc)
		if err != nil {
			c.release(acquired) //nolint:errcheck // rollback of this call only
			return nil, err
		}
		if ok {
			// The directory vanished underneath a live entry.
			entry.dir, entry.root = dir, root
			entry.refs++
		} else {
			c.entries[loc] = &cacheEntry{dir: dir, root: root, refs: 1}
		}
		acquired = append(acquired, loc)
		dirs[loc] = root
	}

	metrics.PackageCacheEntries.Set(float64(len(c.entries)))
	return dirs, nil
}

// Release implements driven.PackageCache.
func (c *PackageCache) Release(locations []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.release(dedupe(locations))
}

func (c *PackageCache) release(locations []string) error {
	var errs []error
	for _, loc := range locations {
		entry, ok := c.entries[loc]
		if !ok {
			errs = append(errs, fmt.Errorf("%w: package %q is not acquired", domain.ErrInvalidInput, loc))
			continue
		}
		entry.refs--
		if entry.refs > 0 {
			continue
		}
		delete(c.entries, loc)
		logger.Debug("Removing extracted package %s from %s", loc, entry.dir)
		if err := os.RemoveAll(entry.dir); err != nil {
			errs = append(errs, fmt.Errorf("removing %s: %w", entry.dir, err))
		}
	}
	metrics.PackageCacheEntries.Set(float64(len(c.entries)))
	return errors.Join(errs...)
}

// With acquires locations, calls fn with their directories and releases them
// on every exit path.
func (c *PackageCache) With(ctx context.Context, locations []string, fn func(dirs map[string]string) error) (err error) {
	dirs, err := c.Acquire(ctx, locations)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, c.Release(locations))
	}()
	return fn(dirs)
}

// RefCount returns the live reference count of location.
func (c *PackageCache) RefCount(location string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.entries[location]; ok {
		return entry.refs
	}
	return 0
}

// Live lists locations with at least one reference, sorted.
func (c *PackageCache) Live() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	live := make([]string, 0, len(c.entries))
	for loc := range c.entries {
		live = append(live, loc)
	}
	sort.Strings(live)
	return live
}

// fetch resolves, downloads and extracts one location.
func (c *PackageCache) fetch(ctx context.Context, location string) (dir, root string, err error) {
	name, version, err := c.resolve(ctx, location)
	if err != nil {
		return "", "", err
	}

	logger.Info("Fetching package %s %s", name, version)
	rc, err := c.fetcher.FetchArchive(ctx, name, version)
	if err != nil {
		metrics.PackageFetches.WithLabelValues("error").Inc()
		return "", "", fmt.Errorf("%w: fetching %s %s: %w", domain.ErrLookup, name, version, err)
	}
	defer rc.Close()

	dir, err = os.MkdirTemp(c.tempRoot, "rpkg-"+name+"-*")
	if err != nil {
		return "", "", fmt.Errorf("creating extraction directory: %w", err)
	}
	if err := extractTarGz(rc, dir); err != nil {
		os.RemoveAll(dir)
		metrics.PackageFetches.WithLabelValues("error").Inc()
		return "", "", fmt.Errorf("%w: extracting %s %s: %w", domain.ErrLookup, name, version, err)
	}
	metrics.PackageFetches.WithLabelValues("ok").Inc()

	// Source archives wrap everything in a directory named after the package.
	root = dir
	if nested := filepath.Join(dir, name); dirExists(nested) {
		root = nested
	}
	return dir, root, nil
}

// resolve returns the name and version of location, consulting the index
// when no version is given.
func (c *PackageCache) resolve(ctx context.Context, location string) (name, version string, err error) {
	name, version = splitPackageSpec(location)
	if name == "" {
		return "", "", fmt.Errorf("%w: empty package name in %q", domain.ErrInvalidInput, location)
	}
	if version != "" {
		return name, version, nil
	}

	if err := c.loadIndex(ctx); err != nil {
		return "", "", err
	}
	entry, ok := c.index[name]
	if !ok || entry.Version() == "" {
		return "", "", fmt.Errorf("%w: package %q not found in repository index", domain.ErrLookup, name)
	}
	return name, entry.Version(), nil
}

// loadIndex builds the package index once. A failed build is retried on the
// next call.
func (c *PackageCache) loadIndex(ctx context.Context) error {
	if c.index != nil {
		return nil
	}
	rc, err := c.fetcher.FetchIndex(ctx)
	if err != nil {
		return fmt.Errorf("%w: fetching package index: %w", domain.ErrLookup, err)
	}
	defer rc.Close()

	index, err := ParsePackageIndex(rc)
	if err != nil {
		return err
	}
	logger.Debug("Loaded package index with %d entries", len(index))
	c.index = index
	return nil
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
