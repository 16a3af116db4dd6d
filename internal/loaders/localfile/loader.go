// Package localfile discovers resources from files and directories on disk.
//
// Directories are walked breadth first. Names starting with "." are skipped,
// as are "*.metadata" sidecars. A directory's ".metadata" file and a file's
// "<name>.metadata" file are YAML (or JSON) maps merged into the metadata of
// the resources beneath them, the closest sidecar winning.
package localfile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/sercha-corpus/internal/core/domain"
	"github.com/custodia-labs/sercha-corpus/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-corpus/internal/loaders"
	"github.com/custodia-labs/sercha-corpus/internal/logger"
)

// Slug identifies this loader in resource IDs.
const Slug = "local"

// MetadataSuffix marks sidecar metadata files.
const MetadataSuffix = ".metadata"

// Ensure Loader implements the interface.
var _ driven.Loader = (*Loader)(nil)

// Loader discovers local files.
type Loader struct {
	scheme   string
	kind     domain.Kind
	defaults loaders.Defaults
}

// Option configures a Loader.
type Option func(*Loader)

// WithScheme sets the scheme of produced addresses.
func WithScheme(scheme string) Option {
	return func(l *Loader) {
		l.scheme = scheme
	}
}

// WithKind sets the kind of produced resources.
func WithKind(kind domain.Kind) Option {
	return func(l *Loader) {
		l.kind = kind
	}
}

// WithDefaults sets constructor-time locations, metadata and exclusions.
func WithDefaults(d loaders.Defaults) Option {
	return func(l *Loader) {
		l.defaults = d
	}
}

// New creates a local file loader producing generic file resources.
func New(opts ...Option) *Loader {
	l := &Loader{
		scheme: domain.SchemeFile,
		kind:   domain.KindGeneric,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Slug implements driven.Loader.
func (l *Loader) Slug() string { return Slug }

// Kind returns the kind of produced resources.
func (l *Loader) Kind() domain.Kind { return l.kind }

// queued is a path waiting to be visited with the metadata layers above it.
type queued struct {
	path   string
	layers []map[string]any
}

// Discover implements driven.Loader.
// Every root must exist; otherwise nothing is yielded and the error lists
// each missing path.
func (l *Loader) Discover(ctx context.Context, req driven.DiscoverRequest) iter.Seq2[*domain.Resource, error] {
	return func(yield func(*domain.Resource, error) bool) {
		pass := l.defaults.Resolve(req)
		if len(pass.Roots) == 0 {
			yield(nil, fmt.Errorf("%w: no locations to discover local files", domain.ErrInvalidInput))
			return
		}

		roots, err := absRoots(pass.Roots)
		if err != nil {
			yield(nil, err)
			return
		}
		pass.Exclusions = absExclusions(pass.Exclusions)

		queue := make([]queued, 0, len(roots))
		for _, r := range roots {
			queue = append(queue, queued{path: r, layers: []map[string]any{pass.Metadata}})
		}

		for len(queue) > 0 {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			item := queue[0]
			queue = queue[1:]

			if pass.Excluded(item.path) {
				continue
			}
			info, err := os.Stat(item.path)
			if err != nil {
				logger.Debug("Skipping %s: %v", item.path, err)
				continue
			}

			if info.IsDir() {
				children, err := l.expand(item)
				if err != nil {
					if !yield(nil, err) {
						return
					}
					continue
				}
				queue = append(queue, children...)
				continue
			}
			if !info.Mode().IsRegular() || strings.HasSuffix(item.path, MetadataSuffix) {
				continue
			}

			res, err := l.resource(item)
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

// expand lists a directory's visible children, carrying its sidecar metadata down.
func (l *Loader) expand(item queued) ([]queued, error) {
	layers := item.layers
	meta, err := readSidecar(filepath.Join(item.path, MetadataSuffix))
	if err != nil {
		return nil, err
	}
	if meta != nil {
		layers = append(layers[:len(layers):len(layers)], meta)
	}

	entries, err := os.ReadDir(item.path)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", item.path, err)
	}
	children := make([]queued, 0, len(entries))
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		children = append(children, queued{path: filepath.Join(item.path, e.Name()), layers: layers})
	}
	return children, nil
}

// resource builds a handle-backed resource for a file.
func (l *Loader) resource(item queued) (*domain.Resource, error) {
	layers := item.layers
	meta, err := readSidecar(item.path + MetadataSuffix)
	if err != nil {
		return nil, err
	}
	if meta != nil {
		layers = append(layers[:len(layers):len(layers)], meta)
	}

	addr, err := domain.NewAddress(l.scheme, filepath.ToSlash(item.path), "")
	if err != nil {
		return nil, err
	}
	path := item.path
	opener := func() (io.ReadCloser, error) { return os.Open(path) }

	res, err := domain.NewResource(addr, l.kind, nil, opener, loaders.MergeMetadata(layers...))
	if err != nil {
		return nil, err
	}
	res.ID = loaders.ResourceID(Slug, addr)
	return res, nil
}

// Read implements driven.Loader. Relative locations are resolved against base.
func (l *Loader) Read(_ context.Context, location, base string) ([]byte, error) {
	if addr, err := domain.ParseAddress(location); err == nil && addr.Scheme() != "" {
		location = addr.Path()
	}
	if !filepath.IsAbs(location) && base != "" {
		location = filepath.Join(base, location)
	}
	data, err := os.ReadFile(location)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, location)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", location, err)
	}
	return data, nil
}

// absRoots makes roots absolute and fails with every missing path listed.
// absExclusions resolves exclusions written relative to the working
// directory ("./build", "../shared") the same way roots are resolved, so
// they can match the absolute paths being visited. Other exclusions are
// substrings and pass through unchanged.
func absExclusions(exclusions []string) []string {
	out := make([]string, 0, len(exclusions))
	for _, ex := range exclusions {
		slashed := filepath.ToSlash(ex)
		if ex == "." || ex == ".." || strings.HasPrefix(slashed, "./") || strings.HasPrefix(slashed, "../") {
			if abs, err := filepath.Abs(filepath.FromSlash(ex)); err == nil {
				ex = abs
			}
		}
		out = append(out, ex)
	}
	return out
}

func absRoots(roots []string) ([]string, error) {
	out := make([]string, 0, len(roots))
	var missing []string
	for _, r := range roots {
		if addr, err := domain.ParseAddress(r); err == nil && addr.Scheme() != "" {
			r = addr.Path()
		}
		abs, err := filepath.Abs(filepath.FromSlash(r))
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", r, err)
		}
		if _, err := os.Stat(abs); err != nil {
			missing = append(missing, abs)
			continue
		}
		out = append(out, abs)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: paths do not exist: %s", domain.ErrLookup, strings.Join(missing, ", "))
	}
	return out, nil
}

// readSidecar parses a metadata sidecar. A missing file yields nil.
func readSidecar(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading metadata %s: %w", path, err)
	}
	var meta map[string]any
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("%w: metadata %s: %v", domain.ErrInvalidInput, path, err)
	}
	if meta == nil {
		meta = map[string]any{}
	}
	return meta, nil
}
