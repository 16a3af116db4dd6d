package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/sercha-corpus/internal/core/domain"
	"github.com/custodia-labs/sercha-corpus/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-corpus/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-corpus/internal/logger"
	"github.com/custodia-labs/sercha-corpus/internal/metrics"
)

// ZipFileName is used when SaveToZip is given a directory.
const ZipFileName = "corpus.zip"

// DefaultStoreFile is assumed when a descriptor names no store file.
const DefaultStoreFile = "store.db"

// SaveToDir implements driving.CorpusService.
//
// Resources referenced by records are copied under resources/<partition>/,
// relative to the deepest directory their filesystem paths share, and the
// saved records point at them with corpus addresses. Resources without a
// filesystem path go under a subtree named after their scheme. The live
// store is left untouched.
func (c *Corpus) SaveToDir(ctx context.Context, target string, overwrite bool) error {
	if err := c.saveToDir(ctx, target, overwrite); err != nil {
		return err
	}
	metrics.SnapshotsSaved.WithLabelValues("dir").Inc()
	return nil
}

func (c *Corpus) saveToDir(ctx context.Context, target string, overwrite bool) error {
	target, err := filepath.Abs(target)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", target, err)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("creating parent of %s: %w", target, err)
	}

	lock := flock.New(target + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("locking %s: %w", target, err)
	}
	if !locked {
		return fmt.Errorf("%w: another save to %s is in progress", domain.ErrSnapshotIntegrity, target)
	}
	defer func() {
		_ = lock.Unlock()
		_ = os.Remove(lock.Path())
	}()

	if err := prepareTarget(target, overwrite); err != nil {
		return err
	}

	clone, err := c.store.Clone(ctx)
	if err != nil {
		return fmt.Errorf("cloning store: %w", err)
	}
	defer clone.Close()

	partitions, err := clone.Partitions(ctx)
	if err != nil {
		return fmt.Errorf("listing partitions: %w", err)
	}
	resourcesDir := filepath.Join(target, domain.SnapshotResourcesDir)
	if err := os.MkdirAll(resourcesDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", resourcesDir, err)
	}
	for _, p := range partitions {
		if err := c.migratePartition(ctx, clone, p, resourcesDir); err != nil {
			return err
		}
	}

	storeFile, err := clone.SaveTo(ctx, filepath.Join(target, domain.SnapshotStoreBase))
	if err != nil {
		return fmt.Errorf("saving store: %w", err)
	}

	desc := domain.SnapshotDescriptor{Store: clone.Settings()}
	desc.Store.File = filepath.Base(storeFile)
	if c.embedding != nil {
		desc.Corpus.DefaultEmbeddingFunction = c.embedding.Name()
		if desc.Store.DefaultEmbeddingFunction == "" {
			desc.Store.DefaultEmbeddingFunction = c.embedding.Name()
		}
	}
	data, err := toml.Marshal(desc)
	if err != nil {
		return fmt.Errorf("encoding snapshot descriptor: %w", err)
	}
	if err := os.WriteFile(filepath.Join(target, domain.SnapshotConfigFile), data, 0o644); err != nil {
		return fmt.Errorf("writing snapshot descriptor: %w", err)
	}

	logger.Info("Saved corpus with %d partition(s) to %s", len(partitions), target)
	return nil
}

// prepareTarget makes target an empty directory.
func prepareTarget(target string, overwrite bool) error {
	info, err := os.Stat(target)
	if errors.Is(err, os.ErrNotExist) {
		return os.MkdirAll(target, 0o755)
	}
	if err != nil {
		return fmt.Errorf("checking %s: %w", target, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", domain.ErrSnapshotIntegrity, target)
	}

	entries, err := os.ReadDir(target)
	if err != nil {
		return fmt.Errorf("reading %s: %w", target, err)
	}
	if len(entries) == 0 {
		return nil
	}
	if !overwrite {
		return fmt.Errorf("%w: %s is not empty", domain.ErrSnapshotIntegrity, target)
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(target, e.Name())); err != nil {
			return fmt.Errorf("clearing %s: %w", target, err)
		}
	}
	return nil
}

// migratePartition copies one partition's resources into the snapshot and
// rewrites its records' addresses on the cloned store.
func (c *Corpus) migratePartition(ctx context.Context, store driven.VectorStore, partition, resourcesDir string) error {
	records, err := store.GetAll(ctx, partition, true)
	if err != nil {
		return fmt.Errorf("reading partition %s: %w", partition, err)
	}

	var addresses []domain.Address
	seen := make(map[string]bool)
	var fsPaths []string
	for _, rec := range records {
		if !rec.HasAddress() || seen[rec.Address.String()] {
			continue
		}
		seen[rec.Address.String()] = true
		addresses = append(addresses, rec.Address)
		if p, ok := resourcePath(rec.Address, partition); ok {
			fsPaths = append(fsPaths, p)
		}
	}
	if len(addresses) == 0 {
		return nil
	}
	prefix := commonDir(fsPaths)

	rewritten := make(map[string]domain.Address, len(addresses))
	used := make(map[string]bool, len(addresses))
	for _, addr := range addresses {
		p, fsBacked := resourcePath(addr, partition)
		rel := p
		if fsBacked && prefix != "" {
			if r, err := filepath.Rel(prefix, p); err == nil {
				rel = r
			}
		}
		rel = uniquePath(cleanRelative(rel), used)

		content, err := c.ReadResource(ctx, addr.String())
		if err != nil {
			return fmt.Errorf("reading resource %s: %w", addr, err)
		}
		dest := filepath.Join(resourcesDir, partition, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", filepath.Dir(dest), err)
		}
		if err := os.WriteFile(dest, content, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", dest, err)
		}

		newAddr, err := domain.NewAddress(domain.SchemeCorpus, partition+"/"+rel, "")
		if err != nil {
			return err
		}
		rewritten[addr.String()] = newAddr
	}

	updated := make([]domain.Record, 0, len(records))
	for _, rec := range records {
		if newAddr, ok := rewritten[rec.Address.String()]; ok && rec.HasAddress() {
			rec.Address = newAddr
			updated = append(updated, rec)
		}
	}
	if err := store.UpdateRecords(ctx, updated, partition); err != nil {
		return fmt.Errorf("rewriting addresses in %s: %w", partition, err)
	}
	logger.Debug("Copied %d resource(s) for partition %s", len(addresses), partition)
	return nil
}

// resourcePath returns the path a resource is stored under and whether it is
// a filesystem path that takes part in common-prefix computation.
func resourcePath(addr domain.Address, partition string) (string, bool) {
	switch addr.Scheme() {
	case "", domain.SchemeFile, domain.SchemeDocumentation, domain.SchemeExamples:
		p := filepath.Join(filepath.FromSlash(addr.Authority()), filepath.FromSlash(addr.Path()))
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		return p, true
	case domain.SchemeZippedFile:
		archive := filepath.Join(filepath.FromSlash(addr.Authority()), filepath.FromSlash(addr.Path()))
		return filepath.Join(archive, filepath.FromSlash(addr.Fragment())), true
	case domain.SchemeCorpus:
		return strings.TrimPrefix(strings.TrimPrefix(addr.Path(), "/"), partition+"/"), false
	case domain.SchemePyModule:
		return filepath.Join(domain.SchemePyModule, filepath.FromSlash(strings.ReplaceAll(addr.Path(), ".", "/")+".py")), false
	default:
		p := filepath.FromSlash(addr.Path())
		if addr.Fragment() != "" {
			p = filepath.Join(filepath.FromSlash(addr.Fragment()), p)
		}
		return filepath.Join(addr.Scheme(), p), false
	}
}

// uniquePath records rel as taken and returns it. When an earlier resource
// already took rel, a numeric suffix is added before the extension.
func uniquePath(rel string, used map[string]bool) string {
	candidate := rel
	ext := path.Ext(rel)
	stem := strings.TrimSuffix(rel, ext)
	for n := 2; used[candidate]; n++ {
		candidate = fmt.Sprintf("%s-%d%s", stem, n, ext)
	}
	used[candidate] = true
	return candidate
}

// commonDir returns the deepest directory containing every path, or "" when
// paths is empty.
func commonDir(paths []string) string {
	if len(paths) == 0 {
		return ""
	}
	prefix := strings.Split(filepath.Dir(paths[0]), string(filepath.Separator))
	for _, p := range paths[1:] {
		parts := strings.Split(filepath.Dir(p), string(filepath.Separator))
		n := 0
		for n < len(prefix) && n < len(parts) && prefix[n] == parts[n] {
			n++
		}
		prefix = prefix[:n]
	}
	if len(prefix) == 0 {
		return ""
	}
	dir := strings.Join(prefix, string(filepath.Separator))
	if dir == "" {
		return string(filepath.Separator)
	}
	return dir
}

// cleanRelative turns p into a slash-separated relative path that cannot
// climb out of its parent.
func cleanRelative(p string) string {
	cleaned := filepath.ToSlash(filepath.Clean(string(filepath.Separator) + p))
	return strings.TrimLeft(cleaned, "/")
}

// SaveToZip implements driving.CorpusService.
// A directory target receives corpus.zip.
func (c *Corpus) SaveToZip(ctx context.Context, target string, overwrite bool) error {
	if info, err := os.Stat(target); err == nil && info.IsDir() {
		target = filepath.Join(target, ZipFileName)
	}
	if _, err := os.Stat(target); err == nil && !overwrite {
		return fmt.Errorf("%w: %s already exists", domain.ErrSnapshotIntegrity, target)
	}
	if info, err := os.Stat(filepath.Dir(target)); err != nil || !info.IsDir() {
		return fmt.Errorf("%w: parent directory of %s does not exist", domain.ErrSnapshotIntegrity, target)
	}

	scratch, err := os.MkdirTemp("", "sercha-corpus-save-*")
	if err != nil {
		return fmt.Errorf("creating scratch directory: %w", err)
	}
	defer os.RemoveAll(scratch)

	staged := filepath.Join(scratch, "corpus")
	if err := c.saveToDir(ctx, staged, false); err != nil {
		return err
	}
	if err := writeZip(staged, target); err != nil {
		return err
	}
	metrics.SnapshotsSaved.WithLabelValues("zip").Inc()
	logger.Info("Archived corpus to %s", target)
	return nil
}

// Ensure SnapshotLoader implements the interface.
var _ driving.SnapshotLoader = (*SnapshotLoader)(nil)

// SnapshotLoader opens corpora saved by SaveToDir and SaveToZip.
type SnapshotLoader struct {
	registry   driven.SchemeRegistry
	embeddings driven.EmbeddingResolver
	backends   map[string]driven.StoreLoader
	opts       []CorpusOption
}

// NewSnapshotLoader creates a loader. backends maps descriptor backend names
// to store loaders; opts are applied to every opened corpus.
func NewSnapshotLoader(
	registry driven.SchemeRegistry,
	embeddings driven.EmbeddingResolver,
	backends map[string]driven.StoreLoader,
	opts ...CorpusOption,
) *SnapshotLoader {
	return &SnapshotLoader{
		registry:   registry,
		embeddings: embeddings,
		backends:   backends,
		opts:       opts,
	}
}

// FromDir implements driving.SnapshotLoader.
func (l *SnapshotLoader) FromDir(ctx context.Context, dir string) (driving.CorpusService, error) {
	c, err := l.open(ctx, dir)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// FromZip implements driving.SnapshotLoader.
// The archive is extracted into a scratch directory removed by Close.
func (l *SnapshotLoader) FromZip(ctx context.Context, path string) (driving.CorpusService, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrSnapshotIntegrity, path, err)
	}
	scratch, err := os.MkdirTemp("", "sercha-corpus-load-*")
	if err != nil {
		return nil, fmt.Errorf("creating scratch directory: %w", err)
	}
	if err := extractZip(path, scratch); err != nil {
		os.RemoveAll(scratch)
		return nil, fmt.Errorf("%w: %v", domain.ErrSnapshotIntegrity, err)
	}

	c, err := l.open(ctx, scratch)
	if err != nil {
		os.RemoveAll(scratch)
		return nil, err
	}
	c.scratch = scratch
	return c, nil
}

func (l *SnapshotLoader) open(ctx context.Context, dir string) (*Corpus, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", dir, err)
	}

	configPath := filepath.Join(dir, domain.SnapshotConfigFile)
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("%w: missing %s in %s", domain.ErrSnapshotIntegrity, domain.SnapshotConfigFile, dir)
	}
	resourcesDir := filepath.Join(dir, domain.SnapshotResourcesDir)
	if !dirExists(resourcesDir) {
		return nil, fmt.Errorf("%w: missing %s in %s", domain.ErrSnapshotIntegrity, domain.SnapshotResourcesDir, dir)
	}

	var desc domain.SnapshotDescriptor
	if err := toml.Unmarshal(data, &desc); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", domain.ErrSnapshotIntegrity, configPath, err)
	}

	storeFile := desc.Store.File
	if storeFile == "" {
		storeFile = DefaultStoreFile
	}
	storePath := filepath.Join(dir, filepath.Base(storeFile))
	if _, err := os.Stat(storePath); err != nil {
		return nil, fmt.Errorf("%w: missing store %s in %s", domain.ErrSnapshotIntegrity, storeFile, dir)
	}

	var ef driven.EmbeddingFunction
	name := desc.Store.DefaultEmbeddingFunction
	if name == "" {
		name = desc.Corpus.DefaultEmbeddingFunction
	}
	if name != "" && l.embeddings != nil {
		ef, err = l.embeddings.Resolve(name)
		if err != nil {
			return nil, fmt.Errorf("resolving embedding function: %w", err)
		}
	}

	load, ok := l.backends[desc.Store.Backend]
	if !ok {
		return nil, fmt.Errorf("%w: store backend %q", domain.ErrUnsupportedType, desc.Store.Backend)
	}
	store, err := load(ctx, storePath, desc.Store, ef)
	if err != nil {
		return nil, fmt.Errorf("loading store: %w", err)
	}

	opts := append([]CorpusOption{WithEmbeddingFunction(ef)}, l.opts...)
	c := NewCorpus(store, l.registry, opts...)
	c.resourcesRoot = resourcesDir
	logger.Debug("Opened corpus snapshot %s (%s backend)", dir, desc.Store.Backend)
	return c, nil
}
