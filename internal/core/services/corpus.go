package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/custodia-labs/sercha-corpus/internal/core/domain"
	"github.com/custodia-labs/sercha-corpus/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-corpus/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-corpus/internal/logger"
	"github.com/custodia-labs/sercha-corpus/internal/metrics"
)

// Ensure Corpus implements the interface.
var _ driving.CorpusService = (*Corpus)(nil)

// Corpus is a vector store plus the resources its records were built from.
type Corpus struct {
	store     driven.VectorStore
	registry  driven.SchemeRegistry
	embedding driven.EmbeddingFunction
	embedders map[domain.Kind]driven.ResourceEmbedder
	generic   driven.ResourceEmbedder

	// resourcesRoot is set on corpora opened from a snapshot.
	resourcesRoot string

	// scratch is removed on Close.
	scratch string
}

// CorpusOption configures a Corpus.
type CorpusOption func(*Corpus)

// WithEmbeddingFunction sets the corpus default embedding function.
func WithEmbeddingFunction(ef driven.EmbeddingFunction) CorpusOption {
	return func(c *Corpus) {
		c.embedding = ef
	}
}

// WithEmbedders replaces the built-in embedders for the given kinds.
func WithEmbedders(embedders map[domain.Kind]driven.ResourceEmbedder) CorpusOption {
	return func(c *Corpus) {
		for kind, e := range embedders {
			c.embedders[kind] = e
		}
	}
}

// NewCorpus creates a corpus over store. Addresses are resolved through registry.
func NewCorpus(store driven.VectorStore, registry driven.SchemeRegistry, opts ...CorpusOption) *Corpus {
	c := &Corpus{
		store:     store,
		registry:  registry,
		embedders: DefaultEmbedders(nil),
		generic:   NewEmbedder(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Store returns the underlying vector store.
func (c *Corpus) Store() driven.VectorStore {
	return c.store
}

// EmbeddingFunction returns the corpus default embedding function.
func (c *Corpus) EmbeddingFunction() driven.EmbeddingFunction {
	return c.embedding
}

// locationGroup is the set of locations handed to one loader.
type locationGroup struct {
	handler   driven.SchemeHandler
	locations []string
}

// groupLocations buckets locations by the handler owning their scheme,
// keeping first-seen order. Negated locations join the group of the scheme
// they name and keep their "!" prefix with the scheme stripped.
func (c *Corpus) groupLocations(locations []string) ([]*locationGroup, error) {
	var groups []*locationGroup
	byScheme := make(map[string]*locationGroup)

	for _, raw := range locations {
		negated := strings.HasPrefix(raw, "!")
		location := strings.TrimPrefix(raw, "!")

		addr, err := domain.ParseAddress(location)
		if err != nil {
			return nil, err
		}
		scheme := addr.Scheme()
		if scheme == "" {
			scheme = domain.SchemeFile
		}
		handler, err := c.registry.Lookup(scheme)
		if err != nil {
			return nil, err
		}

		rest := location
		if addr.Scheme() != "" {
			rest = strings.TrimPrefix(location, addr.Scheme()+":")
		}
		if negated {
			rest = "!" + rest
		}

		g, ok := byScheme[handler.Scheme()]
		if !ok {
			g = &locationGroup{handler: handler}
			byScheme[handler.Scheme()] = g
			groups = append(groups, g)
		}
		g.locations = append(g.locations, rest)
	}
	return groups, nil
}

// ingestRun accumulates records between flushes.
type ingestRun struct {
	corpus    *Corpus
	batchSize int
	pending   map[string][]domain.Record
	count     int
	report    *driving.IngestReport
}

// Ingest implements driving.CorpusService.
func (c *Corpus) Ingest(ctx context.Context, locations []string, opts driving.IngestOptions) (*driving.IngestReport, error) {
	groups, err := c.groupLocations(locations)
	if err != nil {
		return nil, err
	}

	run := &ingestRun{
		corpus:    c,
		batchSize: opts.BatchSize,
		pending:   make(map[string][]domain.Record),
		report:    &driving.IngestReport{Records: make(map[string]int)},
	}

	for _, g := range groups {
		loader, err := g.handler.DefaultLoader()
		if err != nil {
			return run.report, fmt.Errorf("loader for scheme %s: %w", g.handler.Scheme(), err)
		}
		logger.Debug("Discovering %d location(s) with %s loader", len(g.locations), loader.Slug())

		req := driven.DiscoverRequest{Locations: g.locations, Filter: opts.Filter}
		for res, err := range loader.Discover(ctx, req) {
			if err != nil {
				return run.report, fmt.Errorf("discovering %s resources: %w", g.handler.Scheme(), err)
			}
			if err := c.ingestResource(ctx, run, res, opts); err != nil {
				return run.report, err
			}
		}
	}

	if err := run.flush(ctx); err != nil {
		return run.report, err
	}
	return run.report, nil
}

func (c *Corpus) ingestResource(ctx context.Context, run *ingestRun, res *domain.Resource, opts driving.IngestOptions) error {
	embedder := c.embedderFor(res.Kind, opts.Embedders)

	records, err := embedder.Records(ctx, res)
	if errors.Is(err, domain.ErrValidation) {
		logger.Warn("Skipping resource %s: %v", res.Address, err)
		metrics.ResourcesSkipped.WithLabelValues(res.Kind.String()).Inc()
		run.report.Skipped = append(run.report.Skipped, driving.SkippedResource{
			Address: res.Address.String(),
			Reason:  err.Error(),
		})
		return nil
	}
	if err != nil {
		return fmt.Errorf("building records for %s: %w", res.Address, err)
	}

	ef := embedder.EmbeddingFunction()
	if ef == nil {
		ef = c.embedding
	}
	if ef != nil {
		for i := range records {
			vec, err := ef.Embed(ctx, records[i].Content)
			if err != nil {
				return fmt.Errorf("embedding %s: %w", records[i].ID, err)
			}
			records[i].Embedding = vec
		}
	}

	partition := opts.Partition
	if partition == "" {
		partition = res.DefaultPartition()
	}

	logger.Info("Retrieved %d %s records from resource %s", len(records), res.Kind, res.Address)
	metrics.ResourcesIngested.WithLabelValues(res.Kind.String()).Inc()
	run.report.Resources++

	run.pending[partition] = append(run.pending[partition], records...)
	run.count += len(records)
	if run.batchSize > 0 && run.count >= run.batchSize {
		return run.flush(ctx)
	}
	return nil
}

// embedderFor picks the per-call embedder, then the corpus one, then the generic one.
func (c *Corpus) embedderFor(kind domain.Kind, overrides map[domain.Kind]driven.ResourceEmbedder) driven.ResourceEmbedder {
	if e, ok := overrides[kind]; ok && e != nil {
		return e
	}
	if e, ok := c.embedders[kind]; ok && e != nil {
		return e
	}
	return c.generic
}

// flush writes every pending partition, in name order.
func (r *ingestRun) flush(ctx context.Context) error {
	partitions := make([]string, 0, len(r.pending))
	for p, recs := range r.pending {
		if len(recs) > 0 {
			partitions = append(partitions, p)
		}
	}
	sort.Strings(partitions)

	for _, p := range partitions {
		recs := r.pending[p]
		if err := r.corpus.store.AddRecords(ctx, recs, p); err != nil {
			return fmt.Errorf("writing %d records to %s: %w", len(recs), p, err)
		}
		logger.Debug("Flushed %d records to partition %s", len(recs), p)
		r.report.Records[p] += len(recs)
		r.report.Batches++
		metrics.RecordsWritten.WithLabelValues(p).Add(float64(len(recs)))
		metrics.BatchesFlushed.Inc()
		delete(r.pending, p)
	}
	r.count = 0
	return nil
}

// ReadResource implements driving.CorpusService.
// Corpus addresses are read from the snapshot resource tree; anything else is
// resolved through the scheme registry.
func (c *Corpus) ReadResource(ctx context.Context, location string) ([]byte, error) {
	addr, err := domain.ParseAddress(location)
	if err != nil {
		return nil, err
	}
	if addr.Scheme() != domain.SchemeCorpus {
		return c.registry.Read(ctx, addr, driven.ReadOptions{Corpus: c})
	}

	if c.resourcesRoot == "" {
		return nil, fmt.Errorf("%w: %s: corpus has no saved resources", domain.ErrNotFound, location)
	}
	path, err := c.resourceFile(addr.Path())
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, location)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", location, err)
	}
	return data, nil
}

// resourceFile maps a corpus path onto the resource tree, refusing escapes.
func (c *Corpus) resourceFile(rel string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(strings.TrimPrefix(rel, "/")))
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("%w: %q escapes the resource tree", domain.ErrInvalidAddress, rel)
	}
	return filepath.Join(c.resourcesRoot, cleaned), nil
}

// ResourcesRoot returns the snapshot resource tree, or "" for a live corpus.
func (c *Corpus) ResourcesRoot() string {
	return c.resourcesRoot
}

// Query implements driving.CorpusService.
func (c *Corpus) Query(ctx context.Context, text, partition string, limit int) (*domain.QueryResponse, error) {
	return c.store.Query(ctx, text, partition, limit)
}

// Partitions implements driving.CorpusService.
func (c *Corpus) Partitions(ctx context.Context) ([]string, error) {
	return c.store.Partitions(ctx)
}

// Close implements driving.CorpusService.
func (c *Corpus) Close() error {
	err := c.store.Close()
	if c.scratch != "" {
		err = errors.Join(err, os.RemoveAll(c.scratch))
		c.scratch = ""
	}
	return err
}
