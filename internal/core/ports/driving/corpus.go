package driving

import (
	"context"

	"github.com/custodia-labs/sercha-corpus/internal/core/domain"
	"github.com/custodia-labs/sercha-corpus/internal/core/ports/driven"
)

// IngestOptions tune a single ingestion pass.
type IngestOptions struct {
	// BatchSize is the number of records buffered before a flush.
	// Zero or less flushes only once, at the end.
	BatchSize int

	// Partition overrides the kind-based partition for every record.
	Partition string

	// Embedders override the per-kind defaults.
	Embedders map[domain.Kind]driven.ResourceEmbedder

	// Filter drops resources before they are embedded.
	Filter func(*domain.Resource) bool
}

// SkippedResource records a resource that failed validation during ingestion.
type SkippedResource struct {
	Address string
	Reason  string
}

// IngestReport summarises an ingestion pass.
type IngestReport struct {
	// Resources is the number of resources converted to records.
	Resources int

	// Records counts records written per partition.
	Records map[string]int

	// Batches is the number of store flushes.
	Batches int

	// Skipped lists resources rejected by validation.
	Skipped []SkippedResource
}

// CorpusService is the primary port for ingesting, querying and persisting a corpus.
type CorpusService interface {
	// Ingest discovers, validates, splits, embeds and stores every resource
	// reachable from locations.
	Ingest(ctx context.Context, locations []string, opts IngestOptions) (*IngestReport, error)

	// ReadResource returns the bytes of a resource by address.
	ReadResource(ctx context.Context, location string) ([]byte, error)

	// Query ranks records of a partition against text.
	Query(ctx context.Context, text, partition string, limit int) (*domain.QueryResponse, error)

	// Partitions lists the store's partitions.
	Partitions(ctx context.Context) ([]string, error)

	// SaveToDir writes a self-contained snapshot directory.
	SaveToDir(ctx context.Context, target string, overwrite bool) error

	// SaveToZip writes a snapshot as a single zip archive.
	SaveToZip(ctx context.Context, target string, overwrite bool) error

	// Close releases the store and any scratch space.
	Close() error
}

// SnapshotLoader opens saved corpora.
type SnapshotLoader interface {
	// FromDir opens a snapshot directory.
	FromDir(ctx context.Context, dir string) (CorpusService, error)

	// FromZip opens a snapshot archive.
	FromZip(ctx context.Context, path string) (CorpusService, error)
}
