package driven

import (
	"context"

	"github.com/custodia-labs/sercha-corpus/internal/core/domain"
)

// VectorStore persists records into named partitions and answers queries.
// Partitions are created implicitly on first write.
type VectorStore interface {
	// Partitions lists the partitions that hold at least one record.
	Partitions(ctx context.Context) ([]string, error)

	// DefaultPartition is the partition used when callers pass "".
	DefaultPartition() string

	// AddRecords inserts records, replacing any with the same ID.
	AddRecords(ctx context.Context, records []domain.Record, partition string) error

	// UpdateRecords rewrites existing records in place.
	// Unknown IDs are reported as domain.ErrNotFound.
	UpdateRecords(ctx context.Context, records []domain.Record, partition string) error

	// GetAll returns every record of a partition in insertion order.
	GetAll(ctx context.Context, partition string, includeEmbeddings bool) ([]domain.Record, error)

	// Query ranks the partition's records against text.
	// A limit of zero or less returns every match.
	Query(ctx context.Context, text, partition string, limit int) (*domain.QueryResponse, error)

	// Clone returns an independent copy that can be mutated freely.
	Clone(ctx context.Context) (VectorStore, error)

	// SaveTo persists the store next to base (the backend picks the
	// extension) and returns the written path.
	SaveTo(ctx context.Context, base string) (string, error)

	// Settings describes the store for a snapshot descriptor.
	Settings() domain.StoreSettings

	// Close releases resources.
	Close() error
}

// StoreLoader reopens a persisted store of one backend.
type StoreLoader func(ctx context.Context, path string, settings domain.StoreSettings, embedding EmbeddingFunction) (VectorStore, error)
