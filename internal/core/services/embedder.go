package services

import (
	"context"

	"github.com/custodia-labs/sercha-corpus/internal/core/domain"
	"github.com/custodia-labs/sercha-corpus/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-corpus/internal/postprocessors/chunker"
	"github.com/custodia-labs/sercha-corpus/internal/validators/example"
)

// Ensure Embedder implements the interface.
var _ driven.ResourceEmbedder = (*Embedder)(nil)

// ChunkSettings size the chunks produced for one kind.
type ChunkSettings struct {
	Size    int
	Overlap int
}

// Built-in chunk settings per kind.
var (
	DocumentationChunking = ChunkSettings{Size: 500, Overlap: 60}
	CodeChunking          = ChunkSettings{Size: chunker.DefaultChunkSize, Overlap: chunker.DefaultChunkOverlap}
	GenericChunking       = ChunkSettings{Size: chunker.DefaultChunkSize, Overlap: chunker.DefaultChunkOverlap}
)

// Embedder turns resources of one kind into records.
type Embedder struct {
	chunking  ChunkSettings
	splitter  domain.Splitter
	embedding driven.EmbeddingFunction
	validator domain.Validator
}

// EmbedderOption configures an Embedder.
type EmbedderOption func(*Embedder)

// WithChunking sets chunk size and overlap.
func WithChunking(settings ChunkSettings) EmbedderOption {
	return func(e *Embedder) {
		if settings.Size > 0 {
			e.chunking.Size = settings.Size
		}
		if settings.Overlap >= 0 {
			e.chunking.Overlap = settings.Overlap
		}
	}
}

// WithSplitter fixes the splitter used for splittable kinds instead of
// choosing one per resource. Chunk settings are then ignored.
func WithSplitter(splitter domain.Splitter) EmbedderOption {
	return func(e *Embedder) {
		e.splitter = splitter
	}
}

// WithEmbedding sets a function that overrides the corpus default.
func WithEmbedding(ef driven.EmbeddingFunction) EmbedderOption {
	return func(e *Embedder) {
		e.embedding = ef
	}
}

// WithValidator sets the validator run before records are produced.
func WithValidator(v domain.Validator) EmbedderOption {
	return func(e *Embedder) {
		e.validator = v
	}
}

// NewEmbedder creates an embedder with generic chunking.
func NewEmbedder(opts ...EmbedderOption) *Embedder {
	e := &Embedder{chunking: GenericChunking}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Records validates and splits res.
func (e *Embedder) Records(_ context.Context, res *domain.Resource) ([]domain.Record, error) {
	if e.splitter != nil && res.Kind.Splittable() {
		return res.AsRecords(e.splitter, e.validator)
	}
	splitter := chunker.ForResource(res,
		chunker.WithChunkSize(e.chunking.Size),
		chunker.WithOverlap(e.chunking.Overlap),
	)
	return res.AsRecords(splitter, e.validator)
}

// EmbeddingFunction returns the embedder's own function, if any.
func (e *Embedder) EmbeddingFunction() driven.EmbeddingFunction {
	return e.embedding
}

// Chunking returns the embedder's chunk settings.
func (e *Embedder) Chunking() ChunkSettings {
	return e.chunking
}

// DefaultEmbedders returns the built-in embedder for each kind that has one.
// overrides replace the built-in chunk settings per kind.
func DefaultEmbedders(overrides map[domain.Kind]ChunkSettings) map[domain.Kind]driven.ResourceEmbedder {
	settings := map[domain.Kind]ChunkSettings{
		domain.KindDocumentation: DocumentationChunking,
		domain.KindCode:          CodeChunking,
		domain.KindGeneric:       GenericChunking,
	}
	for kind, s := range overrides {
		base := settings[kind]
		if s.Size > 0 {
			base.Size = s.Size
		}
		if s.Overlap > 0 {
			base.Overlap = s.Overlap
		}
		settings[kind] = base
	}

	embedders := make(map[domain.Kind]driven.ResourceEmbedder, len(settings)+1)
	for kind, s := range settings {
		embedders[kind] = NewEmbedder(WithChunking(s))
	}
	embedders[domain.KindExample] = NewEmbedder(WithValidator(example.New()))
	return embedders
}
