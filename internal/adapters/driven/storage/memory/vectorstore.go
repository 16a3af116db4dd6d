package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"sort"
	"sync"

	"github.com/custodia-labs/sercha-corpus/internal/adapters/driven/storage"
	"github.com/custodia-labs/sercha-corpus/internal/core/domain"
	"github.com/custodia-labs/sercha-corpus/internal/core/ports/driven"
)

// Backend is the snapshot descriptor name of this store.
const Backend = "memory"

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// VectorStore is an in-memory implementation of driven.VectorStore.
// Persisted form is a single JSON document.
type VectorStore struct {
	mu               sync.RWMutex
	defaultPartition string
	embedding        driven.EmbeddingFunction
	partitions       map[string]*partition
}

type partition struct {
	ids     []string
	records map[string]domain.Record
}

// Option configures a VectorStore.
type Option func(*VectorStore)

// WithDefaultPartition sets the partition used when callers pass "".
func WithDefaultPartition(name string) Option {
	return func(s *VectorStore) {
		if name != "" {
			s.defaultPartition = name
		}
	}
}

// WithEmbeddingFunction sets the function used to embed query text.
func WithEmbeddingFunction(ef driven.EmbeddingFunction) Option {
	return func(s *VectorStore) {
		s.embedding = ef
	}
}

// NewVectorStore creates an empty in-memory store.
func NewVectorStore(opts ...Option) *VectorStore {
	s := &VectorStore{
		defaultPartition: domain.PartitionDefault,
		partitions:       make(map[string]*partition),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *VectorStore) resolve(name string) string {
	if name == "" {
		return s.defaultPartition
	}
	return name
}

// Partitions lists non-empty partitions in name order.
func (s *VectorStore) Partitions(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.partitions))
	for name, p := range s.partitions {
		if len(p.ids) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// DefaultPartition returns the partition used when callers pass "".
func (s *VectorStore) DefaultPartition() string {
	return s.defaultPartition
}

// AddRecords inserts or replaces records.
// Metadata is stored in its JSON form, matching what SaveTo persists.
func (s *VectorStore) AddRecords(_ context.Context, records []domain.Record, name string) error {
	if len(records) == 0 {
		return nil
	}
	records, err := storage.NormalizeRecords(records)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	name = s.resolve(name)
	p, ok := s.partitions[name]
	if !ok {
		p = &partition{records: make(map[string]domain.Record)}
		s.partitions[name] = p
	}
	for _, rec := range records {
		if rec.ID == "" {
			return fmt.Errorf("%w: record without id", domain.ErrInvalidInput)
		}
		if _, exists := p.records[rec.ID]; !exists {
			p.ids = append(p.ids, rec.ID)
		}
		p.records[rec.ID] = copyRecord(rec, true)
	}
	return nil
}

// UpdateRecords rewrites existing records. No record is changed if any ID is unknown.
func (s *VectorStore) UpdateRecords(_ context.Context, records []domain.Record, name string) error {
	records, err := storage.NormalizeRecords(records)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	name = s.resolve(name)
	p, ok := s.partitions[name]
	if !ok {
		if len(records) == 0 {
			return nil
		}
		return fmt.Errorf("partition %q: %w", name, domain.ErrNotFound)
	}
	for _, rec := range records {
		if _, exists := p.records[rec.ID]; !exists {
			return fmt.Errorf("record %q in partition %q: %w", rec.ID, name, domain.ErrNotFound)
		}
	}
	for _, rec := range records {
		p.records[rec.ID] = copyRecord(rec, true)
	}
	return nil
}

// GetAll returns a partition's records in insertion order.
func (s *VectorStore) GetAll(_ context.Context, name string, includeEmbeddings bool) ([]domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.partitions[s.resolve(name)]
	if !ok {
		return nil, nil
	}
	out := make([]domain.Record, 0, len(p.ids))
	for _, id := range p.ids {
		out = append(out, copyRecord(p.records[id], includeEmbeddings))
	}
	return out, nil
}

// Query ranks a partition's records against text.
func (s *VectorStore) Query(ctx context.Context, text, name string, limit int) (*domain.QueryResponse, error) {
	name = s.resolve(name)
	records, err := s.GetAll(ctx, name, true)
	if err != nil {
		return nil, err
	}
	matches, err := storage.Rank(ctx, text, records, s.embedding, limit)
	if err != nil {
		return nil, err
	}
	return &domain.QueryResponse{Query: text, Partition: name, Matches: matches}, nil
}

// Clone returns a deep copy.
func (s *VectorStore) Clone(_ context.Context) (driven.VectorStore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := NewVectorStore(WithDefaultPartition(s.defaultPartition), WithEmbeddingFunction(s.embedding))
	for name, p := range s.partitions {
		cp := &partition{
			ids:     append([]string(nil), p.ids...),
			records: make(map[string]domain.Record, len(p.records)),
		}
		for id, rec := range p.records {
			cp.records[id] = copyRecord(rec, true)
		}
		c.partitions[name] = cp
	}
	return c, nil
}

// snapshotFile is the persisted form.
type snapshotFile struct {
	DefaultPartition string              `json:"default_partition"`
	Partitions       []snapshotPartition `json:"partitions"`
}

type snapshotPartition struct {
	Name    string           `json:"name"`
	Records []snapshotRecord `json:"records"`
}

type snapshotRecord struct {
	ID        string         `json:"id"`
	Content   string         `json:"content"`
	Embedding []float32      `json:"embedding,omitempty"`
	Address   domain.Address `json:"address"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// SaveTo writes the store as JSON to base + ".json".
func (s *VectorStore) SaveTo(ctx context.Context, base string) (string, error) {
	names, err := s.Partitions(ctx)
	if err != nil {
		return "", err
	}

	doc := snapshotFile{DefaultPartition: s.defaultPartition}
	for _, name := range names {
		records, err := s.GetAll(ctx, name, true)
		if err != nil {
			return "", err
		}
		sp := snapshotPartition{Name: name, Records: make([]snapshotRecord, len(records))}
		for i, rec := range records {
			sp.Records[i] = snapshotRecord(rec)
		}
		doc.Partitions = append(doc.Partitions, sp)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encoding store: %w", err)
	}
	path := base + ".json"
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing store: %w", err)
	}
	return path, nil
}

// Load reads a store written by SaveTo. It matches driven.StoreLoader.
func Load(_ context.Context, path string, settings domain.StoreSettings, ef driven.EmbeddingFunction) (driven.VectorStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading store: %w", err)
	}
	var doc snapshotFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: decoding store %s: %v", domain.ErrSnapshotIntegrity, path, err)
	}

	defaultPartition := settings.DefaultPartition
	if defaultPartition == "" {
		defaultPartition = doc.DefaultPartition
	}
	s := NewVectorStore(WithDefaultPartition(defaultPartition), WithEmbeddingFunction(ef))
	for _, sp := range doc.Partitions {
		records := make([]domain.Record, len(sp.Records))
		for i, rec := range sp.Records {
			records[i] = domain.Record(rec)
		}
		if err := s.AddRecords(context.Background(), records, sp.Name); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Settings describes the store for a snapshot descriptor.
func (s *VectorStore) Settings() domain.StoreSettings {
	settings := domain.StoreSettings{
		Backend:          Backend,
		DefaultPartition: s.defaultPartition,
	}
	if s.embedding != nil {
		settings.DefaultEmbeddingFunction = s.embedding.Name()
	}
	return settings
}

// Close is a no-op.
func (s *VectorStore) Close() error {
	return nil
}

func copyRecord(rec domain.Record, includeEmbedding bool) domain.Record {
	out := rec
	out.Metadata = maps.Clone(rec.Metadata)
	if includeEmbedding && rec.Embedding != nil {
		out.Embedding = append([]float32(nil), rec.Embedding...)
	} else {
		out.Embedding = nil
	}
	return out
}
