package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-corpus/internal/adapters/driven/embedding/hashing"
	"github.com/custodia-labs/sercha-corpus/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-corpus/internal/core/domain"
	"github.com/custodia-labs/sercha-corpus/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-corpus/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-corpus/internal/schemes"
)

// recordingStore remembers the size of every AddRecords call.
type recordingStore struct {
	*memory.VectorStore

	mu      sync.Mutex
	batches []int
}

func newRecordingStore() *recordingStore {
	return &recordingStore{VectorStore: memory.NewVectorStore()}
}

func (s *recordingStore) AddRecords(ctx context.Context, records []domain.Record, partition string) error {
	s.mu.Lock()
	s.batches = append(s.batches, len(records))
	s.mu.Unlock()
	return s.VectorStore.AddRecords(ctx, records, partition)
}

// countingEmbedding wraps hashing and counts calls.
type countingEmbedding struct {
	*hashing.Function
	calls int
}

func (c *countingEmbedding) Embed(ctx context.Context, text string) ([]float32, error) {
	c.calls++
	return c.Function.Embed(ctx, text)
}

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func setupCorpus(t *testing.T, opts ...CorpusOption) (*Corpus, *recordingStore) {
	t.Helper()
	store := newRecordingStore()
	c := NewCorpus(store, schemes.NewDefaultRegistry(schemes.Dependencies{}), opts...)
	t.Cleanup(func() { c.Close() })
	return c, store
}

func TestCorpus_IngestBatches(t *testing.T) {
	dir := t.TempDir()
	files := make(map[string]string, 37)
	for i := range 37 {
		files[fmt.Sprintf("note-%02d.txt", i)] = fmt.Sprintf("note number %d", i)
	}
	writeFiles(t, dir, files)

	c, store := setupCorpus(t)
	report, err := c.Ingest(context.Background(), []string{dir}, driving.IngestOptions{BatchSize: 15})
	require.NoError(t, err)

	assert.Equal(t, []int{15, 15, 7}, store.batches)
	assert.Equal(t, 3, report.Batches)
	assert.Equal(t, 37, report.Resources)
	assert.Equal(t, map[string]int{domain.PartitionDefault: 37}, report.Records)

	records, err := store.GetAll(context.Background(), domain.PartitionDefault, false)
	require.NoError(t, err)
	assert.Len(t, records, 37)
}

func TestCorpus_IngestWithoutBatchSizeFlushesOnce(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"a.txt": "alpha", "b.txt": "beta", "c.txt": "gamma"})

	c, store := setupCorpus(t)
	_, err := c.Ingest(context.Background(), []string{"file:" + dir}, driving.IngestOptions{})
	require.NoError(t, err)
	assert.Equal(t, []int{3}, store.batches)
}

func TestCorpus_IngestSkipsInvalidExamples(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"good.md": "# Description\n\nDraws a scatter plot.\n\n# Code\n\nplot(x, y)\n",
		"bad.md":  "# Code\n\nplot(x, y)\n",
	})

	c, store := setupCorpus(t)
	report, err := c.Ingest(context.Background(), []string{"examples:" + dir}, driving.IngestOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Resources)
	require.Len(t, report.Skipped, 1)
	assert.Contains(t, report.Skipped[0].Address, "bad.md")
	assert.Equal(t, map[string]int{domain.PartitionExamples: 1}, report.Records)

	records, err := store.GetAll(context.Background(), domain.PartitionExamples, false)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, domain.SchemeExamples, records[0].Address.Scheme())
}

func TestCorpus_IngestValidatesExamplesWithCustomEmbedder(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"bad.md": "no sections at all"})

	c, store := setupCorpus(t)
	report, err := c.Ingest(context.Background(), []string{"examples:" + dir}, driving.IngestOptions{
		Embedders: map[domain.Kind]driven.ResourceEmbedder{domain.KindExample: NewEmbedder()},
	})
	require.NoError(t, err)

	require.Len(t, report.Skipped, 1)
	assert.Empty(t, report.Records[domain.PartitionExamples])

	records, err := store.GetAll(context.Background(), domain.PartitionExamples, false)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestCorpus_IngestPartitions(t *testing.T) {
	docs := t.TempDir()
	notes := t.TempDir()
	writeFiles(t, docs, map[string]string{"guide.md": "# Guide\n\nRead me."})
	writeFiles(t, notes, map[string]string{"todo.txt": "buy milk"})

	t.Run("kind decides the partition", func(t *testing.T) {
		c, _ := setupCorpus(t)
		report, err := c.Ingest(context.Background(), []string{"documentation:" + docs, notes}, driving.IngestOptions{})
		require.NoError(t, err)
		assert.Equal(t, map[string]int{domain.PartitionDocumentation: 1, domain.PartitionDefault: 1}, report.Records)

		partitions, err := c.Partitions(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{domain.PartitionDefault, domain.PartitionDocumentation}, partitions)
	})

	t.Run("explicit partition wins", func(t *testing.T) {
		c, _ := setupCorpus(t)
		report, err := c.Ingest(context.Background(), []string{"documentation:" + docs, notes}, driving.IngestOptions{Partition: "custom"})
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"custom": 2}, report.Records)
	})
}

func TestCorpus_IngestEmbedding(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"a.txt": "alpha", "b.txt": "beta"})
	ctx := context.Background()

	t.Run("corpus default", func(t *testing.T) {
		c, store := setupCorpus(t, WithEmbeddingFunction(hashing.New(8)))
		_, err := c.Ingest(ctx, []string{dir}, driving.IngestOptions{})
		require.NoError(t, err)

		records, err := store.GetAll(ctx, domain.PartitionDefault, true)
		require.NoError(t, err)
		require.Len(t, records, 2)
		for _, rec := range records {
			assert.Len(t, rec.Embedding, 8)
		}
	})

	t.Run("embedder function overrides corpus default", func(t *testing.T) {
		corpusEF := &countingEmbedding{Function: hashing.New(8)}
		ownEF := &countingEmbedding{Function: hashing.New(4)}
		c, store := setupCorpus(t, WithEmbeddingFunction(corpusEF))

		_, err := c.Ingest(ctx, []string{dir}, driving.IngestOptions{
			Embedders: map[domain.Kind]driven.ResourceEmbedder{
				domain.KindGeneric: NewEmbedder(WithEmbedding(ownEF)),
			},
		})
		require.NoError(t, err)
		assert.Equal(t, 0, corpusEF.calls)
		assert.Equal(t, 2, ownEF.calls)

		records, err := store.GetAll(ctx, domain.PartitionDefault, true)
		require.NoError(t, err)
		assert.Len(t, records[0].Embedding, 4)
	})

	t.Run("no function leaves embeddings empty", func(t *testing.T) {
		c, store := setupCorpus(t)
		_, err := c.Ingest(ctx, []string{dir}, driving.IngestOptions{})
		require.NoError(t, err)

		records, err := store.GetAll(ctx, domain.PartitionDefault, true)
		require.NoError(t, err)
		assert.Nil(t, records[0].Embedding)
	})
}

func TestCorpus_IngestExclusionsAndFilter(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"keep/a.txt":  "alpha",
		"skip/b.txt":  "beta",
		"keep/c.json": "{}",
	})

	c, store := setupCorpus(t)
	_, err := c.Ingest(context.Background(), []string{dir, "!" + filepath.Join(dir, "skip")}, driving.IngestOptions{
		Filter: func(res *domain.Resource) bool { return res.Address.Ext() == ".txt" },
	})
	require.NoError(t, err)

	records, err := store.GetAll(context.Background(), domain.PartitionDefault, false)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "alpha", records[0].Content)
}

func TestCorpus_IngestErrors(t *testing.T) {
	c, store := setupCorpus(t)
	ctx := context.Background()

	t.Run("unknown scheme", func(t *testing.T) {
		_, err := c.Ingest(ctx, []string{"gopher:/x"}, driving.IngestOptions{})
		require.ErrorIs(t, err, domain.ErrLookup)
	})

	t.Run("missing path", func(t *testing.T) {
		report, err := c.Ingest(ctx, []string{filepath.Join(t.TempDir(), "missing")}, driving.IngestOptions{})
		require.ErrorIs(t, err, domain.ErrLookup)
		require.NotNil(t, report)
		assert.Zero(t, report.Batches)
	})

	assert.Empty(t, store.batches)
}

func TestCorpus_ReadResource(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"a.txt": "alpha"})
	c, _ := setupCorpus(t)
	ctx := context.Background()

	t.Run("file address", func(t *testing.T) {
		data, err := c.ReadResource(ctx, "file:"+filepath.ToSlash(filepath.Join(dir, "a.txt")))
		require.NoError(t, err)
		assert.Equal(t, "alpha", string(data))
	})

	t.Run("corpus address on a live corpus", func(t *testing.T) {
		_, err := c.ReadResource(ctx, "corpus:default/a.txt")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("unknown scheme", func(t *testing.T) {
		_, err := c.ReadResource(ctx, "gopher:/a.txt")
		require.ErrorIs(t, err, domain.ErrLookup)
	})
}

func TestCorpus_Query(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"plot.txt":  "draw a scatter plot of two variables",
		"model.txt": "fit a linear regression model",
	})
	c, _ := setupCorpus(t)
	ctx := context.Background()

	_, err := c.Ingest(ctx, []string{dir}, driving.IngestOptions{})
	require.NoError(t, err)

	resp, err := c.Query(ctx, "linear regression", domain.PartitionDefault, 1)
	require.NoError(t, err)
	require.Len(t, resp.Matches, 1)
	assert.Contains(t, resp.Matches[0].Record.Content, "regression")
}
