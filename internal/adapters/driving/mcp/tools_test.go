package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-corpus/internal/core/domain"
)

func TestServer_handleQuery(t *testing.T) {
	ctx := context.Background()

	t.Run("returns ranked matches", func(t *testing.T) {
		mockCorpus := &mockCorpusService{
			response: &domain.QueryResponse{
				Query:     "plot",
				Partition: "documentation",
				Matches: []domain.QueryMatch{
					{
						Record: domain.Record{
							ID:       "documentation:api/plot.md:1",
							Content:  "Plotting a series",
							Address:  domain.MustParseAddress("documentation:api/plot.md"),
							Metadata: map[string]any{"title": "plot"},
						},
						Distance: 0.25,
					},
				},
			},
		}

		server, err := NewServer(&Ports{Corpus: mockCorpus})
		require.NoError(t, err)

		input := QueryInput{Query: "plot", Partition: "documentation", Limit: 5}
		_, output, err := server.handleQuery(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, "documentation", output.Partition)
		assert.Equal(t, 1, output.Count)
		require.Len(t, output.Matches, 1)
		assert.Equal(t, "documentation:api/plot.md:1", output.Matches[0].ID)
		assert.Equal(t, "documentation:api/plot.md", output.Matches[0].Address)
		assert.Equal(t, 0.25, output.Matches[0].Distance)
		assert.Equal(t, "Plotting a series", output.Matches[0].Content)
		assert.Equal(t, "plot", output.Matches[0].Metadata["title"])
		assert.Equal(t, 5, mockCorpus.lastLimit)
		assert.Equal(t, "documentation", mockCorpus.lastPartition)
	})

	t.Run("default limit is 10", func(t *testing.T) {
		mockCorpus := &mockCorpusService{}
		server, err := NewServer(&Ports{Corpus: mockCorpus})
		require.NoError(t, err)

		_, output, err := server.handleQuery(ctx, nil, QueryInput{Query: "test"})

		require.NoError(t, err)
		assert.Equal(t, 0, output.Count)
		assert.Equal(t, DefaultLimit, mockCorpus.lastLimit)
	})

	t.Run("record without address", func(t *testing.T) {
		mockCorpus := &mockCorpusService{
			response: &domain.QueryResponse{
				Matches: []domain.QueryMatch{{Record: domain.Record{ID: "raw", Content: "text"}}},
			},
		}
		server, err := NewServer(&Ports{Corpus: mockCorpus})
		require.NoError(t, err)

		_, output, err := server.handleQuery(ctx, nil, QueryInput{Query: "text"})

		require.NoError(t, err)
		require.Len(t, output.Matches, 1)
		assert.Empty(t, output.Matches[0].Address)
	})

	t.Run("returns error on query failure", func(t *testing.T) {
		mockCorpus := &mockCorpusService{err: errors.New("query failed")}
		server, err := NewServer(&Ports{Corpus: mockCorpus})
		require.NoError(t, err)

		_, _, err = server.handleQuery(ctx, nil, QueryInput{Query: "test"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "query failed")
	})
}

func TestServer_handleReadResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns resource content", func(t *testing.T) {
		mockCorpus := &mockCorpusService{
			resources: map[string][]byte{"examples:plot.md": []byte("# Plot\n")},
		}
		server, err := NewServer(&Ports{Corpus: mockCorpus})
		require.NoError(t, err)

		_, output, err := server.handleReadResource(ctx, nil, ReadResourceInput{Address: "examples:plot.md"})

		require.NoError(t, err)
		assert.Equal(t, "examples:plot.md", output.Address)
		assert.Equal(t, "# Plot\n", output.Content)
	})

	t.Run("unknown address returns not found", func(t *testing.T) {
		server, err := NewServer(&Ports{Corpus: &mockCorpusService{}})
		require.NoError(t, err)

		_, _, err = server.handleReadResource(ctx, nil, ReadResourceInput{Address: "file:missing.txt"})

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.Contains(t, err.Error(), "file:missing.txt")
	})
}
