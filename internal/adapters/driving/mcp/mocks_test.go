package mcp

import (
	"context"

	"github.com/custodia-labs/sercha-corpus/internal/core/domain"
	"github.com/custodia-labs/sercha-corpus/internal/core/ports/driving"
)

// mockCorpusService is a mock implementation of driving.CorpusService.
type mockCorpusService struct {
	response   *domain.QueryResponse
	resources  map[string][]byte
	partitions []string
	err        error

	lastQuery     string
	lastPartition string
	lastLimit     int
}

var _ driving.CorpusService = (*mockCorpusService)(nil)

func (m *mockCorpusService) Ingest(
	_ context.Context,
	_ []string,
	_ driving.IngestOptions,
) (*driving.IngestReport, error) {
	return &driving.IngestReport{}, m.err
}

func (m *mockCorpusService) ReadResource(_ context.Context, location string) ([]byte, error) {
	if m.err != nil {
		return nil, m.err
	}
	data, ok := m.resources[location]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return data, nil
}

func (m *mockCorpusService) Query(
	_ context.Context,
	text, partition string,
	limit int,
) (*domain.QueryResponse, error) {
	m.lastQuery = text
	m.lastPartition = partition
	m.lastLimit = limit
	if m.err != nil {
		return nil, m.err
	}
	if m.response == nil {
		return &domain.QueryResponse{Query: text, Partition: partition}, nil
	}
	return m.response, nil
}

func (m *mockCorpusService) Partitions(_ context.Context) ([]string, error) {
	return m.partitions, m.err
}

func (m *mockCorpusService) SaveToDir(_ context.Context, _ string, _ bool) error {
	return m.err
}

func (m *mockCorpusService) SaveToZip(_ context.Context, _ string, _ bool) error {
	return m.err
}

func (m *mockCorpusService) Close() error {
	return nil
}
