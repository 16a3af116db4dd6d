package storage

import (
	"encoding/json"
	"fmt"

	"github.com/custodia-labs/sercha-corpus/internal/core/domain"
)

// NormalizeMetadata returns a copy of metadata holding the values it will
// have after a JSON round trip: numbers become float64, slices []any and
// nested maps map[string]any. Stores apply it on write so records read
// back before and after a save compare equal.
func NormalizeMetadata(metadata map[string]any) (map[string]any, error) {
	if metadata == nil {
		return nil, nil
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("%w: metadata is not JSON encodable: %v", domain.ErrInvalidInput, err)
	}
	out := make(map[string]any, len(metadata))
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%w: decoding metadata: %v", domain.ErrInvalidInput, err)
	}
	return out, nil
}

// NormalizeRecords applies NormalizeMetadata to copies of records.
func NormalizeRecords(records []domain.Record) ([]domain.Record, error) {
	out := make([]domain.Record, len(records))
	for i, rec := range records {
		metadata, err := NormalizeMetadata(rec.Metadata)
		if err != nil {
			return nil, fmt.Errorf("record %q: %w", rec.ID, err)
		}
		rec.Metadata = metadata
		out[i] = rec
	}
	return out, nil
}
