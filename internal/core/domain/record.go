package domain

// Record is the unit stored in a vector store partition.
// IDs are unique within a partition.
type Record struct {
	// ID is the record identifier, "<resource id>:<chunk number>".
	ID string

	// Content is the chunk text.
	Content string

	// Embedding is the vector for Content, or nil when no embedding
	// function was applied.
	Embedding []float32

	// Address is the originating resource, or the zero Address.
	Address Address

	// Metadata is copied from the originating resource.
	Metadata map[string]any
}

// HasAddress reports whether the record points back at a resource.
func (r Record) HasAddress() bool {
	return !r.Address.IsZero()
}

// QueryMatch is a record returned from a store query.
type QueryMatch struct {
	// Record is the matching record.
	Record Record

	// Distance is lower for closer matches.
	Distance float64
}

// QueryResponse holds the ranked matches for a query.
type QueryResponse struct {
	// Query is the text that was searched for.
	Query string

	// Partition is the partition that was searched.
	Partition string

	// Matches are ordered by ascending distance.
	Matches []QueryMatch
}
