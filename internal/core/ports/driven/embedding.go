package driven

import "context"

// EmbeddingFunction turns text into a vector.
// Name returns a stable identifier so the function can be recorded in a
// snapshot and resolved again on load.
type EmbeddingFunction interface {
	// Name returns the identifier, e.g. "ollama:nomic-embed-text".
	Name() string

	// Embed generates an embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)
}

// EmbeddingResolver maps identifiers back to embedding functions.
type EmbeddingResolver interface {
	// Resolve returns the function registered for name.
	// Unknown identifiers wrap domain.ErrUnsupportedType.
	Resolve(name string) (EmbeddingFunction, error)
}
