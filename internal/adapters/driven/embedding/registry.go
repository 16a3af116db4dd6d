// Package embedding resolves embedding-function identifiers.
//
// Identifiers have the form "<provider>:<model>", e.g.
// "ollama:nomic-embed-text" or "hashing:256". They are written into
// snapshot descriptors and resolved again when a snapshot is loaded.
package embedding

import (
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/sercha-corpus/internal/core/domain"
	"github.com/custodia-labs/sercha-corpus/internal/core/ports/driven"
)

// BuilderFunc creates an embedding function for a model of one provider.
type BuilderFunc func(model string) (driven.EmbeddingFunction, error)

// Registry maps provider names to their builders.
type Registry struct {
	builders map[string]BuilderFunc
}

var _ driven.EmbeddingResolver = (*Registry)(nil)

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[string]BuilderFunc),
	}
}

// Register adds a provider builder to the registry.
func (r *Registry) Register(provider string, builder BuilderFunc) {
	r.builders[provider] = builder
}

// Resolve builds the embedding function named by an identifier.
func (r *Registry) Resolve(name string) (driven.EmbeddingFunction, error) {
	provider, model, _ := strings.Cut(name, ":")
	builder, ok := r.builders[provider]
	if !ok {
		return nil, fmt.Errorf("%w: unknown embedding provider %q", domain.ErrUnsupportedType, provider)
	}
	fn, err := builder(model)
	if err != nil {
		return nil, fmt.Errorf("building embedding function %q: %w", name, err)
	}
	return fn, nil
}

// Has returns true if a provider is registered.
func (r *Registry) Has(provider string) bool {
	_, ok := r.builders[provider]
	return ok
}

// Providers returns all registered provider names, sorted.
func (r *Registry) Providers() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
