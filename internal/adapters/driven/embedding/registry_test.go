package embedding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-corpus/internal/core/domain"
	"github.com/custodia-labs/sercha-corpus/internal/core/ports/driven"
)

type fixedFunction struct{ name string }

func (f fixedFunction) Name() string { return f.name }
func (f fixedFunction) Embed(context.Context, string) ([]float32, error) {
	return []float32{1}, nil
}

func TestRegistry_Resolve(t *testing.T) {
	r := NewRegistry()
	r.Register("fixed", func(model string) (driven.EmbeddingFunction, error) {
		return fixedFunction{name: "fixed:" + model}, nil
	})

	fn, err := r.Resolve("fixed:small")
	require.NoError(t, err)
	assert.Equal(t, "fixed:small", fn.Name())

	_, err = r.Resolve("nope:model")
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)

	assert.True(t, r.Has("fixed"))
	assert.False(t, r.Has("nope"))
}

func TestRegisterDefaults(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r, map[string]any{"base_url": "http://ollama.internal:11434"})

	assert.Equal(t, []string{"hashing", "ollama"}, r.Providers())

	fn, err := r.Resolve("ollama:mxbai-embed-large")
	require.NoError(t, err)
	assert.Equal(t, "ollama:mxbai-embed-large", fn.Name())

	fn, err = r.Resolve("hashing:64")
	require.NoError(t, err)
	assert.Equal(t, "hashing:64", fn.Name())

	_, err = r.Resolve("hashing:lots")
	assert.Error(t, err)
}
