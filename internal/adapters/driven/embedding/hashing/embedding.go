// Package hashing provides an offline embedding function based on feature
// hashing of lower-cased word tokens. Vectors are L2-normalised so cosine
// similarity reflects shared vocabulary. It needs no model server and is
// deterministic, which makes it suitable for tests and air-gapped corpora.
package hashing

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/custodia-labs/sercha-corpus/internal/core/ports/driven"
)

// Provider is the identifier prefix of hashing embedding functions.
const Provider = "hashing"

// DefaultDimensions is used when no dimension is given.
const DefaultDimensions = 256

var _ driven.EmbeddingFunction = (*Function)(nil)

// Function embeds text by hashing tokens into a fixed number of buckets.
type Function struct {
	dims int
}

// New creates a hashing function with dims buckets.
func New(dims int) *Function {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &Function{dims: dims}
}

// Parse builds a function from the model part of an identifier ("256").
func Parse(model string) (*Function, error) {
	if model == "" {
		return New(DefaultDimensions), nil
	}
	dims, err := strconv.Atoi(model)
	if err != nil || dims <= 0 {
		return nil, fmt.Errorf("hashing: invalid dimensions %q", model)
	}
	return New(dims), nil
}

// Name returns "hashing:<dims>".
func (f *Function) Name() string {
	return Provider + ":" + strconv.Itoa(f.dims)
}

// Dimensions returns the vector size.
func (f *Function) Dimensions() int {
	return f.dims
}

// Embed implements driven.EmbeddingFunction.
func (f *Function) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vec := make([]float32, f.dims)
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
	for _, tok := range tokens {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		sum := h.Sum32()
		bucket := int(sum % uint32(f.dims))
		// The top bit picks the sign so collisions tend to cancel.
		if sum&(1<<31) != 0 {
			vec[bucket]--
		} else {
			vec[bucket]++
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec, nil
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec, nil
}
