package postprocessors

import (
	"github.com/custodia-labs/sercha-corpus/internal/core/domain"
	"github.com/custodia-labs/sercha-corpus/internal/postprocessors/chunker"
)

// RecursiveSplitter is the name of the language-agnostic splitter.
const RecursiveSplitter = "recursive"

// RegisterDefaults registers all built-in splitters with the registry:
// the recursive splitter plus one per chunker language profile.
// Call this during application initialisation to enable standard splitters.
func RegisterDefaults(r *Registry) {
	r.Register(RecursiveSplitter, buildRecursive)
	for _, lang := range chunker.Languages() {
		r.Register(string(lang), languageBuilder(lang))
	}
}

// buildRecursive creates a recursive splitter from generic config.
// Supported config keys:
//   - chunk_size (int): Characters per chunk (default: 2000)
//   - overlap (int): Overlapping characters between chunks (default: 100)
func buildRecursive(cfg map[string]any) (domain.Splitter, error) {
	return chunker.New(chunkerOptions(cfg)...), nil
}

func languageBuilder(lang chunker.Language) BuilderFunc {
	return func(cfg map[string]any) (domain.Splitter, error) {
		return chunker.FromLanguage(lang, chunkerOptions(cfg)...)
	}
}

func chunkerOptions(cfg map[string]any) []chunker.Option {
	var opts []chunker.Option
	if cfg == nil {
		return opts
	}
	if size := getIntFromConfig(cfg, "chunk_size"); size > 0 {
		opts = append(opts, chunker.WithChunkSize(size))
	}
	if _, ok := cfg["overlap"]; ok {
		if overlap := getIntFromConfig(cfg, "overlap"); overlap >= 0 {
			opts = append(opts, chunker.WithOverlap(overlap))
		}
	}
	return opts
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) int {
	val, ok := cfg[key]
	if !ok {
		return 0
	}

	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
