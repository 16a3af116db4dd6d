package embedding

import (
	"github.com/custodia-labs/sercha-corpus/internal/adapters/driven/embedding/hashing"
	"github.com/custodia-labs/sercha-corpus/internal/adapters/driven/embedding/ollama"
	"github.com/custodia-labs/sercha-corpus/internal/core/ports/driven"
)

// RegisterDefaults registers the built-in providers.
// Supported config keys:
//   - base_url (string): Ollama server URL (default: http://localhost:11434)
func RegisterDefaults(r *Registry, cfg map[string]any) {
	baseURL := getStringFromConfig(cfg, "base_url")

	r.Register(ollama.Provider, func(model string) (driven.EmbeddingFunction, error) {
		return ollama.New(ollama.Config{BaseURL: baseURL, Model: model}), nil
	})
	r.Register(hashing.Provider, func(model string) (driven.EmbeddingFunction, error) {
		return hashing.Parse(model)
	})
}

// getStringFromConfig safely extracts a string from a generic config map.
func getStringFromConfig(cfg map[string]any, key string) string {
	if cfg == nil {
		return ""
	}
	s, _ := cfg[key].(string)
	return s
}
