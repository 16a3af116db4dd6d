// Command sercha-corpus builds, queries and snapshots resource corpora.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/sercha-corpus/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-corpus/internal/adapters/driven/cran"
	"github.com/custodia-labs/sercha-corpus/internal/adapters/driven/embedding"
	"github.com/custodia-labs/sercha-corpus/internal/adapters/driven/pysource"
	"github.com/custodia-labs/sercha-corpus/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-corpus/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sercha-corpus/internal/adapters/driving/cli"
	"github.com/custodia-labs/sercha-corpus/internal/core/domain"
	"github.com/custodia-labs/sercha-corpus/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-corpus/internal/core/services"
	"github.com/custodia-labs/sercha-corpus/internal/logger"
	"github.com/custodia-labs/sercha-corpus/internal/postprocessors"
	"github.com/custodia-labs/sercha-corpus/internal/schemes"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	ctx := context.Background()

	dataDir, err := dataDirectory()
	if err != nil {
		logger.Error("%v", err)
		return 1
	}

	cfg, err := file.NewConfigStore(dataDir)
	if err != nil {
		logger.Error("loading config: %v", err)
		return 1
	}

	embeddings := embedding.NewRegistry()
	embedding.RegisterDefaults(embeddings, map[string]any{
		"base_url": cfg.GetString(file.KeyEmbeddingBaseURL),
	})
	ef, err := embeddingFunction(embeddings, cfg)
	if err != nil {
		logger.Error("%v", err)
		return 1
	}

	store, persist, err := openStore(ctx, cfg, filepath.Join(dataDir, "data"), ef)
	if err != nil {
		logger.Error("opening store: %v", err)
		return 1
	}

	packages := services.NewPackageCache(cran.New(cran.Config{
		Repo: cfg.GetString(file.KeyCRANRepo),
		Rate: cfg.GetFloat(file.KeyCRANRate),
	}))
	registry := schemes.NewDefaultRegistry(schemes.Dependencies{
		Locator: pysource.FromEnv(cfg.GetStringSlice(file.KeyPythonPaths)...),
		Cache:   packages,
	})

	corpusOpts := []services.CorpusOption{
		services.WithEmbedders(services.DefaultEmbedders(chunkOverrides(cfg))),
	}
	if ef != nil {
		corpusOpts = append(corpusOpts, services.WithEmbeddingFunction(ef))
	}
	corpus := services.NewCorpus(store, registry, corpusOpts...)

	loader := services.NewSnapshotLoader(registry, embeddings, map[string]driven.StoreLoader{
		sqlite.Backend: sqlite.Load,
		memory.Backend: memory.Load,
	})

	splitters := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(splitters)

	cli.SetVersion(version)
	cli.SetServices(cli.Services{
		Corpus:    corpus,
		Snapshots: loader,
		Packages:  packages,
		Splitters: splitters,
		Config:    cfg,
		BatchSize: cfg.GetInt(file.KeyIngestBatchSize),
	})

	code := 0
	if err := cli.Execute(); err != nil {
		code = 1
	}

	if persist != nil {
		if err := persist(ctx); err != nil {
			logger.Error("saving store: %v", err)
			code = 1
		}
	}
	if err := corpus.Close(); err != nil {
		logger.Warn("closing corpus: %v", err)
	}
	return code
}

// dataDirectory returns the directory holding config.toml and the working store.
// SERCHA_CORPUS_HOME overrides ~/.sercha-corpus.
func dataDirectory() (string, error) {
	if dir := os.Getenv("SERCHA_CORPUS_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".sercha-corpus"), nil
}

// embeddingFunction resolves the configured provider, or returns nil when
// none is configured so queries rank by shared terms.
func embeddingFunction(r *embedding.Registry, cfg driven.ConfigStore) (driven.EmbeddingFunction, error) {
	provider := cfg.GetString(file.KeyEmbeddingProvider)
	if provider == "" {
		return nil, nil
	}
	name := provider
	if model := cfg.GetString(file.KeyEmbeddingModel); model != "" {
		name += ":" + model
	}
	ef, err := r.Resolve(name)
	if err != nil {
		return nil, fmt.Errorf("embedding function: %w", err)
	}
	return ef, nil
}

// openStore opens the working store named by store.backend. The memory
// backend is read from and written back to a JSON file around each run;
// persist is nil for backends that write through.
func openStore(
	ctx context.Context,
	cfg driven.ConfigStore,
	dir string,
	ef driven.EmbeddingFunction,
) (driven.VectorStore, func(context.Context) error, error) {
	switch backend := cfg.GetString(file.KeyStoreBackend); backend {
	case "", sqlite.Backend:
		store, err := sqlite.NewVectorStore(dir, sqlite.WithEmbeddingFunction(ef))
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil

	case memory.Backend:
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, nil, fmt.Errorf("creating data directory: %w", err)
		}
		base := filepath.Join(dir, "store")
		var store driven.VectorStore = memory.NewVectorStore(memory.WithEmbeddingFunction(ef))
		if _, err := os.Stat(base + ".json"); err == nil {
			loaded, err := memory.Load(ctx, base+".json", domain.StoreSettings{Backend: memory.Backend}, ef)
			if err != nil {
				return nil, nil, err
			}
			store = loaded
		}
		persist := func(ctx context.Context) error {
			_, err := store.SaveTo(ctx, base)
			return err
		}
		return store, persist, nil

	default:
		return nil, nil, fmt.Errorf("%w: store backend %q", domain.ErrUnsupportedType, backend)
	}
}

// chunkOverrides reads per-kind chunk settings from the config.
func chunkOverrides(cfg driven.ConfigStore) map[domain.Kind]services.ChunkSettings {
	overrides := make(map[domain.Kind]services.ChunkSettings)
	for _, kind := range domain.AllKinds() {
		if !kind.Splittable() {
			continue
		}
		size := cfg.GetInt(file.ChunkSizeKey(kind.String()))
		overlap := cfg.GetInt(file.ChunkOverlapKey(kind.String()))
		if size > 0 || overlap > 0 {
			overrides[kind] = services.ChunkSettings{Size: size, Overlap: overlap}
		}
	}
	return overrides
}
