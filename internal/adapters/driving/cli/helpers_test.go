package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-corpus/internal/adapters/driven/embedding"
	"github.com/custodia-labs/sercha-corpus/internal/adapters/driven/embedding/hashing"
	"github.com/custodia-labs/sercha-corpus/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-corpus/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-corpus/internal/core/services"
	"github.com/custodia-labs/sercha-corpus/internal/postprocessors"
	"github.com/custodia-labs/sercha-corpus/internal/schemes"
)

// testEnv holds the services injected by setupTestServices.
type testEnv struct {
	corpus *services.Corpus
	store  *memory.VectorStore
	config *memory.ConfigStore
	cache  *fakePackageCache
}

// setupTestServices wires an in-memory corpus and restores empty services
// when the test ends.
func setupTestServices(t *testing.T) *testEnv {
	t.Helper()

	ef := hashing.New(16)
	store := memory.NewVectorStore(memory.WithEmbeddingFunction(ef))
	registry := schemes.NewDefaultRegistry(schemes.Dependencies{})
	corpus := services.NewCorpus(store, registry, services.WithEmbeddingFunction(ef))

	embeddings := embedding.NewRegistry()
	embedding.RegisterDefaults(embeddings, nil)
	loader := services.NewSnapshotLoader(registry, embeddings,
		map[string]driven.StoreLoader{memory.Backend: memory.Load})

	splitters := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(splitters)

	env := &testEnv{
		corpus: corpus,
		store:  store,
		config: memory.NewConfigStore(map[string]any{"cran.rate": 2.0}),
		cache:  &fakePackageCache{dirs: make(map[string]string)},
	}
	SetServices(Services{
		Corpus:    corpus,
		Snapshots: loader,
		Packages:  env.cache,
		Splitters: splitters,
		Config:    env.config,
		BatchSize: 15,
	})
	t.Cleanup(func() {
		SetServices(Services{})
		corpus.Close()
	})
	return env
}

// executeCommand runs the root command with args and returns its output.
// Flag values are reset afterwards so tests do not leak into each other.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		resetFlags(rootCmd)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

func resetFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		}
	})
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

// writeFiles creates files under dir from a relative path to content map.
func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

// fakePackageCache serves pre-extracted package directories.
type fakePackageCache struct {
	dirs     map[string]string
	err      error
	released []string
}

func (f *fakePackageCache) Acquire(_ context.Context, locations []string) (map[string]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]string, len(locations))
	for _, loc := range locations {
		out[loc] = f.dirs[loc]
	}
	return out, nil
}

func (f *fakePackageCache) Release(locations []string) error {
	f.released = append(f.released, locations...)
	return nil
}
