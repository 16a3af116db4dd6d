package cli

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-corpus/internal/core/domain"
)

func TestRootCmd_Commands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"ingest", "save", "query", "ls", "read", "cache", "config", "mcp", "browse", "version"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}

func TestCommands_NotConfigured(t *testing.T) {
	SetServices(Services{})

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"ingest", []string{"ingest", "."}, "corpus service not configured"},
		{"save", []string{"save", "out"}, "corpus service not configured"},
		{"query", []string{"query", "text"}, "corpus service not configured"},
		{"ls", []string{"ls"}, "corpus service not configured"},
		{"read", []string{"read", "file:x.txt"}, "corpus service not configured"},
		{"browse", []string{"browse"}, "corpus service not configured"},
		{"query snapshot", []string{"query", "text", "--snapshot", "snap"}, "snapshot loader not configured"},
		{"cache", []string{"cache", "inspect", "ggplot2"}, "package cache not configured"},
		{"config", []string{"config", "path"}, "config store not configured"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := executeCommand(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestIngestCmd(t *testing.T) {
	env := setupTestServices(t)
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"docs/guide.md": "# Guide\n\nHow to plot.",
		"notes/a.txt":   "first note",
		"notes/b.txt":   "second note",
	})

	out, err := executeCommand(t, "ingest",
		"documentation:"+filepath.Join(dir, "docs"),
		filepath.Join(dir, "notes"))
	require.NoError(t, err)

	// One flush per partition at the end of the run.
	assert.Contains(t, out, "Ingested 3 resource(s) in 2 batch(es).")
	assert.Contains(t, out, "default: 2 record(s)")
	assert.Contains(t, out, "documentation: 1 record(s)")

	partitions, err := env.store.Partitions(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{domain.PartitionDefault, domain.PartitionDocumentation}, partitions)
}

func TestIngestCmd_PartitionAndBatchSize(t *testing.T) {
	env := setupTestServices(t)
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"a.txt": "alpha", "b.txt": "beta", "c.txt": "gamma",
	})

	out, err := executeCommand(t, "ingest", dir, "--partition", "notes", "--batch-size", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Ingested 3 resource(s) in 2 batch(es).")

	records, err := env.store.GetAll(context.Background(), "notes", false)
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestIngestCmd_Exclusion(t *testing.T) {
	env := setupTestServices(t)
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"keep/a.txt": "kept",
		"skip/b.txt": "skipped",
	})

	_, err := executeCommand(t, "ingest", dir, "!"+filepath.Join(dir, "skip"))
	require.NoError(t, err)

	records, err := env.store.GetAll(context.Background(), domain.PartitionDefault, false)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "kept", records[0].Content)
}

func TestIngestCmd_Splitter(t *testing.T) {
	env := setupTestServices(t)
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"long.txt": "one two three four five six seven eight nine ten eleven twelve",
	})

	_, err := executeCommand(t, "ingest", dir, "--splitter", "recursive", "--chunk-size", "20", "--overlap", "0")
	require.NoError(t, err)

	records, err := env.store.GetAll(context.Background(), domain.PartitionDefault, false)
	require.NoError(t, err)
	assert.Greater(t, len(records), 1)
	for _, rec := range records {
		assert.LessOrEqual(t, len(rec.Content), 20)
	}
}

func TestIngestCmd_UnknownSplitter(t *testing.T) {
	setupTestServices(t)

	_, err := executeCommand(t, "ingest", t.TempDir(), "--splitter", "nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestIngestCmd_UnknownScheme(t *testing.T) {
	setupTestServices(t)

	_, err := executeCommand(t, "ingest", "gopher:whatever")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrLookup)
	assert.Contains(t, err.Error(), "ingest failed")
}

func TestIngestCmd_RequiresLocation(t *testing.T) {
	setupTestServices(t)

	_, err := executeCommand(t, "ingest")
	assert.Error(t, err)
}

func TestQueryCmd(t *testing.T) {
	setupTestServices(t)
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"plot.txt":  "scatter plot of two series",
		"other.txt": "installing the package",
	})
	_, err := executeCommand(t, "ingest", dir)
	require.NoError(t, err)

	t.Run("table output", func(t *testing.T) {
		out, err := executeCommand(t, "query", "scatter plot", "--limit", "1")
		require.NoError(t, err)
		assert.Contains(t, out, "Results from default:")
		assert.Contains(t, out, "[1]")
		assert.NotContains(t, out, "[2]")
		assert.Contains(t, out, "Address: ")
	})

	t.Run("json output", func(t *testing.T) {
		out, err := executeCommand(t, "query", "scatter plot", "--json")
		require.NoError(t, err)

		var results []queryResult
		require.NoError(t, json.Unmarshal([]byte(out), &results))
		require.Len(t, results, 2)
		assert.NotEmpty(t, results[0].Address)
		assert.LessOrEqual(t, results[0].Distance, results[1].Distance)
	})

	t.Run("empty partition", func(t *testing.T) {
		out, err := executeCommand(t, "query", "anything", "--partition", "code")
		require.NoError(t, err)
		assert.Contains(t, out, "No results found.")
	})
}

func TestLsCmd(t *testing.T) {
	setupTestServices(t)

	out, err := executeCommand(t, "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "Corpus is empty.")

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"guide.md": "# Guide"})
	_, err = executeCommand(t, "ingest", "documentation:"+dir)
	require.NoError(t, err)

	out, err = executeCommand(t, "ls")
	require.NoError(t, err)
	assert.Contains(t, out, domain.PartitionDocumentation)
}

func TestReadCmd(t *testing.T) {
	setupTestServices(t)
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"hello.txt": "hello world"})

	out, err := executeCommand(t, "read", "file:"+filepath.Join(dir, "hello.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello world", out)

	_, err = executeCommand(t, "read", "file:"+filepath.Join(dir, "missing.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read failed")
}

func TestSaveCmd_AndSnapshotFlag(t *testing.T) {
	setupTestServices(t)
	src := t.TempDir()
	writeFiles(t, src, map[string]string{
		"intro/start.md": "# Start\n\nInstall first.",
		"api/plot.md":    "# Plot\n\nDraws a scatter plot.",
	})
	_, err := executeCommand(t, "ingest", "documentation:"+src)
	require.NoError(t, err)

	snapDir := filepath.Join(t.TempDir(), "snap")
	out, err := executeCommand(t, "save", snapDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Corpus saved to "+snapDir)

	t.Run("existing target without overwrite", func(t *testing.T) {
		_, err := executeCommand(t, "save", snapDir)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrSnapshotIntegrity)
	})

	t.Run("overwrite", func(t *testing.T) {
		_, err := executeCommand(t, "save", snapDir, "--overwrite")
		require.NoError(t, err)
	})

	t.Run("ls snapshot directory", func(t *testing.T) {
		out, err := executeCommand(t, "ls", "--snapshot", snapDir)
		require.NoError(t, err)
		assert.Contains(t, out, domain.PartitionDocumentation)
	})

	t.Run("read snapshot resource", func(t *testing.T) {
		out, err := executeCommand(t, "read", "corpus:documentation/intro/start.md", "--snapshot", snapDir)
		require.NoError(t, err)
		assert.Equal(t, "# Start\n\nInstall first.", out)
	})

	t.Run("zip", func(t *testing.T) {
		zipPath := filepath.Join(t.TempDir(), "corpus.zip")
		_, err := executeCommand(t, "save", zipPath, "--zip")
		require.NoError(t, err)
		assert.FileExists(t, zipPath)

		out, err := executeCommand(t, "query", "install", "--snapshot", zipPath, "--partition", "documentation", "--json")
		require.NoError(t, err)
		var results []queryResult
		require.NoError(t, json.Unmarshal([]byte(out), &results))
		addresses := make([]string, len(results))
		for i, r := range results {
			addresses[i] = r.Address
		}
		assert.ElementsMatch(t, []string{
			"corpus:documentation/intro/start.md",
			"corpus:documentation/api/plot.md",
		}, addresses)
	})

	t.Run("missing snapshot", func(t *testing.T) {
		_, err := executeCommand(t, "ls", "--snapshot", filepath.Join(t.TempDir(), "none"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "opening snapshot")
	})
}

func TestCacheInspectCmd(t *testing.T) {
	env := setupTestServices(t)
	pkg := t.TempDir()
	writeFiles(t, pkg, map[string]string{
		"DESCRIPTION":         "Package: tiny",
		"R/tiny.R":            "tiny <- function() 1",
		"man/tiny.Rd":         "\\name{tiny}",
		"vignettes/intro.Rmd": "# Intro",
		"data/tiny.rda":       "binary",
	})
	env.cache.dirs["tiny"] = pkg

	out, err := executeCommand(t, "cache", "inspect", "tiny")
	require.NoError(t, err)

	assert.Contains(t, out, "tiny (3 file(s): 1 code, 1 documentation, 1 example)")
	assert.Contains(t, out, "code\tR/tiny.R")
	assert.Contains(t, out, "documentation\tman/tiny.Rd")
	assert.Contains(t, out, "example\tvignettes/intro.Rmd")
	assert.NotContains(t, out, "tiny.rda")
	assert.Equal(t, []string{"tiny"}, env.cache.released)
}

func TestCacheInspectCmd_FetchFailure(t *testing.T) {
	env := setupTestServices(t)
	env.cache.err = errors.New("index unavailable")

	_, err := executeCommand(t, "cache", "inspect", "tiny")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index unavailable")
	assert.Empty(t, env.cache.released)
}

func TestConfigCmd(t *testing.T) {
	env := setupTestServices(t)

	t.Run("get", func(t *testing.T) {
		out, err := executeCommand(t, "config", "get", "cran.rate")
		require.NoError(t, err)
		assert.Equal(t, "2\n", out)
	})

	t.Run("get missing", func(t *testing.T) {
		_, err := executeCommand(t, "config", "get", "cran.repo")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "is not set")
	})

	t.Run("set typed values", func(t *testing.T) {
		_, err := executeCommand(t, "config", "set", "ingest.batch_size", "50")
		require.NoError(t, err)
		assert.Equal(t, 50, env.config.GetInt("ingest.batch_size"))

		_, err = executeCommand(t, "config", "set", "cran.repo", "https://example.org/src/contrib")
		require.NoError(t, err)
		assert.Equal(t, "https://example.org/src/contrib", env.config.GetString("cran.repo"))
	})

	t.Run("path", func(t *testing.T) {
		out, err := executeCommand(t, "config", "path")
		require.NoError(t, err)
		assert.Equal(t, ":memory:\n", out)
	})
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"15", int64(15)},
		{"2.5", 2.5},
		{"true", true},
		{"sqlite", "sqlite"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseValue(tt.in))
		})
	}
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "a b c", snippet("a\n b\t c", 10))
	assert.Equal(t, "abc...", snippet("abcdef", 3))
}

func TestWatchRoots(t *testing.T) {
	roots, exclusions := watchRoots([]string{
		"/srv/docs",
		"documentation:/srv/guide",
		"py-mod:json",
		"!/srv/docs/drafts",
	})

	require.Len(t, roots, 2)
	assert.Equal(t, "", roots[0].scheme)
	assert.Equal(t, "/srv/docs", roots[0].path)
	assert.Equal(t, domain.SchemeDocumentation, roots[1].scheme)
	assert.Equal(t, []string{"/srv/docs/drafts"}, exclusions)

	assert.Equal(t, "/srv/docs/a.txt", locationFor(roots, "/srv/docs/a.txt"))
	assert.Equal(t, "documentation:/srv/guide/p.md", locationFor(roots, "/srv/guide/p.md"))
	assert.Equal(t, "/elsewhere/x", locationFor(roots, "/elsewhere/x"))
}
