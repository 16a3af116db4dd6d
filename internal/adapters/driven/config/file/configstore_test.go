package file

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
}

func TestNewConfigStore_DefaultDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	store, err := NewConfigStore("")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".sercha-corpus", "config.toml"), store.Path())
}

func TestConfigStore_Defaults(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "https://cran.rstudio.com/src/contrib", store.GetString(KeyCRANRepo))
	assert.Equal(t, 15, store.GetInt(KeyIngestBatchSize))
	assert.Equal(t, 500, store.GetInt(ChunkSizeKey("documentation")))
	assert.Equal(t, 60, store.GetInt(ChunkOverlapKey("documentation")))
	assert.InDelta(t, 2.0, store.GetFloat(KeyCRANRate), 0.0001)
}

func TestConfigStore_FileOverridesDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	content := "[cran]\nrepo = \"https://mirror.example/src/contrib\"\nrate = 5\n\n[ingest]\nbatch_size = 40\n"
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(content), 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, "https://mirror.example/src/contrib", store.GetString(KeyCRANRepo))
	assert.Equal(t, 40, store.GetInt(KeyIngestBatchSize))
	assert.InDelta(t, 5.0, store.GetFloat(KeyCRANRate), 0.0001)
}

func TestConfigStore_WithDefaults(t *testing.T) {
	store, err := NewConfigStore(t.TempDir(), WithDefaults(map[string]any{"a.b": "c"}))
	require.NoError(t, err)

	assert.Equal(t, "c", store.GetString("a.b"))
	assert.Empty(t, store.GetString(KeyCRANRepo))
}

func TestConfigStore_SetAndGet(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	err = store.Set("test_key", "test_value")
	require.NoError(t, err)

	val, ok := store.Get("test_key")
	assert.True(t, ok)
	assert.Equal(t, "test_value", val)
}

func TestConfigStore_Get_NotFound(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	val, ok := store.Get("nonexistent")
	assert.False(t, ok)
	assert.Nil(t, val)
}

func TestConfigStore_TypeMismatches(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("string_key", "hello"))

	assert.Equal(t, 0, store.GetInt("string_key"))
	assert.Equal(t, 0.0, store.GetFloat("string_key"))
	assert.False(t, store.GetBool("string_key"))
	assert.Equal(t, []string{"hello"}, store.GetStringSlice("string_key"))
}

func TestConfigStore_GetStringSlice(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set(KeyPythonPaths, []string{"/opt/a", "/opt/b"}))
	assert.Equal(t, []string{"/opt/a", "/opt/b"}, store.GetStringSlice(KeyPythonPaths))

	joined := strings.Join([]string{"/x", "/y"}, string(os.PathListSeparator))
	require.NoError(t, store.Set("python.extra", joined))
	assert.Equal(t, []string{"/x", "/y"}, store.GetStringSlice("python.extra"))

	store2, err := NewConfigStore(filepath.Dir(store.Path()))
	require.NoError(t, err)
	assert.Equal(t, []string{"/opt/a", "/opt/b"}, store2.GetStringSlice(KeyPythonPaths))
}

func TestConfigStore_SaveWritesNestedTables(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, store.Set(KeyEmbeddingProvider, "ollama"))
	require.NoError(t, store.Set(KeyEmbeddingModel, "nomic-embed-text"))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "[embedding]")
	assert.NotContains(t, string(data), "'embedding.provider'")

	store2, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "ollama", store2.GetString(KeyEmbeddingProvider))
	assert.Equal(t, "nomic-embed-text", store2.GetString(KeyEmbeddingModel))
}

func TestConfigStore_SaveRejectsConflictingKeys(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("cran", "flat"))
	err = store.Set("cran.repo", "nested")
	assert.Error(t, err)
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("key", "value"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

// TestNewConfigStore_LoadCorruptedFile tests error handling when loading corrupted TOML
func TestNewConfigStore_LoadCorruptedFile(t *testing.T) {
	tmpDir := t.TempDir()

	corruptedContent := []byte("this is not valid TOML {{{[[")
	err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), corruptedContent, 0600)
	require.NoError(t, err)

	store, err := NewConfigStore(tmpDir)

	assert.Error(t, err)
	assert.Nil(t, store)
}

// TestConfigStore_SetWithUnmarshallableValue tests error handling with values that can't be marshaled
func TestConfigStore_SetWithUnmarshallableValue(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	// Channels cannot be marshaled to TOML
	err = store.Set("channel", make(chan int))

	assert.Error(t, err)
}

// TestConfigStore_Load_EmptyTOMLData tests handling of a comment-only file
func TestConfigStore_Load_EmptyTOMLData(t *testing.T) {
	tmpDir := t.TempDir()
	err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("# Just a comment\n\n"), 0600)
	require.NoError(t, err)

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	_, ok := store.Get("any_key")
	assert.False(t, ok)
}
