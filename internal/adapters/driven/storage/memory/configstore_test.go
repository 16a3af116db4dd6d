package memory

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_CopiesSeed(t *testing.T) {
	seed := map[string]any{"cran.rate": 2.0}
	store := NewConfigStore(seed)

	require.NoError(t, store.Set("cran.rate", 5.0))

	assert.Equal(t, 2.0, seed["cran.rate"])
	assert.Equal(t, 5.0, store.GetFloat("cran.rate"))
}

func TestConfigStore_Get_Missing(t *testing.T) {
	store := NewConfigStore(nil)

	val, ok := store.Get("missing")
	assert.False(t, ok)
	assert.Nil(t, val)
	assert.Empty(t, store.GetString("missing"))
	assert.Zero(t, store.GetInt("missing"))
	assert.Zero(t, store.GetFloat("missing"))
	assert.False(t, store.GetBool("missing"))
	assert.Nil(t, store.GetStringSlice("missing"))
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := NewConfigStore(map[string]any{
		"ingest.batch_size": int64(15),
		"plain.int":         7,
		"cran.rate":         1.5,
		"cran.repo":         "https://cloud.r-project.org/src/contrib",
		"flag":              true,
		"python.paths":      []any{"/opt/lib", 3, "/srv/lib"},
		"names":             []string{"a", "b"},
	})

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"int64 as int", store.GetInt("ingest.batch_size"), 15},
		{"int as int", store.GetInt("plain.int"), 7},
		{"float truncated to int", store.GetInt("cran.rate"), 1},
		{"int64 widened to float", store.GetFloat("ingest.batch_size"), 15.0},
		{"int widened to float", store.GetFloat("plain.int"), 7.0},
		{"float", store.GetFloat("cran.rate"), 1.5},
		{"string", store.GetString("cran.repo"), "https://cloud.r-project.org/src/contrib"},
		{"string of non-string", store.GetString("flag"), ""},
		{"bool", store.GetBool("flag"), true},
		{"bool of non-bool", store.GetBool("cran.repo"), false},
		{"mixed slice keeps strings", store.GetStringSlice("python.paths"), []string{"/opt/lib", "/srv/lib"}},
		{"string slice", store.GetStringSlice("names"), []string{"a", "b"}},
		{"slice of scalar", store.GetStringSlice("cran.repo"), []string(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestConfigStore_SaveLoadPath(t *testing.T) {
	store := NewConfigStore(nil)
	assert.NoError(t, store.Save())
	assert.NoError(t, store.Load())
	assert.Equal(t, ":memory:", store.Path())
}

func TestConfigStore_ConcurrentAccess(t *testing.T) {
	store := NewConfigStore(nil)

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			_ = store.Set("counter", n)
		}(i)
		go func() {
			defer wg.Done()
			_ = store.GetInt("counter")
		}()
	}
	wg.Wait()

	_, ok := store.Get("counter")
	assert.True(t, ok)
}
