package rpackage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-corpus/internal/core/domain"
	"github.com/custodia-labs/sercha-corpus/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-corpus/internal/loaders"
)

// fakeCache hands out prepared directories and counts references.
type fakeCache struct {
	dirs map[string]string
	refs map[string]int
}

func (f *fakeCache) Acquire(_ context.Context, locations []string) (map[string]string, error) {
	out := make(map[string]string)
	for _, loc := range locations {
		dir, ok := f.dirs[loc]
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrLookup, loc)
		}
		f.refs[loc]++
		out[loc] = dir
	}
	return out, nil
}

func (f *fakeCache) Release(locations []string) error {
	for _, loc := range locations {
		f.refs[loc]--
	}
	return nil
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newCache(t *testing.T) *fakeCache {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "DESCRIPTION"), "Package: tidy")
	writeFile(t, filepath.Join(dir, "R", "core.R"), "f <- function() 1")
	writeFile(t, filepath.Join(dir, "R", "notes.txt"), "ignored")
	writeFile(t, filepath.Join(dir, "R", ".hidden.R"), "ignored")
	writeFile(t, filepath.Join(dir, "vignettes", "intro.Rmd"), "## Description\nhello")
	writeFile(t, filepath.Join(dir, "man", "f.Rd"), "\\name{f}")
	writeFile(t, filepath.Join(dir, ".git", "R", "x.R"), "ignored")
	return &fakeCache{dirs: map[string]string{"tidy": dir}, refs: map[string]int{}}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		rel  string
		kind domain.Kind
		ok   bool
	}{
		{"R/core.R", domain.KindCode, true},
		{"inst/R/extra.R", domain.KindCode, true},
		{"R/core.r", "", false},
		{"vignettes/intro.Rmd", domain.KindExample, true},
		{"vignettes/intro.R", domain.KindExample, true},
		{"man/f.Rd", domain.KindDocumentation, true},
		{"man/figures/logo.png", "", false},
		{"DESCRIPTION", "", false},
		{"R.R", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			kind, ok := Classify(tt.rel)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.kind, kind)
		})
	}
}

func TestLoader_Discover(t *testing.T) {
	cache := newCache(t)
	l := New(cache, loaders.Defaults{})

	var resources []*domain.Resource
	for res, err := range l.Discover(context.Background(), driven.DiscoverRequest{Locations: []string{"tidy"}}) {
		require.NoError(t, err)
		// The package stays acquired while the caller iterates.
		assert.Equal(t, 1, cache.refs["tidy"])
		resources = append(resources, res)
	}
	assert.Equal(t, 0, cache.refs["tidy"])

	require.Len(t, resources, 3)
	assert.Equal(t, "rcran-package:R/core.R#tidy", resources[0].Address.String())
	assert.Equal(t, domain.KindCode, resources[0].Kind)
	assert.Equal(t, "rcran:rcran-package:R/core.R#tidy", resources[0].ID)
	assert.Equal(t, map[string]any{
		"package":  "tidy",
		"path":     "R/core.R",
		"type":     "code",
		"language": "rlang",
	}, resources[0].Metadata)

	assert.Equal(t, domain.KindDocumentation, resources[1].Kind)
	assert.Equal(t, domain.KindExample, resources[2].Kind)
	content, err := resources[2].Read()
	require.NoError(t, err)
	assert.Equal(t, "## Description\nhello", string(content))
}

func TestLoader_DiscoverReleasesOnEarlyStop(t *testing.T) {
	cache := newCache(t)
	l := New(cache, loaders.Defaults{})

	for range l.Discover(context.Background(), driven.DiscoverRequest{Locations: []string{"rcran-package:tidy"}}) {
		break
	}
	assert.Equal(t, 0, cache.refs["tidy"])
}

func TestLoader_DiscoverExclusions(t *testing.T) {
	cache := newCache(t)
	l := New(cache, loaders.Defaults{})

	var paths []string
	for res, err := range l.Discover(context.Background(), driven.DiscoverRequest{Locations: []string{"tidy", "!tidy/man"}}) {
		require.NoError(t, err)
		paths = append(paths, res.Address.Path())
	}
	assert.Equal(t, []string{"R/core.R", "vignettes/intro.Rmd"}, paths)
}

func TestLoader_DiscoverUnknownPackage(t *testing.T) {
	l := New(newCache(t), loaders.Defaults{})

	var gotErr error
	for _, err := range l.Discover(context.Background(), driven.DiscoverRequest{Locations: []string{"nosuch"}}) {
		gotErr = err
	}
	require.ErrorIs(t, gotErr, domain.ErrLookup)
}

func TestLoader_Read(t *testing.T) {
	cache := newCache(t)
	l := New(cache, loaders.Defaults{})
	ctx := context.Background()

	data, err := l.Read(ctx, "R/core.R", "tidy")
	require.NoError(t, err)
	assert.Equal(t, "f <- function() 1", string(data))
	assert.Equal(t, 0, cache.refs["tidy"])

	data, err = l.Read(ctx, "rcran-package:man/f.Rd#tidy", "")
	require.NoError(t, err)
	assert.Equal(t, "\\name{f}", string(data))

	_, err = l.Read(ctx, "R/missing.R", "tidy")
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = l.Read(ctx, "R/core.R", "")
	require.ErrorIs(t, err, domain.ErrInvalidAddress)
}
