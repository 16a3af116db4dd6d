package pymodule

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-corpus/internal/core/domain"
	"github.com/custodia-labs/sercha-corpus/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-corpus/internal/loaders"
)

// fakeLocator serves a fixed module tree and records lookups.
type fakeLocator struct {
	modules map[string]*driven.ModuleInfo
	located []string
}

func (f *fakeLocator) Locate(_ context.Context, dotted string) (*driven.ModuleInfo, error) {
	f.located = append(f.located, dotted)
	info, ok := f.modules[dotted]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, dotted)
	}
	return info, nil
}

func pkg(name string, children ...string) *driven.ModuleInfo {
	return &driven.ModuleInfo{
		Name:      name,
		Origin:    "/site/" + name + "/__init__.py",
		Source:    "# " + name,
		HasSource: true,
		IsPackage: true,
		Children:  children,
	}
}

func mod(name string) *driven.ModuleInfo {
	return &driven.ModuleInfo{Name: name, Origin: "/site/" + name + ".py", Source: "# " + name, HasSource: true}
}

func newTree() *fakeLocator {
	return &fakeLocator{modules: map[string]*driven.ModuleInfo{
		"pkg":          pkg("pkg", "pkg.sub", "pkg.other", "pkg._speedups"),
		"pkg.sub":      pkg("pkg.sub", "pkg.sub.deep"),
		"pkg.sub.deep": mod("pkg.sub.deep"),
		"pkg.other":    mod("pkg.other"),
		"pkg._speedups": {
			Name:   "pkg._speedups",
			Origin: "/site/pkg/_speedups.so",
		},
	}}
}

func names(t *testing.T, l *Loader, req driven.DiscoverRequest) ([]string, error) {
	t.Helper()
	var out []string
	for res, err := range l.Discover(context.Background(), req) {
		if err != nil {
			return out, err
		}
		out = append(out, res.Address.Path())
	}
	return out, nil
}

func TestLoader_DiscoverBreadthFirst(t *testing.T) {
	l := New(newTree(), loaders.Defaults{})

	got, err := names(t, l, driven.DiscoverRequest{Locations: []string{"pkg"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"pkg", "pkg.sub", "pkg.other", "pkg.sub.deep"}, got)
}

func TestLoader_DiscoverExclusions(t *testing.T) {
	locator := newTree()
	l := New(locator, loaders.Defaults{})

	got, err := names(t, l, driven.DiscoverRequest{Locations: []string{"pkg", "!pkg.sub"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"pkg", "pkg.other"}, got)

	// Excluded packages are never expanded.
	assert.NotContains(t, locator.located, "pkg.sub")
	assert.NotContains(t, locator.located, "pkg.sub.deep")
}

func TestLoader_ConstructorExclusionsAccumulate(t *testing.T) {
	l := New(newTree(), loaders.Defaults{Exclusions: []string{"pkg.other"}})

	got, err := names(t, l, driven.DiscoverRequest{Locations: []string{"pkg", "!pkg.sub"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"pkg"}, got)
}

func TestLoader_ResourceShape(t *testing.T) {
	l := New(newTree(), loaders.Defaults{Metadata: map[string]any{"team": "data"}})

	var res *domain.Resource
	for r, err := range l.Discover(context.Background(), driven.DiscoverRequest{Locations: []string{"py-mod:pkg.other"}}) {
		require.NoError(t, err)
		res = r
	}
	require.NotNil(t, res)

	assert.Equal(t, "py-mod:pkg.other", res.Address.String())
	assert.Equal(t, domain.KindCode, res.Kind)
	assert.Equal(t, "python:py-mod:pkg.other", res.ID)
	assert.True(t, res.InMemory())
	assert.Equal(t, map[string]any{
		"package":  "pkg.other",
		"type":     "code",
		"language": "python3",
		"team":     "data",
	}, res.Metadata)
}

func TestLoader_DiscoverUnknownModule(t *testing.T) {
	l := New(newTree(), loaders.Defaults{})
	_, err := names(t, l, driven.DiscoverRequest{Locations: []string{"nosuch"}})
	require.ErrorIs(t, err, domain.ErrLookup)
}

func TestLoader_Read(t *testing.T) {
	l := New(newTree(), loaders.Defaults{})
	ctx := context.Background()

	data, err := l.Read(ctx, "other", "pkg")
	require.NoError(t, err)
	assert.Equal(t, "# pkg.other", string(data))

	data, err = l.Read(ctx, "py-mod:pkg.sub.deep", "")
	require.NoError(t, err)
	assert.Equal(t, "# pkg.sub.deep", string(data))

	_, err = l.Read(ctx, "pkg._speedups", "")
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = l.Read(ctx, "missing", "")
	require.ErrorIs(t, err, domain.ErrNotFound)
}
