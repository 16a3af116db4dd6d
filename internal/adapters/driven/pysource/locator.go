// Package pysource locates Python modules on disk by walking a list of
// search roots the way the import system does, without running Python.
package pysource

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/custodia-labs/sercha-corpus/internal/core/domain"
	"github.com/custodia-labs/sercha-corpus/internal/core/ports/driven"
)

// Ensure Locator implements the interface.
var _ driven.ModuleLocator = (*Locator)(nil)

// EnvPath is the environment variable read by FromEnv.
const EnvPath = "PYTHONPATH"

const initFile = "__init__.py"

// extensionSuffixes mark compiled extension modules, which have no source.
var extensionSuffixes = []string{".so", ".pyd"}

// Locator resolves dotted module names against search roots, first match wins.
type Locator struct {
	roots []string
}

// New creates a locator over roots. Empty entries are dropped.
func New(roots ...string) *Locator {
	l := &Locator{}
	for _, r := range roots {
		if r = strings.TrimSpace(r); r != "" {
			l.roots = append(l.roots, r)
		}
	}
	return l
}

// FromEnv creates a locator from PYTHONPATH followed by extra roots.
func FromEnv(extra ...string) *Locator {
	return New(append(filepath.SplitList(os.Getenv(EnvPath)), extra...)...)
}

// Roots returns the search roots in order.
func (l *Locator) Roots() []string {
	return append([]string(nil), l.roots...)
}

// Locate implements driven.ModuleLocator.
func (l *Locator) Locate(ctx context.Context, dotted string) (*driven.ModuleInfo, error) {
	parts := strings.Split(dotted, ".")
	for _, p := range parts {
		if !isIdentifier(p) {
			return nil, fmt.Errorf("%w: %q is not a module name", domain.ErrInvalidInput, dotted)
		}
	}

	for _, root := range l.roots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		base := filepath.Join(append([]string{root}, parts...)...)
		info, ok, err := locateIn(base, dotted)
		if err != nil {
			return nil, err
		}
		if ok {
			return info, nil
		}
	}
	return nil, fmt.Errorf("%w: module %s", domain.ErrNotFound, dotted)
}

// locateIn checks base as a package directory, then as a source module,
// then as a compiled extension.
func locateIn(base, dotted string) (*driven.ModuleInfo, bool, error) {
	if st, err := os.Stat(base); err == nil && st.IsDir() {
		info := &driven.ModuleInfo{Name: dotted, IsPackage: true}
		initPath := filepath.Join(base, initFile)
		if src, err := os.ReadFile(initPath); err == nil {
			info.Origin = initPath
			info.Source = string(src)
			info.HasSource = true
		}
		children, err := listChildren(base, dotted)
		if err != nil {
			return nil, false, err
		}
		info.Children = children
		return info, true, nil
	}

	if src, err := os.ReadFile(base + ".py"); err == nil {
		return &driven.ModuleInfo{
			Name:      dotted,
			Origin:    base + ".py",
			Source:    string(src),
			HasSource: true,
		}, true, nil
	}

	if ext, ok := findExtension(base); ok {
		return &driven.ModuleInfo{Name: dotted, Origin: ext}, true, nil
	}
	return nil, false, nil
}

// listChildren returns the dotted names of a package's direct submodules.
func listChildren(dir, parent string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading package %s: %w", dir, err)
	}
	seen := make(map[string]bool)
	for _, e := range entries {
		name := e.Name()
		var mod string
		switch {
		case e.IsDir():
			mod = name
		case name == initFile:
			continue
		case strings.HasSuffix(name, ".py"):
			mod = strings.TrimSuffix(name, ".py")
		default:
			mod = extensionModule(name)
		}
		if isIdentifier(mod) {
			seen[parent+"."+mod] = true
		}
	}
	children := make([]string, 0, len(seen))
	for c := range seen {
		children = append(children, c)
	}
	sort.Strings(children)
	return children, nil
}

// extensionModule returns the module name of a compiled extension file such
// as "_speedups.cpython-312-x86_64-linux-gnu.so", or "".
func extensionModule(file string) string {
	for _, suffix := range extensionSuffixes {
		if strings.HasSuffix(file, suffix) {
			name, _, _ := strings.Cut(file, ".")
			return name
		}
	}
	return ""
}

func findExtension(base string) (string, bool) {
	dir, name := filepath.Split(base)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, e := range entries {
		if !e.IsDir() && extensionModule(e.Name()) == name {
			return filepath.Join(dir, e.Name()), true
		}
	}
	return "", false
}

// isIdentifier reports whether s is a valid, non-dunder-cache module name.
func isIdentifier(s string) bool {
	if s == "" || s == "__pycache__" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
