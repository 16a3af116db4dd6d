// Package archive discovers the members of zip archives as resources
// addressed zipped-file://<archive>#<member>.
package archive

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"path"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/sercha-corpus/internal/core/domain"
	"github.com/custodia-labs/sercha-corpus/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-corpus/internal/loaders"
)

// Slug identifies this loader in resource IDs.
const Slug = "zip"

// Ensure Loader implements the interface.
var _ driven.Loader = (*Loader)(nil)

// Loader discovers zip archive members.
type Loader struct {
	kind     domain.Kind
	defaults loaders.Defaults
}

// New creates an archive loader producing resources of kind.
func New(kind domain.Kind, defaults loaders.Defaults) *Loader {
	if kind == "" {
		kind = domain.KindGeneric
	}
	return &Loader{kind: kind, defaults: defaults}
}

// Slug implements driven.Loader.
func (l *Loader) Slug() string { return Slug }

// ArchivePath returns the archive file named by a zipped-file location.
// Both "/a.zip" and "///a.zip" forms are accepted.
func ArchivePath(location string) (archive, member string, err error) {
	if !strings.HasPrefix(location, domain.SchemeZippedFile+":") {
		location = domain.SchemeZippedFile + ":" + location
	}
	addr, err := domain.ParseAddress(location)
	if err != nil {
		return "", "", err
	}
	archive = addr.Authority() + addr.Path()
	if archive == "" {
		return "", "", fmt.Errorf("%w: %q names no archive", domain.ErrInvalidAddress, location)
	}
	return filepath.FromSlash(archive), addr.Fragment(), nil
}

// AddressFor builds the address of member inside archive.
func AddressFor(archive, member string) (domain.Address, error) {
	abs, err := filepath.Abs(archive)
	if err != nil {
		return domain.Address{}, fmt.Errorf("resolving %s: %w", archive, err)
	}
	return domain.ParseAddress(domain.SchemeZippedFile + "://" + filepath.ToSlash(abs) + "#" + member)
}

// Discover implements driven.Loader. A location with a fragment selects a
// single member, or every member below it when it names a directory.
func (l *Loader) Discover(ctx context.Context, req driven.DiscoverRequest) iter.Seq2[*domain.Resource, error] {
	return func(yield func(*domain.Resource, error) bool) {
		pass := l.defaults.Resolve(req)

		for _, root := range pass.Roots {
			archive, prefix, err := ArchivePath(root)
			if err != nil {
				yield(nil, err)
				return
			}
			resources, err := l.members(archive, prefix, pass)
			if err != nil {
				yield(nil, err)
				return
			}
			for _, res := range resources {
				if err := ctx.Err(); err != nil {
					yield(nil, err)
					return
				}
				if !yield(res, nil) {
					return
				}
			}
		}
	}
}

func (l *Loader) members(archive, prefix string, pass loaders.Pass) ([]*domain.Resource, error) {
	zr, err := zip.OpenReader(archive)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: archive %s does not exist", domain.ErrLookup, archive)
	}
	if err != nil {
		return nil, fmt.Errorf("opening archive %s: %w", archive, err)
	}
	defer zr.Close()

	var out []*domain.Resource
	for _, f := range zr.File {
		name := f.Name
		if f.FileInfo().IsDir() || hidden(name) || strings.HasSuffix(name, ".metadata") {
			continue
		}
		if prefix != "" && name != prefix && !strings.HasPrefix(name, strings.TrimSuffix(prefix, "/")+"/") {
			continue
		}

		addr, err := AddressFor(archive, name)
		if err != nil {
			return nil, err
		}
		if pass.Excluded(addr.String()) {
			continue
		}

		content, err := readMember(f)
		if err != nil {
			return nil, err
		}
		meta := loaders.MergeMetadata(map[string]any{"archive": filepath.Base(archive)}, pass.Metadata)
		res, err := domain.NewResource(addr, l.kind, content, nil, meta)
		if err != nil {
			return nil, err
		}
		res.ID = loaders.ResourceID(Slug, addr)
		if !pass.Keep(res) {
			continue
		}
		out = append(out, res)
	}
	return out, nil
}

// Read implements driven.Loader. location is a member path of the archive
// named by base, or a full zipped-file address.
func (l *Loader) Read(_ context.Context, location, base string) ([]byte, error) {
	archive, member := base, location
	if strings.HasPrefix(location, domain.SchemeZippedFile+":") {
		var err error
		archive, member, err = ArchivePath(location)
		if err != nil {
			return nil, err
		}
	}
	return ReadMember(archive, member)
}

// ReadMember returns the bytes of one archive member.
func ReadMember(archive, member string) ([]byte, error) {
	zr, err := zip.OpenReader(archive)
	if err != nil {
		return nil, fmt.Errorf("%w: opening archive %s: %v", domain.ErrNotFound, archive, err)
	}
	defer zr.Close()

	want := path.Clean(strings.TrimPrefix(member, "/"))
	for _, f := range zr.File {
		if path.Clean(f.Name) == want {
			return readMember(f)
		}
	}
	return nil, fmt.Errorf("%w: %s in %s", domain.ErrNotFound, member, archive)
}

func readMember(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("opening member %s: %w", f.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading member %s: %w", f.Name, err)
	}
	return data, nil
}

func hidden(name string) bool {
	for _, part := range strings.Split(name, "/") {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
