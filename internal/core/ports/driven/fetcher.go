package driven

import (
	"context"
	"io"
)

// PackageFetcher downloads from a remote package repository.
type PackageFetcher interface {
	// FetchIndex returns the raw package index.
	FetchIndex(ctx context.Context) (io.ReadCloser, error)

	// FetchArchive returns the gzip-compressed tar archive of one package version.
	FetchArchive(ctx context.Context, name, version string) (io.ReadCloser, error)
}

// PackageCache hands out reference-counted extraction directories for
// remote packages. Locations are package names, optionally "name@version".
type PackageCache interface {
	// Acquire increments the count of each location, fetching on first use,
	// and returns location to directory. A failure rolls back this call's increments.
	Acquire(ctx context.Context, locations []string) (map[string]string, error)

	// Release decrements each location, deleting directories that reach zero.
	Release(locations []string) error
}
