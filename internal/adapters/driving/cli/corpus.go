package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-corpus/internal/core/ports/driving"
)

// addSnapshotFlag registers --snapshot on commands that can read a saved corpus.
func addSnapshotFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("snapshot", "s", "", "read from a snapshot directory or zip archive instead of the working corpus")
}

// openCorpus returns the corpus a read-only command should use and a
// function releasing it.
func openCorpus(ctx context.Context, cmd *cobra.Command) (driving.CorpusService, func(), error) {
	path, _ := cmd.Flags().GetString("snapshot")
	if path == "" {
		if corpusService == nil {
			return nil, nil, errors.New("corpus service not configured")
		}
		return corpusService, func() {}, nil
	}

	if snapshotLoader == nil {
		return nil, nil, errors.New("snapshot loader not configured")
	}
	var (
		c   driving.CorpusService
		err error
	)
	if isArchive(path) {
		c, err = snapshotLoader.FromZip(ctx, path)
	} else {
		c, err = snapshotLoader.FromDir(ctx, path)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("opening snapshot %s: %w", path, err)
	}
	return c, func() { c.Close() }, nil //nolint:errcheck
}

// isArchive reports whether path names a zip file rather than a directory.
func isArchive(path string) bool {
	if info, err := os.Stat(path); err == nil {
		return !info.IsDir()
	}
	return strings.HasSuffix(strings.ToLower(path), ".zip")
}
