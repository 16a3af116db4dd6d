package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-corpus/internal/core/domain"
	"github.com/custodia-labs/sercha-corpus/internal/loaders/rpackage"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Remote package cache commands",
	Long:  `Commands for inspecting packages fetched from the configured R repository.`,
}

var cacheInspectCmd = &cobra.Command{
	Use:   "inspect [package...]",
	Short: "Fetch packages and show what ingestion would pick up",
	Long: `Fetches each package (name or name@version), lists the files that would
be ingested with their resource kind, then removes the extraction.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCacheInspect,
}

func init() {
	cacheCmd.AddCommand(cacheInspectCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheInspect(cmd *cobra.Command, args []string) (err error) {
	if packageCache == nil {
		return errors.New("package cache not configured")
	}

	ctx := context.Background()
	dirs, err := packageCache.Acquire(ctx, args)
	if err != nil {
		return fmt.Errorf("fetching packages: %w", err)
	}
	defer func() {
		err = errors.Join(err, packageCache.Release(args))
	}()

	for _, pkg := range args {
		counts, files, err := classifyTree(dirs[pkg])
		if err != nil {
			return err
		}
		cmd.Printf("%s (%d file(s): %d code, %d documentation, %d example)\n", pkg, len(files),
			counts[domain.KindCode], counts[domain.KindDocumentation], counts[domain.KindExample])
		for _, f := range files {
			cmd.Printf("  %s\n", f)
		}
	}
	return nil
}

// classifyTree lists the files under root that the R package loader keeps.
func classifyTree(root string) (map[domain.Kind]int, []string, error) {
	counts := make(map[domain.Kind]int)
	var files []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if strings.HasPrefix(d.Name(), ".") && p != root {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		kind, ok := rpackage.Classify(rel)
		if !ok {
			return nil
		}
		counts[kind]++
		files = append(files, kind.String()+"\t"+rel)
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("walking %s: %w", root, err)
	}
	return counts, files, nil
}
