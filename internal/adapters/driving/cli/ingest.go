package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/sercha-corpus/internal/core/domain"
	"github.com/custodia-labs/sercha-corpus/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-corpus/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-corpus/internal/core/services"
	"github.com/custodia-labs/sercha-corpus/internal/loaders/localfile"
	"github.com/custodia-labs/sercha-corpus/internal/logger"
)

var (
	ingestPartition string
	ingestBatchSize int
	ingestSplitter  string
	ingestChunkSize int
	ingestOverlap   int
	ingestWatch     bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [location...]",
	Short: "Ingest resources into the working corpus",
	Long: `Discovers every resource reachable from the given locations, splits it
into records and stores them. A location is an address such as
  /path/to/dir                  local files
  documentation:/path/to/docs   documentation pages
  examples:/path/to/examples    markdown examples (validated)
  py-mod:package.module         a Python module and its submodules
  rcran-package:ggplot2         an R package from the configured repository
  zipped-file:///path/a.zip     members of a zip archive
Prefix a location with "!" to exclude it.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestPartition, "partition", "p", "", "write every record to this partition")
	ingestCmd.Flags().IntVarP(&ingestBatchSize, "batch-size", "b", 0, "records buffered before each flush (default from config)")
	ingestCmd.Flags().StringVar(&ingestSplitter, "splitter", "", "use this splitter for every splittable resource")
	ingestCmd.Flags().IntVar(&ingestChunkSize, "chunk-size", 0, "chunk size for --splitter")
	ingestCmd.Flags().IntVar(&ingestOverlap, "overlap", -1, "chunk overlap for --splitter")
	ingestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false, "keep running and re-ingest local files as they change")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if corpusService == nil {
		return errors.New("corpus service not configured")
	}

	opts, err := ingestOptions()
	if err != nil {
		return err
	}

	ctx := context.Background()
	if isTerminal() {
		cmd.Printf("Ingesting %d location(s)...\n", len(args))
	}
	report, err := corpusService.Ingest(ctx, args, opts)
	if report != nil {
		printReport(cmd, report)
	}
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	if !ingestWatch {
		return nil
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	return watchAndIngest(ctx, cmd, args, opts)
}

// ingestOptions builds options from flags.
func ingestOptions() (driving.IngestOptions, error) {
	opts := driving.IngestOptions{
		Partition: ingestPartition,
		BatchSize: defaultBatchSize,
	}
	if ingestBatchSize != 0 {
		opts.BatchSize = ingestBatchSize
	}

	if ingestSplitter == "" {
		return opts, nil
	}
	if splitterRegistry == nil {
		return opts, errors.New("splitter registry not configured")
	}
	cfg := map[string]any{}
	if ingestChunkSize > 0 {
		cfg["chunk_size"] = ingestChunkSize
	}
	if ingestOverlap >= 0 {
		cfg["overlap"] = ingestOverlap
	}
	splitter, err := splitterRegistry.Build(ingestSplitter, cfg)
	if err != nil {
		return opts, err
	}

	opts.Embedders = make(map[domain.Kind]driven.ResourceEmbedder)
	for _, kind := range domain.AllKinds() {
		if kind.Splittable() {
			opts.Embedders[kind] = services.NewEmbedder(services.WithSplitter(splitter))
		}
	}
	return opts, nil
}

func printReport(cmd *cobra.Command, report *driving.IngestReport) {
	partitions := make([]string, 0, len(report.Records))
	for p := range report.Records {
		partitions = append(partitions, p)
	}
	sort.Strings(partitions)

	cmd.Printf("Ingested %d resource(s) in %d batch(es).\n", report.Resources, report.Batches)
	for _, p := range partitions {
		cmd.Printf("  %s: %d record(s)\n", p, report.Records[p])
	}
	for _, s := range report.Skipped {
		cmd.Printf("  skipped %s: %s\n", s.Address, s.Reason)
	}
}

// watchRoot is a local location being watched and the scheme it was given with.
type watchRoot struct {
	scheme string
	path   string
}

// watchRoots picks the filesystem-backed locations out of args.
func watchRoots(args []string) (roots []watchRoot, exclusions []string) {
	for _, raw := range args {
		negated := strings.HasPrefix(raw, "!")
		addr, err := domain.ParseAddress(strings.TrimPrefix(raw, "!"))
		if err != nil {
			continue
		}
		switch addr.Scheme() {
		case "", domain.SchemeFile, domain.SchemeDocumentation, domain.SchemeExamples:
		default:
			continue
		}
		path := addr.Path()
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		if negated {
			exclusions = append(exclusions, path)
			continue
		}
		roots = append(roots, watchRoot{scheme: addr.Scheme(), path: path})
	}
	return roots, exclusions
}

// locationFor rebuilds a location for a changed file under the scheme of
// the root containing it.
func locationFor(roots []watchRoot, path string) string {
	for _, r := range roots {
		if path == r.path || strings.HasPrefix(path, r.path+string(filepath.Separator)) {
			if r.scheme == "" {
				return path
			}
			return r.scheme + ":" + filepath.ToSlash(path)
		}
	}
	return path
}

func watchAndIngest(ctx context.Context, cmd *cobra.Command, args []string, opts driving.IngestOptions) error {
	roots, exclusions := watchRoots(args)
	if len(roots) == 0 {
		return errors.New("--watch needs at least one local location")
	}
	paths := make([]string, len(roots))
	for i, r := range roots {
		paths[i] = r.path
	}

	w := localfile.NewWatcher(paths, exclusions)
	defer w.Close()
	changes, err := w.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watching: %w", err)
	}
	cmd.Printf("Watching %d location(s) for changes, press Ctrl+C to stop.\n", len(roots))

	for change := range changes {
		if change.Type == localfile.ChangeDeleted {
			logger.Info("%s was deleted; its records are kept until the corpus is rebuilt", change.Path)
			continue
		}
		location := locationFor(roots, change.Path)
		report, err := corpusService.Ingest(ctx, []string{location}, opts)
		if err != nil {
			logger.Warn("Re-ingesting %s: %v", change.Path, err)
			continue
		}
		cmd.Printf("%s %s: %d resource(s)\n", change.Type, change.Path, report.Resources)
	}
	return nil
}

// isTerminal reports whether stdout is attached to a terminal.
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
