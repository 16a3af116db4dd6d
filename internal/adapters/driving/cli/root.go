// Package cli provides the cobra command tree of the sercha-corpus binary.
//
// Commands work on the working corpus (a durable store under the data
// directory) unless --snapshot points them at a saved snapshot directory
// or zip archive.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-corpus/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-corpus/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-corpus/internal/logger"
	"github.com/custodia-labs/sercha-corpus/internal/metrics"
	"github.com/custodia-labs/sercha-corpus/internal/postprocessors"
)

// version is set at build time.
var version = "dev"

var (
	verbose     bool
	metricsAddr string
)

// Injected services. Commands report a configuration error when the one
// they need is nil.
var (
	corpusService    driving.CorpusService
	snapshotLoader   driving.SnapshotLoader
	packageCache     driven.PackageCache
	splitterRegistry *postprocessors.Registry
	configStore      driven.ConfigStore
	defaultBatchSize int
)

// Services are the collaborators the commands drive.
type Services struct {
	Corpus    driving.CorpusService
	Snapshots driving.SnapshotLoader
	Packages  driven.PackageCache
	Splitters *postprocessors.Registry
	Config    driven.ConfigStore

	// BatchSize is the ingest batch size used when --batch-size is not given.
	BatchSize int
}

var rootCmd = &cobra.Command{
	Use:   "sercha-corpus",
	Short: "Build, query and snapshot resource corpora",
	Long: `sercha-corpus ingests files, documentation, examples, Python modules and
R packages into a vector store, and saves the result as a portable snapshot
that can be queried and read back anywhere.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
		if metricsAddr != "" {
			go serveMetrics(cmd.Context(), metricsAddr)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics at /metrics on this address")
}

func serveMetrics(ctx context.Context, addr string) {
	logger.Debug("Serving metrics on %s", addr)
	if err := metrics.Serve(ctx, addr); err != nil {
		logger.Warn("Metrics server stopped: %v", err)
	}
}

// SetServices injects the services used by every command.
func SetServices(s Services) {
	corpusService = s.Corpus
	snapshotLoader = s.Snapshots
	packageCache = s.Packages
	splitterRegistry = s.Splitters
	configStore = s.Config
	defaultBatchSize = s.BatchSize
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
