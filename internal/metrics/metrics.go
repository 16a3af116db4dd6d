// Package metrics exposes Prometheus instruments for ingestion, snapshots
// and the remote package cache. Instruments are registered on Registry
// rather than the global default so embedding applications stay in control
// of what they expose.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Registry holds every corpus instrument.
var Registry = prometheus.NewRegistry()

var (
	// ResourcesIngested counts resources converted to records, by kind.
	ResourcesIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sercha_corpus_resources_ingested_total",
			Help: "Resources converted to records during ingestion",
		},
		[]string{"kind"},
	)

	// ResourcesSkipped counts resources rejected by validation, by kind.
	ResourcesSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sercha_corpus_resources_skipped_total",
			Help: "Resources skipped because they failed validation",
		},
		[]string{"kind"},
	)

	// RecordsWritten counts records flushed to the store, by partition.
	RecordsWritten = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sercha_corpus_records_written_total",
			Help: "Records written to the vector store",
		},
		[]string{"partition"},
	)

	// BatchesFlushed counts store flushes.
	BatchesFlushed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sercha_corpus_batches_flushed_total",
			Help: "Record batches flushed to the vector store",
		},
	)

	// SnapshotsSaved counts completed snapshot writes, by format.
	SnapshotsSaved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sercha_corpus_snapshots_saved_total",
			Help: "Snapshots written",
		},
		[]string{"format"},
	)

	// PackageFetches counts remote package archive downloads, by outcome.
	PackageFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sercha_corpus_package_fetches_total",
			Help: "Remote package archives fetched",
		},
		[]string{"result"},
	)

	// PackageCacheEntries is the number of live package extraction directories.
	PackageCacheEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sercha_corpus_package_cache_entries",
			Help: "Live remote package extraction directories",
		},
	)
)

func init() {
	Registry.MustRegister(
		ResourcesIngested,
		ResourcesSkipped,
		RecordsWritten,
		BatchesFlushed,
		SnapshotsSaved,
		PackageFetches,
		PackageCacheEntries,
	)
}
