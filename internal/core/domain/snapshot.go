package domain

// Snapshot layout names.
const (
	SnapshotConfigFile   = "config.toml"
	SnapshotResourcesDir = "resources"
	SnapshotStoreBase    = "store"
)

// SnapshotDescriptor is the configuration document written at the root of
// every snapshot. It names the store backend so the snapshot can be rebuilt.
type SnapshotDescriptor struct {
	// Corpus holds corpus-level settings.
	Corpus CorpusSettings `toml:"corpus"`

	// Store describes the persisted vector store.
	Store StoreSettings `toml:"store"`
}

// CorpusSettings are the corpus-level values persisted in a snapshot.
type CorpusSettings struct {
	// DefaultEmbeddingFunction is the identifier of the corpus-wide embedding function.
	DefaultEmbeddingFunction string `toml:"default_embedding_function,omitempty"`
}

// StoreSettings describe a vector store well enough to reopen it.
type StoreSettings struct {
	// Backend names the store implementation, e.g. "sqlite" or "memory".
	Backend string `toml:"backend"`

	// File is the store's file name inside the snapshot directory.
	File string `toml:"file"`

	// DefaultPartition is used when callers name no partition.
	DefaultPartition string `toml:"default_partition"`

	// DefaultEmbeddingFunction is the identifier used to embed query text.
	DefaultEmbeddingFunction string `toml:"default_embedding_function,omitempty"`

	// Settings are backend-specific options.
	Settings map[string]any `toml:"settings,omitempty"`
}

// PackageInfo is one entry of a remote package index.
type PackageInfo struct {
	// Name is the package name.
	Name string

	// Version is the published version.
	Version string

	// Fields holds every field of the index stanza, keyed by lower-cased label.
	Fields map[string]string
}
