// Package sqlite provides a SQLite-backed implementation of driven.VectorStore.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. Records live in a single table keyed by
// (partition, id); embeddings are stored as little-endian float32 blobs and
// metadata as JSON.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Snapshots
//
// Clone and SaveTo use VACUUM INTO, producing a compact standalone database file.
// Stores reopened from a snapshot work on a private copy so the snapshot itself
// is never modified.
//
// # Data Location
//
// By default, the working database is stored at ~/.sercha-corpus/data/store.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
