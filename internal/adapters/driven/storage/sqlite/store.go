package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/sercha-corpus/internal/adapters/driven/storage"
	"github.com/custodia-labs/sercha-corpus/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/sercha-corpus/internal/core/domain"
	"github.com/custodia-labs/sercha-corpus/internal/core/ports/driven"
)

// Backend is the snapshot descriptor name of this store.
const Backend = "sqlite"

// DatabaseFile is the working database name inside a data directory.
const DatabaseFile = "store.db"

// jsonNull is the JSON representation of null.
const jsonNull = "null"

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// VectorStore is a SQLite-backed driven.VectorStore.
type VectorStore struct {
	db               *sql.DB
	path             string
	defaultPartition string
	embedding        driven.EmbeddingFunction

	// scratch is a directory owned by this store and removed on Close.
	scratch string
}

// Option configures a VectorStore.
type Option func(*VectorStore)

// WithDefaultPartition sets the partition used when callers pass "".
func WithDefaultPartition(name string) Option {
	return func(s *VectorStore) {
		if name != "" {
			s.defaultPartition = name
		}
	}
}

// WithEmbeddingFunction sets the function used to embed query text.
func WithEmbeddingFunction(ef driven.EmbeddingFunction) Option {
	return func(s *VectorStore) {
		s.embedding = ef
	}
}

// NewVectorStore opens (creating if needed) the store in dataDir.
// If dataDir is empty, defaults to ~/.sercha-corpus/data/store.db.
func NewVectorStore(dataDir string, opts ...Option) (*VectorStore, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".sercha-corpus", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return Open(filepath.Join(dataDir, DatabaseFile), opts...)
}

// Open opens the database file at path, running pending migrations.
func Open(path string, opts ...Option) (*VectorStore, error) {
	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &VectorStore{
		db:               db,
		path:             path,
		defaultPartition: domain.PartitionDefault,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Load reopens a store saved by SaveTo. The snapshot file is copied into a
// scratch directory first. It matches driven.StoreLoader.
func Load(_ context.Context, path string, settings domain.StoreSettings, ef driven.EmbeddingFunction) (driven.VectorStore, error) {
	scratch, err := os.MkdirTemp("", "sercha-corpus-store-*")
	if err != nil {
		return nil, fmt.Errorf("creating scratch directory: %w", err)
	}
	working := filepath.Join(scratch, DatabaseFile)
	if err := copyFile(path, working); err != nil {
		os.RemoveAll(scratch)
		return nil, fmt.Errorf("%w: copying store %s: %v", domain.ErrSnapshotIntegrity, path, err)
	}

	s, err := Open(working, WithDefaultPartition(settings.DefaultPartition), WithEmbeddingFunction(ef))
	if err != nil {
		os.RemoveAll(scratch)
		return nil, fmt.Errorf("%w: %v", domain.ErrSnapshotIntegrity, err)
	}
	s.scratch = scratch
	return s, nil
}

// Close closes the database connection and removes any scratch copy.
func (s *VectorStore) Close() error {
	err := s.db.Close()
	if s.scratch != "" {
		if rmErr := os.RemoveAll(s.scratch); rmErr != nil && err == nil {
			err = rmErr
		}
		s.scratch = ""
	}
	return err
}

// Path returns the database file path.
func (s *VectorStore) Path() string {
	return s.path
}

// DefaultPartition returns the partition used when callers pass "".
func (s *VectorStore) DefaultPartition() string {
	return s.defaultPartition
}

func (s *VectorStore) resolve(name string) string {
	if name == "" {
		return s.defaultPartition
	}
	return name
}

// Partitions lists partitions holding records, in name order.
func (s *VectorStore) Partitions(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT partition FROM records ORDER BY partition`)
	if err != nil {
		return nil, fmt.Errorf("listing partitions: %w", err)
	}
	defer rows.Close()

	var names []string //nolint:prealloc // size unknown from query
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning partition: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// AddRecords inserts records, replacing any with the same ID in place.
func (s *VectorStore) AddRecords(ctx context.Context, records []domain.Record, name string) error {
	if len(records) == 0 {
		return nil
	}
	name = s.resolve(name)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO partitions (name) VALUES (?)`, name); err != nil {
		return fmt.Errorf("creating partition: %w", err)
	}

	var seq int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM records WHERE partition = ?`, name).Scan(&seq); err != nil {
		return fmt.Errorf("reading sequence: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (partition, id, seq, content, address, metadata, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(partition, id) DO UPDATE SET
			content = excluded.content,
			address = excluded.address,
			metadata = excluded.metadata,
			embedding = excluded.embedding
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if rec.ID == "" {
			return fmt.Errorf("%w: record without id", domain.ErrInvalidInput)
		}
		metadataJSON, err := json.Marshal(rec.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling record metadata: %w", err)
		}
		seq++
		if _, err := stmt.ExecContext(ctx, name, rec.ID, seq, rec.Content, rec.Address.String(),
			string(metadataJSON), float32SliceToBytes(rec.Embedding)); err != nil {
			return fmt.Errorf("saving record %s: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// UpdateRecords rewrites existing records. No record is changed if any ID is unknown.
func (s *VectorStore) UpdateRecords(ctx context.Context, records []domain.Record, name string) error {
	name = s.resolve(name)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		UPDATE records SET content = ?, address = ?, metadata = ?, embedding = ?
		WHERE partition = ? AND id = ?
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		metadataJSON, err := json.Marshal(rec.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling record metadata: %w", err)
		}
		res, err := stmt.ExecContext(ctx, rec.Content, rec.Address.String(), string(metadataJSON),
			float32SliceToBytes(rec.Embedding), name, rec.ID)
		if err != nil {
			return fmt.Errorf("updating record %s: %w", rec.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("updating record %s: %w", rec.ID, err)
		}
		if n == 0 {
			return fmt.Errorf("record %q in partition %q: %w", rec.ID, name, domain.ErrNotFound)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetAll returns a partition's records in insertion order.
func (s *VectorStore) GetAll(ctx context.Context, name string, includeEmbeddings bool) ([]domain.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, content, address, metadata, embedding
		FROM records WHERE partition = ? ORDER BY seq
	`, s.resolve(name))
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var records []domain.Record //nolint:prealloc // size unknown from query
	for rows.Next() {
		var (
			rec          domain.Record
			address      string
			metadataJSON string
			embedding    []byte
		)
		if err := rows.Scan(&rec.ID, &rec.Content, &address, &metadataJSON, &embedding); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		if err := rec.Address.UnmarshalText([]byte(address)); err != nil {
			return nil, fmt.Errorf("record %s: %w", rec.ID, err)
		}
		if metadataJSON != "" && metadataJSON != jsonNull {
			if err := json.Unmarshal([]byte(metadataJSON), &rec.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshalling metadata of %s: %w", rec.ID, err)
			}
		}
		if includeEmbeddings {
			rec.Embedding = bytesToFloat32Slice(embedding)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Query ranks a partition's records against text.
func (s *VectorStore) Query(ctx context.Context, text, name string, limit int) (*domain.QueryResponse, error) {
	name = s.resolve(name)
	records, err := s.GetAll(ctx, name, s.embedding != nil)
	if err != nil {
		return nil, err
	}
	matches, err := storage.Rank(ctx, text, records, s.embedding, limit)
	if err != nil {
		return nil, err
	}
	return &domain.QueryResponse{Query: text, Partition: name, Matches: matches}, nil
}

// Clone copies the database into a scratch directory and opens the copy.
func (s *VectorStore) Clone(ctx context.Context) (driven.VectorStore, error) {
	scratch, err := os.MkdirTemp("", "sercha-corpus-clone-*")
	if err != nil {
		return nil, fmt.Errorf("creating scratch directory: %w", err)
	}
	target := filepath.Join(scratch, DatabaseFile)
	if _, err := s.db.ExecContext(ctx, `VACUUM INTO ?`, target); err != nil {
		os.RemoveAll(scratch)
		return nil, fmt.Errorf("cloning database: %w", err)
	}

	c, err := Open(target, WithDefaultPartition(s.defaultPartition), WithEmbeddingFunction(s.embedding))
	if err != nil {
		os.RemoveAll(scratch)
		return nil, err
	}
	c.scratch = scratch
	return c, nil
}

// SaveTo writes a compact copy of the database to base + ".db".
func (s *VectorStore) SaveTo(ctx context.Context, base string) (string, error) {
	target := base + ".db"
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("replacing %s: %w", target, err)
	}
	if _, err := s.db.ExecContext(ctx, `VACUUM INTO ?`, target); err != nil {
		return "", fmt.Errorf("saving database: %w", err)
	}
	return target, nil
}

// Settings describes the store for a snapshot descriptor.
func (s *VectorStore) Settings() domain.StoreSettings {
	settings := domain.StoreSettings{
		Backend:          Backend,
		DefaultPartition: s.defaultPartition,
		Settings: map[string]any{
			"journal_mode": "wal",
		},
	}
	if s.embedding != nil {
		settings.DefaultEmbeddingFunction = s.embedding.Name()
	}
	return settings
}

// migrate runs all pending migrations.
func (s *VectorStore) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_records.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// float32SliceToBytes converts []float32 to a little-endian byte slice.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
