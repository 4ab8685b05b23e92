package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/ragchat/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// Ensure IndexStore implements the interface.
var _ driven.IndexStore = (*IndexStore)(nil)

// IndexStore reads and writes index snapshots as SQLite files.
// It holds no open handles between calls.
type IndexStore struct{}

// NewIndexStore creates a SQLite index store.
func NewIndexStore() *IndexStore {
	return &IndexStore{}
}

// Format returns domain.IndexFormatSQLite.
func (s *IndexStore) Format() domain.IndexFormat {
	return domain.IndexFormatSQLite
}

// Save writes snapshot to a temporary file and renames it over path.
func (s *IndexStore) Save(ctx context.Context, path string, snapshot *domain.IndexSnapshot) error {
	if snapshot == nil {
		return fmt.Errorf("%w: nil snapshot", domain.ErrInvalidInput)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}

	tmp := fmt.Sprintf("%s.%s.tmp", path, uuid.NewString())
	if err := writeDatabase(ctx, tmp, snapshot); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("publishing index: %w", err)
	}
	return nil
}

func writeDatabase(ctx context.Context, path string, snapshot *domain.IndexSnapshot) error {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(DELETE)&_pragma=synchronous(FULL)")
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if err := migrate(ctx, db, migrations.FS); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	infoJSON, err := json.Marshal(snapshot.Info)
	if err != nil {
		return fmt.Errorf("marshalling index info: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO index_info (id, info) VALUES (1, ?)`, string(infoJSON)); err != nil {
		return fmt.Errorf("saving index info: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (position, id, document_id, source, page, byte_offset, content, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing chunk insert: %w", err)
	}
	defer stmt.Close()

	for i, c := range snapshot.Chunks {
		if _, err := stmt.ExecContext(ctx, i, c.ID, c.DocumentID, c.Source, c.Page,
			c.Offset, c.Content, float32SliceToBytes(c.Embedding)); err != nil {
			return fmt.Errorf("saving chunk %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing index: %w", err)
	}
	return nil
}

// Load reads the snapshot at path. A missing file fails with
// domain.ErrNotFound and anything unreadable with domain.ErrCorruptIndex.
func (s *IndexStore) Load(ctx context.Context, path string) (*domain.IndexSnapshot, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: index %s", domain.ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrCorruptIndex, path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", domain.ErrCorruptIndex, path)
	}

	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %w", domain.ErrCorruptIndex, path, err)
	}
	defer db.Close()

	snap, err := readDatabase(ctx, db)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrCorruptIndex, path, err)
	}
	return snap, nil
}

func readDatabase(ctx context.Context, db *sql.DB) (*domain.IndexSnapshot, error) {
	var infoJSON string
	row := db.QueryRowContext(ctx, `SELECT info FROM index_info WHERE id = 1`)
	if err := row.Scan(&infoJSON); err != nil {
		return nil, fmt.Errorf("reading index info: %w", err)
	}

	var snap domain.IndexSnapshot
	if err := json.Unmarshal([]byte(infoJSON), &snap.Info); err != nil {
		return nil, fmt.Errorf("unmarshalling index info: %w", err)
	}

	rows, err := db.QueryContext(ctx, `
		SELECT position, id, document_id, source, page, byte_offset, content, embedding
		FROM chunks ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	snap.Chunks = make([]domain.Chunk, 0, snap.Info.Count)
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		snap.Chunks = append(snap.Chunks, *chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	if err := validateSnapshot(&snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// validateSnapshot checks that the stored rows agree with the metadata.
func validateSnapshot(snap *domain.IndexSnapshot) error {
	if len(snap.Chunks) == 0 {
		return errors.New("index holds no chunks")
	}
	if snap.Info.Count != len(snap.Chunks) {
		return fmt.Errorf("metadata counts %d chunks, found %d", snap.Info.Count, len(snap.Chunks))
	}
	for _, c := range snap.Chunks {
		if len(c.Embedding) != snap.Info.Dimensions {
			return fmt.Errorf("chunk %s has %d dimensions, index has %d",
				c.ID, len(c.Embedding), snap.Info.Dimensions)
		}
	}
	return nil
}

// migrate runs all pending migrations.
func migrate(ctx context.Context, db *sql.DB, fsys fs.FS) error {
	// Ensure schema_migrations table exists
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_index.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := db.ExecContext(ctx,
			"INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("embedding blob length %d is not a multiple of 4", len(data))
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats, nil
}

// scanChunk scans a chunk from *sql.Rows.
func scanChunk(rows *sql.Rows) (*domain.Chunk, error) {
	var chunk domain.Chunk
	var embeddingBlob []byte

	if err := rows.Scan(&chunk.Position, &chunk.ID, &chunk.DocumentID, &chunk.Source,
		&chunk.Page, &chunk.Offset, &chunk.Content, &embeddingBlob); err != nil {
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}

	embedding, err := bytesToFloat32Slice(embeddingBlob)
	if err != nil {
		return nil, fmt.Errorf("chunk %s: %w", chunk.ID, err)
	}
	chunk.Embedding = embedding
	return &chunk, nil
}
