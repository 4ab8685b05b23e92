package domain

import "time"

// IndexFormat identifies the on-disk representation of a vector index.
type IndexFormat string

// Available index formats.
const (
	// IndexFormatSQLite stores the index as a single SQLite database file.
	IndexFormatSQLite IndexFormat = "sqlite"

	// IndexFormatBolt stores the index as a single bbolt file.
	IndexFormatBolt IndexFormat = "bolt"
)

// IsValid returns true if the format is recognised.
func (f IndexFormat) IsValid() bool {
	return f == IndexFormatSQLite || f == IndexFormatBolt
}

// String returns the string representation.
func (f IndexFormat) String() string {
	return string(f)
}

// IndexInfo describes a built vector index.
// It is persisted alongside the vectors.
type IndexInfo struct {
	// Model is the embedding model the vectors were produced with.
	Model string `json:"model"`

	// Dimensions is the length of every vector in the index.
	Dimensions int `json:"dimensions"`

	// Count is the number of chunks.
	Count int `json:"count"`

	// BuiltAt is when the index was built.
	BuiltAt time.Time `json:"built_at"`

	// Format is the storage format, empty for an index only held in memory.
	Format IndexFormat `json:"format,omitempty"`
}

// BuildReport summarises one index build.
type BuildReport struct {
	Documents  int
	Skipped    []SkippedFile
	Chunks     int
	Dimensions int
	Path       string
	Duration   time.Duration

	// Warnings are non-fatal issues, such as a failed mirror update.
	Warnings []string
}

// IndexSnapshot is the persistable content of a vector index.
// Chunks are in insertion order and carry their embeddings.
type IndexSnapshot struct {
	Info   IndexInfo
	Chunks []Chunk
}
