// Package sqlite persists vector index snapshots as SQLite database files.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation.
//
// # Schema
//
// The schema is managed through versioned migrations stored in the
// migrations/ directory. An index file holds one index_info row with the
// JSON-encoded metadata and one chunks row per chunk, keyed by position.
// Embeddings are little-endian float32 blobs.
//
// # Atomic Publish
//
// Save writes a complete database to a temporary file beside the target
// and renames it into place. The rollback journal is used instead of WAL
// so the published file is self-contained. Load opens the file read-only.
package sqlite
