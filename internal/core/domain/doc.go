// Package domain defines the core entities of the ragchat retrieval pipeline.
//
// This package is the innermost layer of the hexagon. It has NO external
// dependencies and defines the fundamental types:
//
//   - Document: extracted text from one source unit (a PDF page)
//   - Chunk: an overlapping window of a Document, carrying its embedding
//   - ScoredChunk: a Chunk ranked against a query vector
//   - Answer: the generated reply to one query
//   - Settings: typed, validated configuration
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
