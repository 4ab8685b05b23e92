// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Build Path
//
//   - DocumentLoader: Reads a corpus directory into Documents
//   - Normaliser, NormaliserRegistry: Per-format text extraction
//   - Chunker: Splits Documents into overlapping Chunks
//   - Embedder: Maps text to fixed-dimension vectors
//   - VectorIndexFactory: Builds an immutable VectorIndex from embedded Chunks
//   - IndexStore: Durable save/load of an index snapshot
//   - IndexMirror: Optional copy of the published index in an external store
//
// # Query Path
//
//   - VectorIndex: Read-only nearest-neighbour search
//   - Embedder: The same model as the build path
//   - Generator: Language model completion
//   - PromptStore: Prompt template text
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
