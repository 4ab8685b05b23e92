// Package memory holds the in-process vector index and in-memory stores.
//
// VectorIndex is the index every shell queries. The stores in this package
// keep state in maps and are used by tests and ephemeral runs.
package memory
