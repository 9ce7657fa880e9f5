// Package ingestion orchestrates the CSV-to-relational load.
//
// A Pipeline run is batch-oriented and single-threaded: it discovers the
// source files, then loads entity types sequentially in foreign-key
// dependency order: institution, expenditure and revenue lines, grant
// calls, grant awards, tenders. The whole run executes inside one
// transaction: it either commits completely or rolls back completely,
// so readers never observe a half-loaded schema.
//
// Tender rows are augmented with embeddings computed in one batch call
// per file; the vector column is sized from the observed dimensionality.
// An unavailable embedder degrades the run to null embeddings with a
// warning instead of failing it.
package ingestion
