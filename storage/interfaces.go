package storage

import (
	"context"

	"github.com/civicdata/transparencia/core"
)

// Schema owns the DDL for the relational tables and the
// dimension-parameterized vector column.
type Schema interface {
	// Recreate drops and recreates all tables, children before parents on
	// drop and parents before children on create. Repeated calls leave
	// the schema in the same state.
	Recreate(ctx context.Context) error

	// EnsureVectorColumn guarantees table has a vector column of the
	// given width. A missing table is created with the column; a missing
	// column is added; a column at a different width is dropped and
	// re-added, losing its data; callers must re-populate afterwards.
	EnsureVectorColumn(ctx context.Context, table, column string, width int) error

	// VectorColumnWidth returns the width of an existing vector column,
	// or 0 when the table or column does not exist.
	VectorColumnWidth(ctx context.Context, table, column string) (int, error)
}

// InstitutionRepository seeds the institution partition row.
type InstitutionRepository interface {
	Seed(ctx context.Context, institution core.Institution) error
}

// BudgetRepository bulk-inserts budget lines.
type BudgetRepository interface {
	InsertExpenditures(ctx context.Context, lines []core.BudgetLine) error
	InsertRevenues(ctx context.Context, lines []core.BudgetLine) error
}

// GrantRepository manages grant calls and awards.
type GrantRepository interface {
	// InsertCalls bulk-inserts grant calls. A repeated call code is
	// silently dropped: first writer wins.
	InsertCalls(ctx context.Context, calls []core.GrantCall) error

	// CallCodes returns the set of call codes committed so far. The
	// award loader snapshots this set before filtering.
	CallCodes(ctx context.Context) (map[string]struct{}, error)

	InsertAwards(ctx context.Context, awards []core.GrantAward) error
}

// TenderRepository bulk-inserts tenders, including their embedding
// literals when present.
type TenderRepository interface {
	InsertTenders(ctx context.Context, tenders []core.Tender) error
}

// Session is the transactional view a pipeline run works through.
type Session interface {
	Schema() Schema
	Institutions() InstitutionRepository
	Budgets() BudgetRepository
	Grants() GrantRepository
	Tenders() TenderRepository
}

// TenderSearch is the query path over stored tender embeddings.
type TenderSearch interface {
	// SimilarTenders returns up to limit tenders ordered by ascending
	// distance to the given vector.
	SimilarTenders(ctx context.Context, vector []float32, limit int) ([]core.TenderMatch, error)

	// EmbeddingWidth returns the width of the stored tender embedding
	// column, or 0 when none exists.
	EmbeddingWidth(ctx context.Context) (int, error)
}

// Store is the relational store boundary.
type Store interface {
	TenderSearch

	// RunInTransaction executes fn within a single transaction. If fn
	// returns an error the transaction is rolled back and no partial
	// state remains visible; otherwise it is committed.
	RunInTransaction(ctx context.Context, fn func(Session) error) error

	// EnsureTenderIndex builds the approximate-nearest-neighbor index
	// over tender embeddings. Queries stay correct without it, only
	// slower, so callers treat failure as a warning.
	EnsureTenderIndex(ctx context.Context) error

	// Close releases the underlying connections.
	Close() error
}
