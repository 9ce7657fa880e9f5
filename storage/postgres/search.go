package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/civicdata/transparencia/core"
	"github.com/pgvector/pgvector-go"
)

// SimilarTenders returns up to limit tenders ordered by ascending L2
// distance to the query vector. Ties fall back to the store's natural
// row order. No re-ranking, no filtering: top-K by distance is the
// whole contract.
func (s *Store) SimilarTenders(ctx context.Context, vector []float32, limit int) ([]core.TenderMatch, error) {
	const query = `
		SELECT identifier, object_description, link, embedding <-> $1 AS distance
		FROM tender
		WHERE embedding IS NOT NULL
		ORDER BY distance
		LIMIT $2`

	var matches []core.TenderMatch
	if err := s.db.SelectContext(ctx, &matches, query, pgvector.NewVector(vector), limit); err != nil {
		return nil, fmt.Errorf("similarity query: %w", err)
	}
	return matches, nil
}

// EmbeddingWidth reports the width of the tender embedding column, or 0
// when no embeddings have been stored.
func (s *Store) EmbeddingWidth(ctx context.Context) (int, error) {
	width, err := vectorColumnWidth(ctx, s.db, "tender", "embedding")
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return width, err
}

// EnsureTenderIndex builds an approximate-nearest-neighbor index over
// tender embeddings, keyed on L2 distance. Queries remain correct
// without the index, only slower, so callers log failure and move on.
func (s *Store) EnsureTenderIndex(ctx context.Context) error {
	const stmt = `
		CREATE INDEX IF NOT EXISTS tender_embedding_idx
		ON tender USING ivfflat (embedding vector_l2_ops)
		WITH (lists = 100)`

	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("create tender embedding index: %w", err)
	}
	return nil
}
