// Copyright 2025 Civicdata Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package search

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/civicdata/transparencia/ai"
	"github.com/civicdata/transparencia/core"
	"github.com/civicdata/transparencia/storage"
)

// Searcher finds stored tenders semantically close to a query text.
type Searcher struct {
	store    storage.TenderSearch
	embedder ai.Embedder
	logger   *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSearcher creates a new searcher over the given store and
// embedding function.
func NewSearcher(store storage.TenderSearch, embedder ai.Embedder, opts ...Option) (*Searcher, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		store:    store,
		embedder: embedder,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Search embeds the query and returns up to limit tenders ordered by
// ascending Euclidean distance to it. Before querying it verifies that
// stored embeddings exist and that their width matches the query
// embedding.
func (s *Searcher) Search(ctx context.Context, query string, limit int) ([]core.TenderMatch, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}

	vector, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error embedding query", "query", query, "err", err)
		return nil, err
	}

	width, err := s.store.EmbeddingWidth(ctx)
	if err != nil {
		return nil, err
	}
	if width == 0 {
		return nil, storage.ErrNoEmbeddings
	}
	if width != len(vector) {
		return nil, fmt.Errorf("%w: stored %d, query %d",
			storage.ErrDimensionMismatch, width, len(vector))
	}

	matches, err := s.store.SimilarTenders(ctx, vector, limit)
	if err != nil {
		s.logger.Error("error querying similar tenders", "err", err)
		return nil, err
	}
	s.logger.Debug("similarity query served", "query", query, "hits", len(matches))
	return matches, nil
}
