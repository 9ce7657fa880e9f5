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


package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/civicdata/transparencia/ai"
	"github.com/civicdata/transparencia/core"
	"github.com/civicdata/transparencia/sources"
	"github.com/civicdata/transparencia/storage"
)

const (
	tenderTable           = "tender"
	tenderEmbeddingColumn = "embedding"
)

// Pipeline runs the full CSV-to-relational load for one institution.
type Pipeline struct {
	store    storage.Store
	embedder ai.Embedder
	logger   *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithEmbedder sets the embedding function used to augment tenders.
// Without one the pipeline stores null embeddings and logs a warning.
func WithEmbedder(embedder ai.Embedder) Option {
	return func(p *Pipeline) error {
		p.embedder = embedder
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new load pipeline over the given store.
func NewPipeline(store storage.Store, opts ...Option) (*Pipeline, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}

	p := &Pipeline{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Run discovers the source files under dir and performs a full reload:
// every table is dropped and recreated, the institution reseeded, and
// all entities loaded in foreign-key dependency order inside a single
// transaction. Either everything commits or everything rolls back.
func (p *Pipeline) Run(ctx context.Context, dir string, institution core.Institution) (*Report, error) {
	manifest, err := sources.Discover(dir)
	if err != nil {
		return nil, err
	}
	for _, category := range core.Categories {
		if len(manifest[category]) == 0 {
			return nil, fmt.Errorf("%w: no %s files in %s", ErrMissingSources, category, dir)
		}
	}

	report := &Report{}
	err = p.store.RunInTransaction(ctx, func(s storage.Session) error {
		if err := s.Schema().Recreate(ctx); err != nil {
			return err
		}
		if err := s.Institutions().Seed(ctx, institution); err != nil {
			return err
		}
		if err := p.loadBudgets(ctx, s, manifest, report); err != nil {
			return err
		}
		if err := p.loadGrants(ctx, s, manifest, report); err != nil {
			return err
		}
		return p.loadTenders(ctx, s, manifest[core.CategoryTender], institution.TaxID, report)
	})
	if err != nil {
		return nil, err
	}

	// The index is built outside the load transaction: a failed build
	// must not poison the committed data, queries are merely slower.
	if report.Embedded > 0 {
		if err := p.store.EnsureTenderIndex(ctx); err != nil {
			p.logger.Warn("tender embedding index build failed, queries fall back to a sequential scan", "err", err)
		}
	}
	return report, nil
}

func (p *Pipeline) loadBudgets(ctx context.Context, s storage.Session, manifest sources.Manifest, report *Report) error {
	for _, path := range manifest[core.CategoryExpenditure] {
		lines, err := readBudgetFile(path)
		if err != nil {
			return err
		}
		if err := s.Budgets().InsertExpenditures(ctx, lines); err != nil {
			return err
		}
		report.Expenditures.Kept += len(lines)
		p.logger.Info("loaded expenditure lines", "file", filepath.Base(path), "rows", len(lines))
	}

	for _, path := range manifest[core.CategoryRevenue] {
		lines, err := readBudgetFile(path)
		if err != nil {
			return err
		}
		if err := s.Budgets().InsertRevenues(ctx, lines); err != nil {
			return err
		}
		report.Revenues.Kept += len(lines)
		p.logger.Info("loaded revenue lines", "file", filepath.Base(path), "rows", len(lines))
	}
	return nil
}

// loadGrants loads every grant call file before snapshotting the valid
// call codes; only then do award files run. A call committed after the
// snapshot would not satisfy award rows, so the ordering is a hard
// precondition, not a runtime check.
func (p *Pipeline) loadGrants(ctx context.Context, s storage.Session, manifest sources.Manifest, report *Report) error {
	for _, path := range manifest[core.CategoryGrantCall] {
		calls, err := readGrantCallFile(path)
		if err != nil {
			return err
		}
		if err := s.Grants().InsertCalls(ctx, calls); err != nil {
			return err
		}
		report.GrantCalls.Kept += len(calls)
		p.logger.Info("loaded grant calls", "file", filepath.Base(path), "rows", len(calls))
	}

	validCalls, err := s.Grants().CallCodes(ctx)
	if err != nil {
		return err
	}

	for _, path := range manifest[core.CategoryGrantAward] {
		awards, stats, err := readGrantAwardFile(path, validCalls)
		if err != nil {
			return err
		}
		if err := s.Grants().InsertAwards(ctx, awards); err != nil {
			return err
		}
		report.GrantAwards.merge(stats)
		p.logger.Info("loaded grant awards",
			"file", filepath.Base(path),
			"kept", stats.Kept,
			"skippedEmptyRef", stats.SkippedEmptyRef,
			"skippedMissingRef", stats.SkippedMissingRef)
	}
	return nil
}

// loadTenders parses, deduplicates and filters tender rows, attaches
// embeddings computed in one batch call per file, and bulk-inserts. The
// vector column is sized from the first observed batch; the width is a
// run-time property of the embedding function, not a schema constant.
func (p *Pipeline) loadTenders(ctx context.Context, s storage.Session, files []string, taxID string, report *Report) error {
	if p.embedder == nil {
		p.logger.Warn("no embedding function configured, tenders are stored with null embeddings")
	}

	reader := newTenderReader(taxID)
	embedder := p.embedder
	columnReady := false

	for _, path := range files {
		tenders, stats, err := reader.readFile(path)
		if err != nil {
			return err
		}

		if embedder != nil {
			texts := make([]string, 0, len(tenders))
			indices := make([]int, 0, len(tenders))
			for i := range tenders {
				if text := tenders[i].EmbeddingText(); text != "" {
					texts = append(texts, text)
					indices = append(indices, i)
				}
			}

			if len(texts) > 0 {
				vectors, err := embedder.EmbedTexts(ctx, texts)
				switch {
				case err != nil:
					p.logger.Warn("embedding function unavailable, storing null embeddings", "err", err)
					embedder = nil
				case len(vectors) != len(texts):
					p.logger.Warn("embedding function returned a short batch, storing null embeddings",
						"want", len(texts), "got", len(vectors))
					embedder = nil
				default:
					dim := len(vectors[0])
					if !columnReady {
						if err := s.Schema().EnsureVectorColumn(ctx, tenderTable, tenderEmbeddingColumn, dim); err != nil {
							return err
						}
						columnReady = true
						report.EmbeddingDim = dim
					}
					for j, i := range indices {
						tenders[i].Embedding = vectors[j]
					}
					report.Embedded += len(indices)
				}
			}
		}

		if err := s.Tenders().InsertTenders(ctx, tenders); err != nil {
			return err
		}
		report.Tenders.merge(stats)
		p.logger.Info("loaded tenders",
			"file", filepath.Base(path),
			"kept", stats.Kept,
			"skippedForeignBody", stats.SkippedForeignBody,
			"skippedDuplicate", stats.SkippedDuplicate,
			"skippedBadID", stats.SkippedBadID)
	}
	return nil
}
