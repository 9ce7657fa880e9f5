package ingestion

import (
	"context"
	"errors"
	"math"
	"sort"

	"github.com/civicdata/transparencia/core"
	"github.com/civicdata/transparencia/storage"
)

// fakeState is the committed table contents of a fakeStore.
type fakeState struct {
	institutions []core.Institution
	expenditures []core.BudgetLine
	revenues     []core.BudgetLine
	calls        []core.GrantCall
	awards       []core.GrantAward
	tenders      []core.Tender
	vectorWidth  int
	recreates    int
}

func (s fakeState) clone() fakeState {
	out := s
	out.institutions = append([]core.Institution(nil), s.institutions...)
	out.expenditures = append([]core.BudgetLine(nil), s.expenditures...)
	out.revenues = append([]core.BudgetLine(nil), s.revenues...)
	out.calls = append([]core.GrantCall(nil), s.calls...)
	out.awards = append([]core.GrantAward(nil), s.awards...)
	out.tenders = append([]core.Tender(nil), s.tenders...)
	return out
}

// fakeStore is an in-memory storage.Store with transactional
// copy-on-write semantics: a failed run leaves committed state intact.
type fakeStore struct {
	state fakeState

	failTenderInsert error
	indexErr         error
	indexBuilds      int
}

var _ storage.Store = (*fakeStore)(nil)

func (f *fakeStore) RunInTransaction(ctx context.Context, fn func(storage.Session) error) error {
	staged := f.state.clone()
	if err := fn(&fakeSession{state: &staged, store: f}); err != nil {
		return err
	}
	f.state = staged
	return nil
}

func (f *fakeStore) EnsureTenderIndex(ctx context.Context) error {
	if f.indexErr != nil {
		return f.indexErr
	}
	f.indexBuilds++
	return nil
}

func (f *fakeStore) EmbeddingWidth(ctx context.Context) (int, error) {
	return f.state.vectorWidth, nil
}

func (f *fakeStore) SimilarTenders(ctx context.Context, vector []float32, limit int) ([]core.TenderMatch, error) {
	var matches []core.TenderMatch
	for _, t := range f.state.tenders {
		if t.Embedding == nil {
			continue
		}
		var sum float64
		for i := range vector {
			d := float64(vector[i]) - float64(t.Embedding[i])
			sum += d * d
		}
		matches = append(matches, core.TenderMatch{
			Identifier:  t.Identifier,
			Distance:    math.Sqrt(sum),
			Description: t.Description,
			Link:        t.Link,
		})
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Distance < matches[j].Distance })
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (f *fakeStore) Close() error { return nil }

type fakeSession struct {
	state *fakeState
	store *fakeStore
}

var _ storage.Session = (*fakeSession)(nil)

func (s *fakeSession) Schema() storage.Schema                      { return s }
func (s *fakeSession) Institutions() storage.InstitutionRepository { return s }
func (s *fakeSession) Budgets() storage.BudgetRepository           { return s }
func (s *fakeSession) Grants() storage.GrantRepository             { return s }
func (s *fakeSession) Tenders() storage.TenderRepository           { return s }

func (s *fakeSession) Recreate(ctx context.Context) error {
	s.state.institutions = nil
	s.state.expenditures = nil
	s.state.revenues = nil
	s.state.calls = nil
	s.state.awards = nil
	s.state.tenders = nil
	s.state.vectorWidth = 0
	s.state.recreates++
	return nil
}

func (s *fakeSession) EnsureVectorColumn(ctx context.Context, table, column string, width int) error {
	if s.state.vectorWidth != 0 && s.state.vectorWidth != width {
		// Destructive reconciliation: the column is replaced, stored
		// embeddings are gone.
		for i := range s.state.tenders {
			s.state.tenders[i].Embedding = nil
		}
	}
	s.state.vectorWidth = width
	return nil
}

func (s *fakeSession) VectorColumnWidth(ctx context.Context, table, column string) (int, error) {
	return s.state.vectorWidth, nil
}

func (s *fakeSession) Seed(ctx context.Context, institution core.Institution) error {
	s.state.institutions = append(s.state.institutions, institution)
	return nil
}

func (s *fakeSession) InsertExpenditures(ctx context.Context, lines []core.BudgetLine) error {
	s.state.expenditures = append(s.state.expenditures, lines...)
	return nil
}

func (s *fakeSession) InsertRevenues(ctx context.Context, lines []core.BudgetLine) error {
	s.state.revenues = append(s.state.revenues, lines...)
	return nil
}

func (s *fakeSession) InsertCalls(ctx context.Context, calls []core.GrantCall) error {
	existing := make(map[string]struct{}, len(s.state.calls))
	for _, c := range s.state.calls {
		existing[c.Code] = struct{}{}
	}
	for _, c := range calls {
		if _, dup := existing[c.Code]; dup {
			continue // first writer wins
		}
		existing[c.Code] = struct{}{}
		s.state.calls = append(s.state.calls, c)
	}
	return nil
}

func (s *fakeSession) CallCodes(ctx context.Context) (map[string]struct{}, error) {
	codes := make(map[string]struct{}, len(s.state.calls))
	for _, c := range s.state.calls {
		codes[c.Code] = struct{}{}
	}
	return codes, nil
}

func (s *fakeSession) InsertAwards(ctx context.Context, awards []core.GrantAward) error {
	s.state.awards = append(s.state.awards, awards...)
	return nil
}

func (s *fakeSession) InsertTenders(ctx context.Context, tenders []core.Tender) error {
	if s.store.failTenderInsert != nil {
		return s.store.failTenderInsert
	}
	s.state.tenders = append(s.state.tenders, tenders...)
	return nil
}

var errInsertFailed = errors.New("insert failed")
