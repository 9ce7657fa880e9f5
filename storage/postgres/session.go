package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/civicdata/transparencia/core"
	"github.com/civicdata/transparencia/storage"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

var _ storage.Session = (*session)(nil)

// session is the transactional view handed to a pipeline run. A single
// type implements every repository; the interface methods just narrow
// the view.
type session struct {
	tx     *sqlx.Tx
	logger *slog.Logger
}

func (s *session) Schema() storage.Schema                      { return s }
func (s *session) Institutions() storage.InstitutionRepository { return s }
func (s *session) Budgets() storage.BudgetRepository           { return s }
func (s *session) Grants() storage.GrantRepository             { return s }
func (s *session) Tenders() storage.TenderRepository           { return s }

// Seed inserts the institution partition row.
func (s *session) Seed(ctx context.Context, institution core.Institution) error {
	const query = `
		INSERT INTO institution (code, tax_id, display_name, short_name)
		VALUES (:code, :tax_id, :display_name, :short_name)`

	if _, err := s.tx.NamedExecContext(ctx, query, institution); err != nil {
		return fmt.Errorf("seed institution: %w", err)
	}
	return nil
}

func (s *session) InsertExpenditures(ctx context.Context, lines []core.BudgetLine) error {
	return s.insertBudgetLines(ctx, "expenditure_line", lines)
}

func (s *session) InsertRevenues(ctx context.Context, lines []core.BudgetLine) error {
	return s.insertBudgetLines(ctx, "revenue_line", lines)
}

func (s *session) insertBudgetLines(ctx context.Context, table string, lines []core.BudgetLine) error {
	if len(lines) == 0 {
		return nil
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (
			institution_code, fiscal_year, chapter, article, concept,
			initial_credit, modifications, total_credit
		) VALUES (
			:institution_code, :fiscal_year, :chapter, :article, :concept,
			:initial_credit, :modifications, :total_credit
		)`, table)

	if _, err := s.tx.NamedExecContext(ctx, query, lines); err != nil {
		return fmt.Errorf("insert %s: %w", table, err)
	}
	return nil
}

// InsertCalls bulk-inserts grant calls; a repeated natural key is
// dropped so the first writer wins.
func (s *session) InsertCalls(ctx context.Context, calls []core.GrantCall) error {
	if len(calls) == 0 {
		return nil
	}
	const query = `
		INSERT INTO grant_call (
			call_code, institution_code, title,
			application_start, application_end, category
		) VALUES (
			:call_code, :institution_code, :title,
			:application_start, :application_end, :category
		)
		ON CONFLICT (call_code) DO NOTHING`

	if _, err := s.tx.NamedExecContext(ctx, query, calls); err != nil {
		return fmt.Errorf("insert grant_call: %w", err)
	}
	return nil
}

// CallCodes snapshots the committed grant call natural keys.
func (s *session) CallCodes(ctx context.Context) (map[string]struct{}, error) {
	var codes []string
	if err := s.tx.SelectContext(ctx, &codes, `SELECT call_code FROM grant_call`); err != nil {
		return nil, fmt.Errorf("select call codes: %w", err)
	}
	set := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		set[code] = struct{}{}
	}
	return set, nil
}

func (s *session) InsertAwards(ctx context.Context, awards []core.GrantAward) error {
	if len(awards) == 0 {
		return nil
	}
	const query = `
		INSERT INTO grant_award (institution_code, call_code, amount, award_date)
		VALUES (:institution_code, :call_code, :amount, :award_date)`

	if _, err := s.tx.NamedExecContext(ctx, query, awards); err != nil {
		return fmt.Errorf("insert grant_award: %w", err)
	}
	return nil
}

// tenderRow is the insert shape of a tender. The embedding travels as
// its textual vector literal; a null marks a row with no semantic
// content, never a zero vector.
type tenderRow struct {
	Identifier       int64               `db:"identifier"`
	BodyTaxID        string              `db:"body_tax_id"`
	FirstPublication sql.NullTime        `db:"first_publication"`
	EstimatedCost    decimal.NullDecimal `db:"estimated_cost"`
	AwardedAmount    decimal.NullDecimal `db:"awarded_amount"`
	Outcome          string              `db:"outcome"`
	AwardeeID        string              `db:"awardee_id"`
	Description      string              `db:"object_description"`
	Link             string              `db:"link"`
	EUFundingNote    string              `db:"eu_funding_note"`
	Embedding        sql.NullString      `db:"embedding"`
}

func (s *session) InsertTenders(ctx context.Context, tenders []core.Tender) error {
	if len(tenders) == 0 {
		return nil
	}

	rows := make([]tenderRow, len(tenders))
	withEmbedding := false
	for i, t := range tenders {
		rows[i] = tenderRow{
			Identifier:       t.Identifier,
			BodyTaxID:        t.BodyTaxID,
			FirstPublication: t.FirstPublication,
			EstimatedCost:    t.EstimatedCost,
			AwardedAmount:    t.AwardedAmount,
			Outcome:          t.Outcome,
			AwardeeID:        t.AwardeeID,
			Description:      t.Description,
			Link:             t.Link,
			EUFundingNote:    t.EUFundingNote,
		}
		if t.Embedding != nil {
			rows[i].Embedding = sql.NullString{String: storage.Literal(t.Embedding), Valid: true}
			withEmbedding = true
		}
	}

	query := `
		INSERT INTO tender (
			identifier, body_tax_id, first_publication, estimated_cost,
			awarded_amount, outcome, awardee_id, object_description, link,
			eu_funding_note
		) VALUES (
			:identifier, :body_tax_id, :first_publication, :estimated_cost,
			:awarded_amount, :outcome, :awardee_id, :object_description, :link,
			:eu_funding_note
		)`
	if withEmbedding {
		query = `
		INSERT INTO tender (
			identifier, body_tax_id, first_publication, estimated_cost,
			awarded_amount, outcome, awardee_id, object_description, link,
			eu_funding_note, embedding
		) VALUES (
			:identifier, :body_tax_id, :first_publication, :estimated_cost,
			:awarded_amount, :outcome, :awardee_id, :object_description, :link,
			:eu_funding_note, CAST(:embedding AS vector)
		)`
	}

	if _, err := s.tx.NamedExecContext(ctx, query, rows); err != nil {
		return fmt.Errorf("insert tender: %w", err)
	}
	return nil
}
