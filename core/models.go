package core

import (
	"database/sql"
	"strings"

	"github.com/shopspring/decimal"
)

// Category identifies the class of a source CSV file.
type Category int

const (
	// CategoryExpenditure represents budget expenditure line files.
	CategoryExpenditure Category = iota + 1
	// CategoryRevenue represents budget revenue line files.
	CategoryRevenue
	// CategoryGrantCall represents grant call files.
	CategoryGrantCall
	// CategoryGrantAward represents grant award files.
	CategoryGrantAward
	// CategoryTender represents public tender files.
	CategoryTender
)

// Categories lists all known categories in load order: foreign-key
// producers come before their consumers.
var Categories = []Category{
	CategoryExpenditure,
	CategoryRevenue,
	CategoryGrantCall,
	CategoryGrantAward,
	CategoryTender,
}

func (c Category) String() string {
	switch c {
	case CategoryExpenditure:
		return "expenditure"
	case CategoryRevenue:
		return "revenue"
	case CategoryGrantCall:
		return "grant-call"
	case CategoryGrantAward:
		return "grant-award"
	case CategoryTender:
		return "tender"
	default:
		return "unclassified"
	}
}

// Institution is the single partition entity all fact rows reference.
// It is seeded once per run and immutable afterwards.
type Institution struct {
	Code      string `db:"code"`
	TaxID     string `db:"tax_id"`
	Name      string `db:"display_name"`
	ShortName string `db:"short_name"`
}

// BudgetLine is one expenditure or revenue line of a yearly budget.
// The two entities share a shape; the target table decides which one a
// line is. Lines carry no natural key and get a surrogate id on insert.
type BudgetLine struct {
	InstitutionCode string              `db:"institution_code"`
	FiscalYear      sql.NullInt64       `db:"fiscal_year"`
	Chapter         string              `db:"chapter"`
	Article         string              `db:"article"`
	Concept         string              `db:"concept"`
	InitialCredit   decimal.NullDecimal `db:"initial_credit"`
	Modifications   decimal.NullDecimal `db:"modifications"`
	TotalCredit     decimal.NullDecimal `db:"total_credit"`
}

// GrantCall is a call for grant applications, keyed by its natural
// call code.
type GrantCall struct {
	Code             string       `db:"call_code"`
	InstitutionCode  string       `db:"institution_code"`
	Title            string       `db:"title"`
	ApplicationStart sql.NullTime `db:"application_start"`
	ApplicationEnd   sql.NullTime `db:"application_end"`
	Category         string       `db:"category"`
}

// GrantAward is a grant awarded under a GrantCall. CallCode must
// reference an existing call; award rows never float without one.
// AwardDate is always null: the source publishes no such field.
type GrantAward struct {
	InstitutionCode string              `db:"institution_code"`
	CallCode        string              `db:"call_code"`
	Amount          decimal.NullDecimal `db:"amount"`
	AwardDate       sql.NullTime        `db:"award_date"`
}

// Tender is a public procurement notice, keyed by its natural integer
// identifier. Embedding is nil until the augmentation step computes one;
// rows without semantic text keep a nil embedding rather than a zero
// vector.
type Tender struct {
	Identifier       int64
	BodyTaxID        string
	FirstPublication sql.NullTime
	EstimatedCost    decimal.NullDecimal
	AwardedAmount    decimal.NullDecimal
	Outcome          string
	AwardeeID        string
	Description      string
	Link             string
	EUFundingNote    string
	Embedding        []float32
}

// EmbeddingText returns the text embedded for this tender: the object
// description and the EU funding note, newline-joined and trimmed.
// An empty result means the row has no semantic content.
func (t *Tender) EmbeddingText() string {
	return strings.TrimSpace(t.Description + "\n" + t.EUFundingNote)
}

// TenderMatch is one ranked result of a similarity query.
type TenderMatch struct {
	Identifier  int64   `db:"identifier"`
	Distance    float64 `db:"distance"`
	Description string  `db:"object_description"`
	Link        string  `db:"link"`
}
