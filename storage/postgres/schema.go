package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// schemaSQL recreates the whole star: children are dropped before their
// parents, parents created before their children. The tender embedding
// column is deliberately absent: its width is only known after the
// embedding step runs, so EnsureVectorColumn adds it later.
const schemaSQL = `
DROP TABLE IF EXISTS grant_award;
DROP TABLE IF EXISTS grant_call;
DROP TABLE IF EXISTS tender;
DROP TABLE IF EXISTS expenditure_line;
DROP TABLE IF EXISTS revenue_line;
DROP TABLE IF EXISTS institution;

CREATE TABLE institution (
    code VARCHAR(10) PRIMARY KEY,
    tax_id VARCHAR(15) UNIQUE NOT NULL,
    display_name VARCHAR(255),
    short_name VARCHAR(50)
);

CREATE TABLE expenditure_line (
    id SERIAL PRIMARY KEY,
    institution_code VARCHAR(10) REFERENCES institution(code),
    fiscal_year INT,
    chapter VARCHAR(255),
    article VARCHAR(255),
    concept VARCHAR(255),
    initial_credit DECIMAL(19,2),
    modifications DECIMAL(19,2),
    total_credit DECIMAL(19,2)
);

CREATE TABLE revenue_line (
    id SERIAL PRIMARY KEY,
    institution_code VARCHAR(10) REFERENCES institution(code),
    fiscal_year INT,
    chapter VARCHAR(255),
    article VARCHAR(255),
    concept VARCHAR(255),
    initial_credit DECIMAL(19,2),
    modifications DECIMAL(19,2),
    total_credit DECIMAL(19,2)
);

CREATE TABLE grant_call (
    call_code VARCHAR(255) PRIMARY KEY,
    institution_code VARCHAR(10) REFERENCES institution(code),
    title TEXT,
    application_start DATE,
    application_end DATE,
    category VARCHAR(255)
);

CREATE TABLE grant_award (
    id SERIAL PRIMARY KEY,
    institution_code VARCHAR(10) REFERENCES institution(code),
    call_code VARCHAR(255) NOT NULL REFERENCES grant_call(call_code),
    amount DECIMAL(19,2),
    award_date DATE
);

CREATE TABLE tender (
    identifier BIGINT PRIMARY KEY,
    body_tax_id VARCHAR(15) REFERENCES institution(tax_id),
    first_publication TIMESTAMP,
    estimated_cost DECIMAL(19,2),
    awarded_amount DECIMAL(19,2),
    outcome VARCHAR(100),
    awardee_id VARCHAR(255),
    object_description TEXT,
    link TEXT,
    eu_funding_note TEXT
);
`

// splitStatements splits a SQL bundle into individual statements.
func splitStatements(bundle string) []string {
	parts := strings.Split(bundle, ";")
	statements := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		statements = append(statements, strings.TrimSpace(part))
	}
	return statements
}

// Recreate drops and recreates all tables.
func (s *session) Recreate(ctx context.Context) error {
	for _, stmt := range splitStatements(schemaSQL) {
		if _, err := s.tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("execute ddl: %w", err)
		}
	}
	return nil
}

// EnsureVectorColumn guarantees table has a vector column at the given
// width. A column at a different width is dropped and re-added; the data
// it held is lost, which is the accepted cost of dimension drift.
func (s *session) EnsureVectorColumn(ctx context.Context, table, column string, width int) error {
	if _, err := s.tx.ExecContext(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return fmt.Errorf("create vector extension: %w", err)
	}

	var reg sql.NullString
	if err := sqlx.GetContext(ctx, s.tx, &reg, `SELECT to_regclass($1)::text`, table); err != nil {
		return fmt.Errorf("check table %s: %w", table, err)
	}
	if !reg.Valid {
		stmt := fmt.Sprintf("CREATE TABLE %s (%s vector(%d))", table, column, width)
		if _, err := s.tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create table %s: %w", table, err)
		}
		return nil
	}

	existing, err := vectorColumnWidth(ctx, s.tx, table, column)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.addVectorColumn(ctx, table, column, width)
		}
		return err
	}
	if existing == width {
		return nil
	}

	s.logger.Warn("vector column width differs, replacing column (stored embeddings are lost)",
		"table", table, "column", column, "existing", existing, "requested", width)
	stmt := fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", table, column)
	if _, err := s.tx.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("drop column %s.%s: %w", table, column, err)
	}
	return s.addVectorColumn(ctx, table, column, width)
}

func (s *session) addVectorColumn(ctx context.Context, table, column string, width int) error {
	stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s vector(%d)", table, column, width)
	if _, err := s.tx.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("add column %s.%s: %w", table, column, err)
	}
	return nil
}

// VectorColumnWidth reports the width of an existing vector column, or
// 0 when the table or column is absent.
func (s *session) VectorColumnWidth(ctx context.Context, table, column string) (int, error) {
	width, err := vectorColumnWidth(ctx, s.tx, table, column)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return width, err
}

// vectorColumnWidth reads the column's type modifier from pg_attribute.
// For the pgvector type the modifier is the dimension itself. Returns
// sql.ErrNoRows when the table or column does not exist.
func vectorColumnWidth(ctx context.Context, q sqlx.QueryerContext, table, column string) (int, error) {
	const query = `
		SELECT atttypmod FROM pg_attribute
		WHERE attrelid = to_regclass($1) AND attname = $2 AND NOT attisdropped`

	var typmod int
	if err := sqlx.GetContext(ctx, q, &typmod, query, table, column); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, err
		}
		return 0, fmt.Errorf("inspect column %s.%s: %w", table, column, err)
	}
	if typmod <= 0 {
		// Unconstrained vector column; no usable width.
		return 0, nil
	}
	return typmod, nil
}
