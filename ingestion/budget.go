package ingestion

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/civicdata/transparencia/coerce"
	"github.com/civicdata/transparencia/core"
	"github.com/civicdata/transparencia/sources"
)

// Budget CSV column names as published in the open-data exports.
const (
	colInstitutionCode = "cod_universidad"
	colFiscalYear      = "anio"
	colChapter         = "des_capitulo"
	colArticle         = "des_articulo"
	colConcept         = "des_concepto"
	colInitialCredit   = "credito_inicial"
	colModifications   = "modificaciones"
	colTotalCredit     = "credito_total"
)

// readBudgetFile parses one expenditure or revenue export. The two
// entities share a shape. Unparsable numeric fields become nulls; a
// structurally broken CSV is a loader failure.
func readBudgetFile(path string) ([]core.BudgetLine, error) {
	reader, err := sources.OpenCSV(path)
	if err != nil {
		return nil, err
	}

	var lines []core.BudgetLine
	for {
		row, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		lines = append(lines, core.BudgetLine{
			InstitutionCode: strings.Trim(row.Get(colInstitutionCode), `"`),
			FiscalYear:      coerce.Int(row.Get(colFiscalYear)),
			Chapter:         row.Get(colChapter),
			Article:         row.Get(colArticle),
			Concept:         row.Get(colConcept),
			InitialCredit:   coerce.Decimal(row.Get(colInitialCredit)),
			Modifications:   coerce.Decimal(row.Get(colModifications)),
			TotalCredit:     coerce.Decimal(row.Get(colTotalCredit)),
		})
	}
	return lines, nil
}
