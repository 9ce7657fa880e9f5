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

// Grant CSV column names.
const (
	colCallCode      = "cod_convocatoria"
	colCallTitle     = "nombre_convocatoria"
	colCallStart     = "fecha_inicio_solicitudes"
	colCallEnd       = "fecha_fin_solicitudes"
	colCallCategory  = "des_categoria"
	colAwardCallCode = "cod_convocatoria_ayuda"
	colAwardAmount   = "cuantia_total"
)

// readGrantCallFile parses one grant call export. Natural-key
// duplicates are not filtered here: the store drops them on insert,
// first writer wins.
func readGrantCallFile(path string) ([]core.GrantCall, error) {
	reader, err := sources.OpenCSV(path)
	if err != nil {
		return nil, err
	}

	var calls []core.GrantCall
	for {
		row, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		calls = append(calls, core.GrantCall{
			Code:             row.Get(colCallCode),
			InstitutionCode:  strings.Trim(row.Get(colInstitutionCode), `"`),
			Title:            row.Get(colCallTitle),
			ApplicationStart: coerce.DateCompact(row.Get(colCallStart)),
			ApplicationEnd:   coerce.DateCompact(row.Get(colCallEnd)),
			Category:         row.Get(colCallCategory),
		})
	}
	return calls, nil
}

// readGrantAwardFile parses one grant award export, keeping only rows
// whose call reference is non-empty and present in validCalls. The
// source publishes no award date, so AwardDate stays null. Excluded
// rows are counted, split by reason.
func readGrantAwardFile(path string, validCalls map[string]struct{}) ([]core.GrantAward, Stats, error) {
	reader, err := sources.OpenCSV(path)
	if err != nil {
		return nil, Stats{}, err
	}

	var awards []core.GrantAward
	var stats Stats
	for {
		row, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("read %s: %w", path, err)
		}

		callCode := row.Get(colAwardCallCode)
		if callCode == "" {
			stats.SkippedEmptyRef++
			continue
		}
		if _, ok := validCalls[callCode]; !ok {
			stats.SkippedMissingRef++
			continue
		}

		awards = append(awards, core.GrantAward{
			InstitutionCode: strings.Trim(row.Get(colInstitutionCode), `"`),
			CallCode:        callCode,
			Amount:          coerce.Decimal(row.Get(colAwardAmount)),
		})
		stats.Kept++
	}
	return awards, stats, nil
}
