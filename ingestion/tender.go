package ingestion

import (
	"errors"
	"fmt"
	"io"

	"github.com/civicdata/transparencia/coerce"
	"github.com/civicdata/transparencia/core"
	"github.com/civicdata/transparencia/sources"
)

// Tender CSV column names. The export publishes one row per tender or
// lot, so a tender with several lots repeats its identifier.
const (
	colTenderID        = "identificador"
	colTenderBodyTaxID = "nif_oc"
	colTenderFirstPub  = "primera_publicacion"
	colTenderEstimated = "presupuesto_base_sin_impuestos_licitacion_o_lote"
	colTenderAwarded   = "importe_adjudicacion_sin_impuestos_licitacion_o_lote"
	colTenderOutcome   = "resultado_licitacion_o_lote"
	colTenderAwardee   = "identificador_adjudicatario_de_la_licitacion_o_lote"
	colTenderObject    = "objeto_licitacion_o_lote"
	colTenderLink      = "link_licitacion"
	colTenderEUNote    = "descripcion_de_la_financiacion_europea"
)

// tenderReader keeps per-run state across tender files: the set of seen
// identifiers (first occurrence wins, later lots are dropped) and the
// tax id of the institution of interest (rows of other contracting
// bodies are excluded entirely).
type tenderReader struct {
	taxID string
	seen  map[int64]struct{}
}

func newTenderReader(taxID string) *tenderReader {
	return &tenderReader{taxID: taxID, seen: make(map[int64]struct{})}
}

func (r *tenderReader) readFile(path string) ([]core.Tender, Stats, error) {
	reader, err := sources.OpenCSV(path)
	if err != nil {
		return nil, Stats{}, err
	}

	var tenders []core.Tender
	var stats Stats
	for {
		row, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("read %s: %w", path, err)
		}

		if row.Get(colTenderBodyTaxID) != r.taxID {
			stats.SkippedForeignBody++
			continue
		}
		id := coerce.Int(row.Get(colTenderID))
		if !id.Valid {
			// An unparsable identifier cannot serve as a primary key.
			stats.SkippedBadID++
			continue
		}
		if _, dup := r.seen[id.Int64]; dup {
			stats.SkippedDuplicate++
			continue
		}
		r.seen[id.Int64] = struct{}{}

		tenders = append(tenders, core.Tender{
			Identifier:       id.Int64,
			BodyTaxID:        row.Get(colTenderBodyTaxID),
			FirstPublication: coerce.Timestamp(row.Get(colTenderFirstPub)),
			EstimatedCost:    coerce.Decimal(row.Get(colTenderEstimated)),
			AwardedAmount:    coerce.Decimal(row.Get(colTenderAwarded)),
			Outcome:          row.Get(colTenderOutcome),
			AwardeeID:        row.Get(colTenderAwardee),
			Description:      row.Get(colTenderObject),
			Link:             row.Get(colTenderLink),
			EUFundingNote:    row.Get(colTenderEUNote),
		})
		stats.Kept++
	}
	return tenders, stats, nil
}
