package ingestion

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicdata/transparencia/ai/mock"
	"github.com/civicdata/transparencia/core"
	"github.com/civicdata/transparencia/sources"
)

var testInstitution = core.Institution{
	Code:      "023",
	TaxID:     "Q2818013A",
	Name:      "Universidad Autónoma de Madrid",
	ShortName: "UAM",
}

func writeFixture(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

// writeFixtures lays out one CSV per category with the known data
// defects: duplicate tender lots, a foreign contracting body, an
// unparsable identifier, dangling and empty grant call references, and
// a tender without any semantic text.
func writeFixtures(t *testing.T, dir string) {
	t.Helper()

	writeFixture(t, dir, "gastos-2024.csv",
		`cod_universidad,anio,des_capitulo,des_articulo,des_concepto,credito_inicial,modificaciones,credito_total
"023",2024,Gastos de personal,Funcionarios,Retribuciones básicas,"1.234,56","0,00","1.234,56"
"023",2024,Gastos corrientes,Material,Material de oficina,"500,00","-100,00","400,00"
`)

	writeFixture(t, dir, "ingresos-2024.csv",
		`cod_universidad,anio,des_capitulo,des_articulo,des_concepto,credito_inicial,modificaciones,credito_total
"023",2024,Transferencias corrientes,De la Comunidad,Subvención nominativa,"2.000.000,00","0,00","2.000.000,00"
`)

	writeFixture(t, dir, "conv-becas.csv",
		`cod_convocatoria,cod_universidad,nombre_convocatoria,fecha_inicio_solicitudes,fecha_fin_solicitudes,des_categoria
CONV-1,"023",Becas de doctorado,20240101,20240301,Investigación
CONV-2,"023",Ayudas de movilidad,20240215,,Movilidad
`)

	writeFixture(t, dir, "ayudas-2024.csv",
		`cod_universidad,cod_convocatoria_ayuda,cuantia_total
"023",CONV-1,"12.000,00"
"023",,"500,00"
"023",CONV-9,"1,00"
"023",CONV-2,"3.500,50"
`)

	writeFixture(t, dir, "licitacion-2024.csv",
		`identificador,nif_oc,primera_publicacion,presupuesto_base_sin_impuestos_licitacion_o_lote,importe_adjudicacion_sin_impuestos_licitacion_o_lote,resultado_licitacion_o_lote,identificador_adjudicatario_de_la_licitacion_o_lote,objeto_licitacion_o_lote,link_licitacion,descripcion_de_la_financiacion_europea
1,Q2818013A,2024-01-15 10:30:00,"100.000,00","90.000,00",Adjudicada,B11111111,Suministro de equipos informáticos,https://example.org/t/1,Financiado por NextGenerationEU
2,Q2818013A,2024-02-01 09:00:00,"25.000,00",,Desierta,,Servicio de limpieza de laboratorios,https://example.org/t/2,
2,Q2818013A,2024-02-01 09:00:00,"25.000,00",,Desierta,,Servicio de limpieza de laboratorios,https://example.org/t/2,
3,OTRO,2024-03-10 12:00:00,"1,00",,Adjudicada,,Obra ajena,https://example.org/t/3,
X,Q2818013A,2024-03-11 12:00:00,"1,00",,Adjudicada,,Identificador roto,https://example.org/t/x,
4,Q2818013A,2024-04-02 08:15:00,"5.000,00",,Anunciada,,,https://example.org/t/4,
`)
}

func newTestPipeline(t *testing.T, store *fakeStore, opts ...Option) *Pipeline {
	t.Helper()
	p, err := NewPipeline(store, opts...)
	require.NoError(t, err)
	return p
}

func TestNewPipelineRequiresStore(t *testing.T) {
	_, err := NewPipeline(nil)
	assert.ErrorIs(t, err, ErrStoreRequired)
}

func TestPipelineRunFullLoad(t *testing.T) {
	dir := t.TempDir()
	writeFixtures(t, dir)

	store := &fakeStore{}
	p := newTestPipeline(t, store, WithEmbedder(mock.NewMockEmbedderWithDim(8)))

	report, err := p.Run(context.Background(), dir, testInstitution)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Expenditures.Kept)
	assert.Equal(t, 1, report.Revenues.Kept)
	assert.Equal(t, 2, report.GrantCalls.Kept)
	assert.Equal(t, 2, report.GrantAwards.Kept)
	assert.Equal(t, 1, report.GrantAwards.SkippedEmptyRef)
	assert.Equal(t, 1, report.GrantAwards.SkippedMissingRef)
	assert.Equal(t, 3, report.Tenders.Kept)
	assert.Equal(t, 1, report.Tenders.SkippedDuplicate)
	assert.Equal(t, 1, report.Tenders.SkippedForeignBody)
	assert.Equal(t, 1, report.Tenders.SkippedBadID)
	assert.Equal(t, 8, report.EmbeddingDim)
	assert.Equal(t, 2, report.Embedded)

	require.Len(t, store.state.institutions, 1)
	assert.Equal(t, "Q2818013A", store.state.institutions[0].TaxID)

	require.Len(t, store.state.expenditures, 2)
	require.True(t, store.state.expenditures[0].InitialCredit.Valid)
	assert.True(t, store.state.expenditures[0].InitialCredit.Decimal.Equal(decimal.RequireFromString("1234.56")))
	assert.Equal(t, "023", store.state.expenditures[0].InstitutionCode)
	assert.Len(t, store.state.revenues, 1)

	require.Len(t, store.state.calls, 2)
	assert.Equal(t, "CONV-1", store.state.calls[0].Code)
	assert.True(t, store.state.calls[0].ApplicationStart.Valid)
	assert.False(t, store.state.calls[1].ApplicationEnd.Valid)

	require.Len(t, store.state.awards, 2)
	assert.Equal(t, "CONV-1", store.state.awards[0].CallCode)
	assert.False(t, store.state.awards[0].AwardDate.Valid)

	require.Len(t, store.state.tenders, 3)
	byID := make(map[int64]core.Tender, len(store.state.tenders))
	for _, tender := range store.state.tenders {
		byID[tender.Identifier] = tender
	}
	require.Contains(t, byID, int64(1))
	require.Contains(t, byID, int64(2))
	require.Contains(t, byID, int64(4))
	assert.Len(t, byID[1].Embedding, 8)
	assert.Len(t, byID[2].Embedding, 8)
	assert.Nil(t, byID[4].Embedding, "a tender without semantic text stores a null embedding")
	assert.True(t, byID[1].EstimatedCost.Decimal.Equal(decimal.RequireFromString("100000")))
	assert.False(t, byID[2].AwardedAmount.Valid)

	assert.Equal(t, 8, store.state.vectorWidth)
	assert.Equal(t, 1, store.indexBuilds)
}

func TestPipelineRunIsRepeatable(t *testing.T) {
	dir := t.TempDir()
	writeFixtures(t, dir)

	store := &fakeStore{}
	p := newTestPipeline(t, store, WithEmbedder(mock.NewMockEmbedderWithDim(8)))

	first, err := p.Run(context.Background(), dir, testInstitution)
	require.NoError(t, err)
	second, err := p.Run(context.Background(), dir, testInstitution)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, store.state.tenders, 3, "full reload must not accumulate rows")
	assert.Len(t, store.state.awards, 2)
	assert.Equal(t, 2, store.state.recreates)
}

func TestPipelineRunMissingDir(t *testing.T) {
	store := &fakeStore{}
	p := newTestPipeline(t, store)

	_, err := p.Run(context.Background(), filepath.Join(t.TempDir(), "nope"), testInstitution)
	assert.ErrorIs(t, err, sources.ErrDirNotFound)
}

func TestPipelineRunMissingCategory(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "gastos-2024.csv",
		"cod_universidad,anio,des_capitulo,des_articulo,des_concepto,credito_inicial,modificaciones,credito_total\n")

	store := &fakeStore{}
	p := newTestPipeline(t, store)

	_, err := p.Run(context.Background(), dir, testInstitution)
	require.ErrorIs(t, err, ErrMissingSources)
	assert.Empty(t, store.state.institutions, "nothing may be written before validation passes")
}

func TestPipelineRunWithoutEmbedder(t *testing.T) {
	dir := t.TempDir()
	writeFixtures(t, dir)

	store := &fakeStore{}
	p := newTestPipeline(t, store)

	report, err := p.Run(context.Background(), dir, testInstitution)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Tenders.Kept)
	assert.Equal(t, 0, report.Embedded)
	assert.Equal(t, 0, report.EmbeddingDim)
	for _, tender := range store.state.tenders {
		assert.Nil(t, tender.Embedding)
	}
	assert.Equal(t, 0, store.state.vectorWidth)
	assert.Equal(t, 0, store.indexBuilds, "no index without embeddings")
}

func TestPipelineRunEmbedderFailureDegrades(t *testing.T) {
	dir := t.TempDir()
	writeFixtures(t, dir)

	embedder := mock.NewMockEmbedderWithDim(8)
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, assert.AnError
	}

	store := &fakeStore{}
	p := newTestPipeline(t, store, WithEmbedder(embedder))

	report, err := p.Run(context.Background(), dir, testInstitution)
	require.NoError(t, err, "an unreachable embedding service must not fail the load")

	assert.Equal(t, 3, report.Tenders.Kept)
	assert.Equal(t, 0, report.Embedded)
	for _, tender := range store.state.tenders {
		assert.Nil(t, tender.Embedding)
	}
}

func TestPipelineRunRollsBackOnInsertError(t *testing.T) {
	dir := t.TempDir()
	writeFixtures(t, dir)

	store := &fakeStore{}
	p := newTestPipeline(t, store, WithEmbedder(mock.NewMockEmbedderWithDim(8)))

	_, err := p.Run(context.Background(), dir, testInstitution)
	require.NoError(t, err)

	store.failTenderInsert = errInsertFailed
	_, err = p.Run(context.Background(), dir, testInstitution)
	require.ErrorIs(t, err, errInsertFailed)

	assert.Len(t, store.state.tenders, 3, "committed rows of the previous run must survive a failed reload")
	assert.Len(t, store.state.expenditures, 2)
	assert.Equal(t, 1, store.state.recreates)
}

func TestPipelineRunIndexFailureIsNonFatal(t *testing.T) {
	dir := t.TempDir()
	writeFixtures(t, dir)

	store := &fakeStore{indexErr: assert.AnError}
	p := newTestPipeline(t, store, WithEmbedder(mock.NewMockEmbedderWithDim(8)))

	report, err := p.Run(context.Background(), dir, testInstitution)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Embedded)
	assert.Len(t, store.state.tenders, 3)
}

func TestPipelineRunAdoptsNewEmbeddingWidth(t *testing.T) {
	dir := t.TempDir()
	writeFixtures(t, dir)

	store := &fakeStore{}

	p, err := NewPipeline(store, WithEmbedder(mock.NewMockEmbedderWithDim(8)))
	require.NoError(t, err)
	_, err = p.Run(context.Background(), dir, testInstitution)
	require.NoError(t, err)
	assert.Equal(t, 8, store.state.vectorWidth)

	p, err = NewPipeline(store, WithEmbedder(mock.NewMockEmbedderWithDim(4)))
	require.NoError(t, err)
	report, err := p.Run(context.Background(), dir, testInstitution)
	require.NoError(t, err)

	assert.Equal(t, 4, report.EmbeddingDim)
	assert.Equal(t, 4, store.state.vectorWidth)
	for _, tender := range store.state.tenders {
		if tender.Embedding != nil {
			assert.Len(t, tender.Embedding, 4)
		}
	}
}
