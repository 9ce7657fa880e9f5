package ingestion

// Stats counts how a loader disposed of its source rows. Excluded rows
// are recovered data errors, never failures; the counts exist so runs
// stay observable.
type Stats struct {
	// Kept is the number of rows inserted.
	Kept int
	// SkippedEmptyRef counts rows excluded for an empty foreign-key
	// reference.
	SkippedEmptyRef int
	// SkippedMissingRef counts rows excluded for a reference that
	// resolves to no parent row.
	SkippedMissingRef int
	// SkippedDuplicate counts rows excluded as repeats of an already
	// seen natural key.
	SkippedDuplicate int
	// SkippedForeignBody counts rows excluded for belonging to a
	// contracting body other than the target institution.
	SkippedForeignBody int
	// SkippedBadID counts rows excluded because their natural key failed
	// integer coercion.
	SkippedBadID int
}

func (s *Stats) merge(other Stats) {
	s.Kept += other.Kept
	s.SkippedEmptyRef += other.SkippedEmptyRef
	s.SkippedMissingRef += other.SkippedMissingRef
	s.SkippedDuplicate += other.SkippedDuplicate
	s.SkippedForeignBody += other.SkippedForeignBody
	s.SkippedBadID += other.SkippedBadID
}

// Report aggregates per-entity load statistics for one pipeline run.
type Report struct {
	Expenditures Stats
	Revenues     Stats
	GrantCalls   Stats
	GrantAwards  Stats
	Tenders      Stats

	// EmbeddingDim is the observed embedding dimensionality, 0 when no
	// embeddings were computed.
	EmbeddingDim int
	// Embedded is the number of tender rows that received an embedding.
	Embedded int
}
