package search

import "errors"

var (
	// ErrStoreRequired is returned when a tender store is not provided.
	ErrStoreRequired = errors.New("store required")

	// ErrEmbedderRequired is returned when an embedding function is not
	// provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrInvalidLimit is returned for a non-positive result limit.
	ErrInvalidLimit = errors.New("limit must be positive")
)
