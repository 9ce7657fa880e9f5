package ingestion

import "errors"

var (
	// ErrStoreRequired is returned when a store is not provided.
	ErrStoreRequired = errors.New("store required")

	// ErrMissingSources is returned when a required entity category has
	// no source file in the discovered manifest.
	ErrMissingSources = errors.New("missing source files")
)
