package storage

import "errors"

var (
	// ErrDimensionMismatch indicates a query embedding whose
	// dimensionality differs from the stored vector column width.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrNoEmbeddings indicates the tender table carries no embedding
	// column, so similarity queries cannot run.
	ErrNoEmbeddings = errors.New("no embeddings stored")

	// ErrMalformedVector indicates a vector literal that cannot be
	// parsed.
	ErrMalformedVector = errors.New("malformed vector literal")
)
