package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity
// search. Implementations must return one vector per input, in input
// order, with a dimensionality that is constant for a given instance.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in
	// a batch. Batch processing amortizes model load cost and is the way
	// the pipeline embeds a whole file's rows in one call.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}
