// Package ai defines the embedding boundary of the pipeline.
//
// The embedding model is a black box behind the Embedder interface: text
// in, fixed-length vector out. The vector dimensionality is a run-time
// property of whichever model instance answers, constant within one
// instantiation but unknown until the first call returns. Everything
// downstream (vector column width, index, query path) adapts to it.
package ai
