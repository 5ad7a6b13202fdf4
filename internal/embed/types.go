// Package embed generates dense vector embeddings for chunk and query text.
package embed

import (
	"context"
	"time"
)

// Embedding constants shared with the store and search engine.
const (
	// Dimension is the global embedding dimension. Every vector produced or
	// accepted by the engine must match it exactly; a mismatch is a hard
	// error, never truncated or padded.
	Dimension = 1536

	// MaxBatchSize is the maximum texts per EmbedBatch call. Exceeding it is
	// a caller error, not silently split.
	MaxBatchSize = 100

	// DefaultModel is the default embedding model identifier.
	DefaultModel = "text-embedding-3-large"

	// DefaultTimeout bounds a single provider request.
	DefaultTimeout = 60 * time.Second
)

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed generates an embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, preserving input
	// order and count exactly. Batches above MaxBatchSize are rejected.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding dimension.
	Dimensions() int

	// ModelName returns the model identifier.
	ModelName() string

	// Close releases the provider connection. Must be called on every exit
	// path once the embedder is no longer needed.
	Close() error
}
