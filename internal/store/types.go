// Package store persists chunks and serves sparse (full-text) and dense
// (vector) retrieval over them. SQLite is the source of truth for chunk
// metadata and embeddings; the Bleve and HNSW indexes are derived from it.
package store

import (
	"context"
	"time"
)

// Chunk is a stored retrieval unit with its embedding and source metadata.
type Chunk struct {
	ID          string    // UUID assigned at ingestion
	Domain      string    // Knowledge domain the chunk belongs to
	Content     string    // Chunk text
	OrderIndex  int       // Position within the source document, 0-based
	Header      string    // Section header the chunk came from
	HeaderLevel int       // Heading level of the header (1 for H1)
	Embedding   []float32 // Dense vector, global dimension
	CreatedAt   time.Time
}

// ChunkInput is a chunk ready for ingestion, before an ID is assigned.
type ChunkInput struct {
	Content     string
	OrderIndex  int
	Header      string
	HeaderLevel int
	Embedding   []float32
}

// SparseResult is a full-text hit with its raw relevance score.
// Scores are index-internal and unbounded; callers normalize per query.
type SparseResult struct {
	Chunk *Chunk
	Score float64
}

// DenseResult is a vector hit with its cosine distance to the query.
type DenseResult struct {
	Chunk    *Chunk
	Distance float32
}

// ChunkStore persists chunks and serves both retrieval signals.
type ChunkStore interface {
	// ReplaceDomainChunks atomically replaces all chunks for a domain.
	// Either every chunk is stored and indexed or the previous state
	// remains. Returns the number of chunks stored.
	ReplaceDomainChunks(ctx context.Context, domain string, chunks []*ChunkInput) (int, error)

	// SearchSparse runs full-text search scoped to a domain. An unknown
	// domain or a query with no matches returns an empty slice.
	SearchSparse(ctx context.Context, domain, query string, limit int) ([]*SparseResult, error)

	// SearchDense runs nearest-neighbor search scoped to a domain.
	SearchDense(ctx context.Context, domain string, vector []float32, limit int) ([]*DenseResult, error)

	// CountByDomain returns the number of stored chunks per domain.
	CountByDomain(ctx context.Context) (map[string]int, error)

	// Close releases all index and database resources.
	Close() error
}
