// Package search implements hybrid retrieval combining sparse full-text and
// dense vector signals, with optional cross-encoder reranking and context
// assembly.
package search

// SearchKind tags which retrieval signal produced a result's score.
type SearchKind string

const (
	KindSparse SearchKind = "sparse"
	KindDense  SearchKind = "dense"
	KindHybrid SearchKind = "hybrid"
)

// SearchMode selects which signals a single-query search uses.
type SearchMode string

const (
	ModeSparse SearchMode = "sparse"
	ModeDense  SearchMode = "dense"
	ModeHybrid SearchMode = "hybrid"
)

// SearchResult is a ranked retrieval hit. Scores are normalized to [0,1],
// higher is more relevant.
type SearchResult struct {
	ChunkID     string
	Content     string
	Header      string
	HeaderLevel int
	Score       float64
	Kind        SearchKind
}

// Engine configuration defaults.
const (
	DefaultTopK = 5

	// DefaultDenseWeight and DefaultSparseWeight control weighted fusion.
	// They should sum to 1.0; deviation is a configuration warning.
	DefaultDenseWeight  = 0.7
	DefaultSparseWeight = 0.3

	// DefaultCandidateMultiplier expands the per-signal fetch window so the
	// fused top-k has enough material to draw from.
	DefaultCandidateMultiplier = 2
)

// EngineConfig configures the hybrid search engine.
type EngineConfig struct {
	// TopK is the default result count when the caller passes 0.
	TopK int

	// MinScore drops results scoring below it after fusion and truncation.
	MinScore float64

	// DenseWeight scales the vector similarity in weighted fusion.
	DenseWeight float64

	// SparseWeight scales the normalized full-text score in weighted fusion.
	SparseWeight float64

	// CandidateMultiplier widens the per-signal candidate window relative
	// to top-k.
	CandidateMultiplier int
}

// DefaultEngineConfig returns the standard engine configuration.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		TopK:                DefaultTopK,
		MinScore:            0.0,
		DenseWeight:         DefaultDenseWeight,
		SparseWeight:        DefaultSparseWeight,
		CandidateMultiplier: DefaultCandidateMultiplier,
	}
}
