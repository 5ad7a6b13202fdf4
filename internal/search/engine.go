package search

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ololopopova/ai-chat/internal/embed"
	apperrors "github.com/ololopopova/ai-chat/internal/errors"
	"github.com/ololopopova/ai-chat/internal/store"
)

// Engine is the hybrid search engine. It reads from the chunk store, embeds
// queries through the embedder and rescores candidates through a shared
// reranker handle. It never mutates the store.
type Engine struct {
	store    store.ChunkStore
	embedder embed.Embedder
	reranker *RerankerHandle
	config   EngineConfig
}

// NewEngine creates a search engine. Zero config fields fall back to
// defaults.
func NewEngine(cs store.ChunkStore, embedder embed.Embedder, reranker *RerankerHandle, cfg EngineConfig) *Engine {
	defaults := DefaultEngineConfig()
	if cfg.TopK <= 0 {
		cfg.TopK = defaults.TopK
	}
	if cfg.DenseWeight == 0 && cfg.SparseWeight == 0 {
		cfg.DenseWeight = defaults.DenseWeight
		cfg.SparseWeight = defaults.SparseWeight
	}
	if cfg.CandidateMultiplier <= 0 {
		cfg.CandidateMultiplier = defaults.CandidateMultiplier
	}
	if reranker == nil {
		reranker = StaticRerankerHandle(&NoopReranker{})
	}

	return &Engine{
		store:    cs,
		embedder: embedder,
		reranker: reranker,
		config:   cfg,
	}
}

// SearchOptions tunes a single-query search.
type SearchOptions struct {
	// TopK is the maximum result count (0 = engine default).
	TopK int

	// MinScore drops results below it after fusion and truncation
	// (0 = engine default).
	MinScore float64

	// Mode selects the signals to use (empty = hybrid).
	Mode SearchMode
}

func (e *Engine) applyDefaults(opts SearchOptions) SearchOptions {
	if opts.TopK <= 0 {
		opts.TopK = e.config.TopK
	}
	if opts.MinScore == 0 {
		opts.MinScore = e.config.MinScore
	}
	if opts.Mode == "" {
		opts.Mode = ModeHybrid
	}
	return opts
}

// Search runs a single-query, mode-selectable search against one domain.
// In hybrid mode both signals are fetched over a widened candidate window,
// normalized to [0,1], and fused as
// dense_weight*vector + sparse_weight*fulltext, with 0.0 substituted for a
// missing signal. Results are sorted descending, truncated to top-k, then
// filtered by min score. A query that matches nothing returns an empty
// slice.
func (e *Engine) Search(ctx context.Context, domain, query string, opts SearchOptions) ([]SearchResult, error) {
	start := time.Now()
	opts = e.applyDefaults(opts)

	if strings.TrimSpace(query) == "" {
		return nil, apperrors.New(apperrors.ErrCodeInvalidQuery, "query must not be empty", nil)
	}
	switch opts.Mode {
	case ModeSparse, ModeDense, ModeHybrid:
	default:
		return nil, apperrors.Newf(apperrors.ErrCodeInvalidQuery, "unknown search mode %q", opts.Mode)
	}
	if err := e.checkDomain(ctx, domain); err != nil {
		return nil, err
	}

	window := opts.TopK * e.config.CandidateMultiplier

	var sparseResults []*store.SparseResult
	var denseResults []*store.DenseResult

	g, gctx := errgroup.WithContext(ctx)

	if opts.Mode != ModeDense {
		g.Go(func() error {
			var err error
			sparseResults, err = e.store.SearchSparse(gctx, domain, query, window)
			return err
		})
	}
	if opts.Mode != ModeSparse {
		g.Go(func() error {
			vector, err := e.embedder.Embed(gctx, query)
			if err != nil {
				return err
			}
			denseResults, err = e.store.SearchDense(gctx, domain, vector, window)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeSearchFailed, err)
	}

	results := e.fuse(sparseResults, denseResults, opts.Mode)

	if len(results) > opts.TopK {
		results = results[:opts.TopK]
	}
	results = filterMinScore(results, opts.MinScore)

	slog.Debug("search completed",
		slog.String("domain", domain),
		slog.String("mode", string(opts.Mode)),
		slog.Int("results", len(results)),
		slog.Duration("elapsed", time.Since(start)))

	return results, nil
}

// fuse combines both signals into a single ranked list. Missing signals
// contribute 0.0 in hybrid mode; single-signal modes pass their normalized
// scores through unchanged.
func (e *Engine) fuse(sparseResults []*store.SparseResult, denseResults []*store.DenseResult, mode SearchMode) []SearchResult {
	sparseScores := normalizeSparse(sparseResults)

	denseScores := make(map[string]float64, len(denseResults))
	for _, r := range denseResults {
		denseScores[r.Chunk.ID] = similarityFromDistance(r.Distance)
	}

	chunks := make(map[string]*store.Chunk, len(sparseResults)+len(denseResults))
	for _, r := range sparseResults {
		chunks[r.Chunk.ID] = r.Chunk
	}
	for _, r := range denseResults {
		chunks[r.Chunk.ID] = r.Chunk
	}

	results := make([]SearchResult, 0, len(chunks))
	for id, c := range chunks {
		sparseScore, inSparse := sparseScores[id]
		denseScore, inDense := denseScores[id]

		var score float64
		var kind SearchKind
		switch {
		case mode == ModeSparse:
			score, kind = sparseScore, KindSparse
		case mode == ModeDense:
			score, kind = denseScore, KindDense
		default:
			score = e.config.DenseWeight*denseScore + e.config.SparseWeight*sparseScore
			switch {
			case inSparse && inDense:
				kind = KindHybrid
			case inSparse:
				kind = KindSparse
			default:
				kind = KindDense
			}
		}

		results = append(results, SearchResult{
			ChunkID:     id,
			Content:     c.Content,
			Header:      c.Header,
			HeaderLevel: c.HeaderLevel,
			Score:       score,
			Kind:        kind,
		})
	}

	sortResults(results)
	return results
}

// Rerank rescores candidates with the shared cross-encoder. The new scores
// replace the fusion scores outright; output is sorted descending and
// truncated to topK. Empty input returns an empty slice without touching
// the model.
func (e *Engine) Rerank(ctx context.Context, query string, candidates []SearchResult, topK int) ([]SearchResult, error) {
	if len(candidates) == 0 {
		return []SearchResult{}, nil
	}
	if topK <= 0 {
		topK = e.config.TopK
	}

	reranker, err := e.reranker.Get(ctx)
	if err != nil {
		return nil, err
	}

	documents := make([]string, len(candidates))
	for i, c := range candidates {
		documents[i] = c.Content
	}

	scored, err := reranker.Rerank(ctx, query, documents, topK)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeRerankFailed, err)
	}

	results := make([]SearchResult, 0, len(scored))
	for _, item := range scored {
		if item.Index < 0 || item.Index >= len(candidates) {
			return nil, apperrors.Newf(apperrors.ErrCodeRerankFailed,
				"reranker returned out-of-range index %d for %d candidates", item.Index, len(candidates))
		}
		r := candidates[item.Index]
		r.Score = item.Score
		results = append(results, r)
	}

	sortResults(results)
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// GetContext searches and assembles the results into a context string.
func (e *Engine) GetContext(ctx context.Context, domain, query string, opts SearchOptions) (string, error) {
	results, err := e.Search(ctx, domain, query, opts)
	if err != nil {
		return "", err
	}
	return Assemble(results), nil
}

// checkDomain rejects searches against domains with no ingested chunks.
func (e *Engine) checkDomain(ctx context.Context, domain string) error {
	counts, err := e.store.CountByDomain(ctx)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeSearchFailed, err)
	}
	if counts[domain] == 0 {
		return apperrors.Newf(apperrors.ErrCodeUnknownDomain, "unknown domain %q", domain)
	}
	return nil
}

// sortResults orders by score descending with chunk ID as a deterministic
// tie-break.
func sortResults(results []SearchResult) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ChunkID < results[j].ChunkID
	})
}

func filterMinScore(results []SearchResult, minScore float64) []SearchResult {
	if minScore <= 0 {
		return results
	}
	filtered := make([]SearchResult, 0, len(results))
	for _, r := range results {
		if r.Score >= minScore {
			filtered = append(filtered, r)
		}
	}
	return filtered
}
