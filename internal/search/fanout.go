package search

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/ololopopova/ai-chat/internal/errors"
	"github.com/ololopopova/ai-chat/internal/store"
)

// HybridSearch fans out multiple queries against one domain and merges the
// hits with max-aggregation. Each dense query is embedded and searched by
// vector distance; each sparse query is searched by full-text relevance
// and min-max normalized per query. A chunk surfacing more than once keeps
// the maximum score seen; a chunk seen from both signal types is tagged
// hybrid.
//
// Sub-queries run concurrently and share no state; any sub-query failure
// fails the whole operation. The returned pool is sorted descending by
// score and is intended as reranker input (see Rerank).
func (e *Engine) HybridSearch(ctx context.Context, domain string, denseQueries, sparseQueries []string, topKPerQuery int) ([]SearchResult, error) {
	start := time.Now()

	if len(denseQueries) == 0 && len(sparseQueries) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeInvalidQuery, "at least one query is required", nil)
	}
	if err := e.checkDomain(ctx, domain); err != nil {
		return nil, err
	}
	if topKPerQuery <= 0 {
		topKPerQuery = e.config.TopK
	}

	denseHits := make([][]*store.DenseResult, len(denseQueries))
	sparseHits := make([][]*store.SparseResult, len(sparseQueries))

	g, gctx := errgroup.WithContext(ctx)

	for i, query := range denseQueries {
		g.Go(func() error {
			vector, err := e.embedder.Embed(gctx, query)
			if err != nil {
				return err
			}
			denseHits[i], err = e.store.SearchDense(gctx, domain, vector, topKPerQuery)
			return err
		})
	}
	for i, query := range sparseQueries {
		g.Go(func() error {
			var err error
			sparseHits[i], err = e.store.SearchSparse(gctx, domain, query, topKPerQuery)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeSearchFailed, err)
	}

	results := mergeMax(sparseHits, denseHits)

	slog.Debug("hybrid search completed",
		slog.String("domain", domain),
		slog.Int("dense_queries", len(denseQueries)),
		slog.Int("sparse_queries", len(sparseQueries)),
		slog.Int("candidates", len(results)),
		slog.Duration("elapsed", time.Since(start)))

	return results, nil
}

// fusedCandidate tracks which signal types have surfaced a chunk during
// the merge.
type fusedCandidate struct {
	result     SearchResult
	seenSparse bool
	seenDense  bool
}

// mergeMax deduplicates per-query hits by chunk identity, keeping the
// maximum score for each chunk. The merge is commutative, so sub-query
// completion order never affects the outcome.
func mergeMax(sparseHits [][]*store.SparseResult, denseHits [][]*store.DenseResult) []SearchResult {
	merged := make(map[string]*fusedCandidate)

	upsert := func(c *store.Chunk, score float64) *fusedCandidate {
		cand, ok := merged[c.ID]
		if !ok {
			cand = &fusedCandidate{result: SearchResult{
				ChunkID:     c.ID,
				Content:     c.Content,
				Header:      c.Header,
				HeaderLevel: c.HeaderLevel,
				Score:       score,
			}}
			merged[c.ID] = cand
		} else if score > cand.result.Score {
			cand.result.Score = score
		}
		return cand
	}

	for _, hits := range sparseHits {
		normalized := normalizeSparse(hits)
		for _, hit := range hits {
			cand := upsert(hit.Chunk, normalized[hit.Chunk.ID])
			cand.seenSparse = true
		}
	}
	for _, hits := range denseHits {
		for _, hit := range hits {
			cand := upsert(hit.Chunk, similarityFromDistance(hit.Distance))
			cand.seenDense = true
		}
	}

	results := make([]SearchResult, 0, len(merged))
	for _, cand := range merged {
		switch {
		case cand.seenSparse && cand.seenDense:
			cand.result.Kind = KindHybrid
		case cand.seenSparse:
			cand.result.Kind = KindSparse
		default:
			cand.result.Kind = KindDense
		}
		results = append(results, cand.result)
	}

	sortResults(results)
	return results
}
