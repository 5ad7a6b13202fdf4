package search

import (
	"github.com/ololopopova/ai-chat/internal/store"
)

// normalizeSparse min-max normalizes raw full-text scores to [0,1] per
// query. The store's native scores are unbounded and only comparable within
// a single result set, so normalization is always per-query.
//
// A single-result set scores 1.0. A set where every score is equal (zero
// range) also scores 1.0 for every item.
func normalizeSparse(results []*store.SparseResult) map[string]float64 {
	scores := make(map[string]float64, len(results))
	if len(results) == 0 {
		return scores
	}
	if len(results) == 1 {
		scores[results[0].Chunk.ID] = 1.0
		return scores
	}

	minScore := results[0].Score
	maxScore := results[0].Score
	for _, r := range results[1:] {
		if r.Score < minScore {
			minScore = r.Score
		}
		if r.Score > maxScore {
			maxScore = r.Score
		}
	}

	scoreRange := maxScore - minScore
	for _, r := range results {
		if scoreRange == 0 {
			scores[r.Chunk.ID] = 1.0
		} else {
			scores[r.Chunk.ID] = (r.Score - minScore) / scoreRange
		}
	}
	return scores
}

// similarityFromDistance converts a cosine distance to a similarity score.
// Distance 0 maps to 1.0; scores are clamped to [0,1].
func similarityFromDistance(distance float32) float64 {
	score := 1.0 - float64(distance)
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
