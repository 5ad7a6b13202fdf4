package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ololopopova/ai-chat/internal/errors"
	"github.com/ololopopova/ai-chat/internal/store"
)

func TestHybridSearch_MergesBothSignals(t *testing.T) {
	fs := newFakeStore("products")
	melatonin := chunk("melatonin", "Melatonin is a sleep hormone.", "Melatonin")
	magnesium := chunk("magnesium", "Magnesium supports muscle recovery.", "Magnesium")

	fs.denseByKey[queryKey("sleep aid")] = []*store.DenseResult{
		denseResult(melatonin, 0.1),
	}
	fs.sparseByQuery["melatonin"] = []*store.SparseResult{
		{Chunk: melatonin, Score: 8.0},
	}
	fs.sparseByQuery["magnesium"] = []*store.SparseResult{
		{Chunk: magnesium, Score: 6.0},
	}

	e := testEngine(fs, nil)
	results, err := e.HybridSearch(context.Background(), "products",
		[]string{"sleep aid"}, []string{"melatonin", "magnesium"}, 5)
	require.NoError(t, err)
	require.Len(t, results, 2)

	byID := make(map[string]SearchResult)
	for _, r := range results {
		byID[r.ChunkID] = r
	}

	// Melatonin surfaced from both signal types.
	assert.Equal(t, KindHybrid, byID["melatonin"].Kind)
	assert.Equal(t, KindSparse, byID["magnesium"].Kind)

	// Single-result sparse sets normalize to 1.0.
	assert.Equal(t, 1.0, byID["melatonin"].Score)
	assert.Equal(t, 1.0, byID["magnesium"].Score)

	// Sorted descending with deterministic tie-break.
	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)
}

func TestHybridSearch_MaxAggregationOnDuplicates(t *testing.T) {
	fs := newFakeStore("docs")
	shared := chunk("shared", "appears for two queries", "Shared")

	// First query ranks it low (0.4 after normalization), second high (0.9).
	fs.denseByKey[queryKey("first query")] = []*store.DenseResult{
		denseResult(shared, 0.6),
	}
	fs.denseByKey[queryKey("second query")] = []*store.DenseResult{
		denseResult(shared, 0.1),
	}

	e := testEngine(fs, nil)
	results, err := e.HybridSearch(context.Background(), "docs",
		[]string{"first query", "second query"}, nil, 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 0.9, results[0].Score, 1e-6)
	assert.Equal(t, KindDense, results[0].Kind)
}

func TestHybridSearch_SparseNormalizationPerQuery(t *testing.T) {
	fs := newFakeStore("docs")
	top := chunk("top", "best match", "Top")
	mid := chunk("mid", "middle match", "Mid")
	low := chunk("low", "worst match", "Low")

	fs.sparseByQuery["terms"] = []*store.SparseResult{
		{Chunk: top, Score: 10.0},
		{Chunk: mid, Score: 6.0},
		{Chunk: low, Score: 2.0},
	}

	e := testEngine(fs, nil)
	results, err := e.HybridSearch(context.Background(), "docs", nil, []string{"terms"}, 5)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "top", results[0].ChunkID)
	assert.Equal(t, 1.0, results[0].Score)
	assert.InDelta(t, 0.5, results[1].Score, 1e-9)
	assert.Equal(t, 0.0, results[2].Score)
}

func TestHybridSearch_NoQueriesRejected(t *testing.T) {
	fs := newFakeStore("docs")

	e := testEngine(fs, nil)
	_, err := e.HybridSearch(context.Background(), "docs", nil, nil, 5)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInvalidQuery, apperrors.GetCode(err))
}

func TestHybridSearch_UnknownDomain(t *testing.T) {
	fs := newFakeStore("docs")

	e := testEngine(fs, nil)
	_, err := e.HybridSearch(context.Background(), "missing", []string{"q"}, nil, 5)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeUnknownDomain, apperrors.GetCode(err))
}

func TestHybridSearch_SubQueryFailureFailsAll(t *testing.T) {
	fs := newFakeStore("docs")
	fs.sparseErr = apperrors.New(apperrors.ErrCodeStoreFailed, "index unavailable", nil)
	fs.denseByKey[queryKey("fine")] = []*store.DenseResult{
		denseResult(chunk("a", "content", "H"), 0),
	}

	e := testEngine(fs, nil)
	_, err := e.HybridSearch(context.Background(), "docs", []string{"fine"}, []string{"broken"}, 5)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeSearchFailed, apperrors.GetCode(err))
}

func TestHybridSearch_ZeroMatchesIsEmpty(t *testing.T) {
	fs := newFakeStore("docs")

	e := testEngine(fs, nil)
	results, err := e.HybridSearch(context.Background(), "docs", []string{"nothing"}, []string{"nada"}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}
