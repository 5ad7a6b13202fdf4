package search

import (
	"context"
	"sync"

	apperrors "github.com/ololopopova/ai-chat/internal/errors"
)

// RerankResult is a single cross-encoder score.
type RerankResult struct {
	// Index is the original position in the input documents slice
	Index int
	// Score is the relevance score (0.0 to 1.0)
	Score float64
	// Document is the original document content
	Document string
}

// Reranker rescores search candidates using a cross-encoder model.
// Cross-encoders jointly encode query-document pairs for more accurate
// relevance scoring than bi-encoders, but at higher computational cost.
type Reranker interface {
	// Rerank scores every (query, document) pair and returns results
	// sorted by score descending, truncated to topK (0 = return all).
	Rerank(ctx context.Context, query string, documents []string, topK int) ([]RerankResult, error)

	// Available checks if the reranker backend is reachable.
	Available(ctx context.Context) bool

	// Close releases resources.
	Close() error
}

// NoopReranker preserves the incoming order. Used when reranking is
// disabled or the backend is unavailable.
type NoopReranker struct{}

// Verify interface implementation at compile time
var _ Reranker = (*NoopReranker)(nil)

// Rerank returns documents in original order with decreasing scores.
func (n *NoopReranker) Rerank(_ context.Context, _ string, documents []string, topK int) ([]RerankResult, error) {
	results := make([]RerankResult, len(documents))
	for i, doc := range documents {
		results[i] = RerankResult{
			Index:    i,
			Score:    1.0 - float64(i)*0.01,
			Document: doc,
		}
	}

	if topK > 0 && topK < len(results) {
		results = results[:topK]
	}
	return results, nil
}

// Available always returns true for NoopReranker.
func (n *NoopReranker) Available(_ context.Context) bool { return true }

// Close is a no-op for NoopReranker.
func (n *NoopReranker) Close() error { return nil }

// RerankerFactory builds a Reranker on first use. The model behind a real
// reranker is expensive to load, so construction is deferred until a
// rerank is actually requested.
type RerankerFactory func(ctx context.Context) (Reranker, error)

// RerankerHandle is a lazily-initialized, process-shared reranker. The
// factory runs at most once; concurrent callers all see the same instance.
type RerankerHandle struct {
	once     sync.Once
	factory  RerankerFactory
	reranker Reranker
	err      error
}

// NewRerankerHandle creates a handle that initializes the reranker on
// first Get.
func NewRerankerHandle(factory RerankerFactory) *RerankerHandle {
	return &RerankerHandle{factory: factory}
}

// StaticRerankerHandle wraps an already-built reranker, bypassing lazy
// initialization. Used for the noop reranker and in tests.
func StaticRerankerHandle(r Reranker) *RerankerHandle {
	h := &RerankerHandle{}
	h.once.Do(func() { h.reranker = r })
	return h
}

// Get returns the shared reranker, initializing it on the first call.
// Initialization failure is sticky: every caller sees the same error.
func (h *RerankerHandle) Get(ctx context.Context) (Reranker, error) {
	h.once.Do(func() {
		if h.factory == nil {
			h.err = apperrors.New(apperrors.ErrCodeRerankFailed, "no reranker configured", nil)
			return
		}
		h.reranker, h.err = h.factory(ctx)
	})
	if h.err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeRerankFailed, h.err)
	}
	return h.reranker, nil
}

// Close releases the reranker if it was ever initialized.
func (h *RerankerHandle) Close() error {
	if h.reranker != nil {
		return h.reranker.Close()
	}
	return nil
}
