package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	apperrors "github.com/ololopopova/ai-chat/internal/errors"
)

// Reranker service defaults.
const (
	DefaultRerankerEndpoint = "http://localhost:8787"
	DefaultRerankerModel    = "cross-encoder/ms-marco-MiniLM-L-6-v2"
	DefaultRerankerTimeout  = 30 * time.Second
)

// HTTPRerankerConfig configures the cross-encoder service client.
type HTTPRerankerConfig struct {
	// Endpoint is the reranker service URL (default: DefaultRerankerEndpoint).
	Endpoint string

	// Model is the cross-encoder model identifier (default: DefaultRerankerModel).
	Model string

	// Timeout bounds a single rerank request (default: DefaultRerankerTimeout).
	Timeout time.Duration

	// SkipHealthCheck skips the health check during creation (for testing).
	SkipHealthCheck bool
}

// HTTPReranker scores query-document pairs via a cross-encoder service.
// The instance is safe for concurrent use; the backing model is loaded
// once by the service and treated as read-only.
type HTTPReranker struct {
	client *http.Client
	config HTTPRerankerConfig
	mu     sync.RWMutex
	closed bool
}

// Verify interface implementation at compile time
var _ Reranker = (*HTTPReranker)(nil)

// NewHTTPReranker creates a reranker client and verifies the service is
// reachable unless SkipHealthCheck is set.
func NewHTTPReranker(ctx context.Context, cfg HTTPRerankerConfig) (*HTTPReranker, error) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultRerankerEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = DefaultRerankerModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultRerankerTimeout
	}

	r := &HTTPReranker{
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     30 * time.Second,
			},
		},
		config: cfg,
	}

	if !cfg.SkipHealthCheck {
		checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		if err := r.healthCheck(checkCtx); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeRerankFailed, err)
		}
	}

	slog.Debug("reranker client created",
		slog.String("endpoint", cfg.Endpoint),
		slog.String("model", cfg.Model))

	return r, nil
}

func (r *HTTPReranker) healthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.config.Endpoint+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to reranker service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("reranker service unhealthy (status %d): %s", resp.StatusCode, string(body))
	}
	return nil
}

type rerankRequest struct {
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	Model     string   `json:"model,omitempty"`
	TopK      int      `json:"top_k,omitempty"`
}

type rerankResponse struct {
	Results []struct {
		Index    int     `json:"index"`
		Score    float64 `json:"score"`
		Document string  `json:"document"`
	} `json:"results"`
}

// Rerank scores and reorders documents by relevance to the query.
func (r *HTTPReranker) Rerank(ctx context.Context, query string, documents []string, topK int) ([]RerankResult, error) {
	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		return nil, apperrors.New(apperrors.ErrCodeRerankFailed, "reranker is closed", nil)
	}
	r.mu.RUnlock()

	if len(documents) == 0 {
		return []RerankResult{}, nil
	}

	reqBody := rerankRequest{
		Query:     query,
		Documents: documents,
		Model:     r.config.Model,
	}
	if topK > 0 {
		reqBody.TopK = topK
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeRerankFailed, err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodPost, r.config.Endpoint+"/rerank", bytes.NewReader(jsonData))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeRerankFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrCodeRerankFailed, "rerank request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, apperrors.Newf(apperrors.ErrCodeRerankFailed,
			"rerank failed (status %d): %s", resp.StatusCode, string(body))
	}

	var result rerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeRerankFailed, err)
	}

	results := make([]RerankResult, len(result.Results))
	for i, item := range result.Results {
		results[i] = RerankResult{
			Index:    item.Index,
			Score:    item.Score,
			Document: item.Document,
		}
	}

	slog.Debug("reranked candidates",
		slog.Int("doc_count", len(documents)),
		slog.Duration("elapsed", time.Since(start)))

	return results, nil
}

// Available checks if the reranker service responds to health checks.
func (r *HTTPReranker) Available(ctx context.Context) bool {
	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		return false
	}
	r.mu.RUnlock()

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return r.healthCheck(checkCtx) == nil
}

// Close releases pooled connections.
func (r *HTTPReranker) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	if transport, ok := r.client.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
	return nil
}
