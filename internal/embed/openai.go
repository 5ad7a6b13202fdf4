package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	apperrors "github.com/ololopopova/ai-chat/internal/errors"
)

// DefaultEndpoint is the OpenAI-compatible embeddings API base URL.
const DefaultEndpoint = "https://api.openai.com/v1"

// OpenAIConfig configures the OpenAI-compatible embedding client.
type OpenAIConfig struct {
	// Endpoint is the API base URL (default: DefaultEndpoint).
	Endpoint string

	// APIKey authenticates requests. Required.
	APIKey string

	// Model is the embedding model (default: DefaultModel).
	Model string

	// Dimensions is the requested output dimension (default: Dimension).
	Dimensions int

	// Timeout bounds a single request (default: DefaultTimeout).
	Timeout time.Duration

	// Retry is the retry policy for transient failures.
	Retry RetryPolicy
}

// OpenAIEmbedder generates embeddings via an OpenAI-compatible HTTP API.
// It holds a pooled connection that must be released with Close.
type OpenAIEmbedder struct {
	client    *http.Client
	transport *http.Transport
	config    OpenAIConfig
}

// Verify interface implementation at compile time
var _ Embedder = (*OpenAIEmbedder)(nil)

// NewOpenAIEmbedder creates an embedder for an OpenAI-compatible API.
func NewOpenAIEmbedder(cfg OpenAIConfig) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, apperrors.New(apperrors.ErrCodeAuthFailed, "embedding provider API key is required", nil)
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = Dimension
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = DefaultRetryPolicy()
	}

	transport := &http.Transport{
		MaxIdleConns:        4,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     30 * time.Second,
	}

	return &OpenAIEmbedder{
		// Timeout is applied per-request via context so each retry gets
		// the full window.
		client:    &http.Client{Transport: transport},
		transport: transport,
		config:    cfg,
	}, nil
}

type embeddingRequest struct {
	Input      []string `json:"input"`
	Model      string   `json:"model"`
	Dimensions int      `json:"dimensions"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

type apiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// EmbedBatch generates embeddings for up to MaxBatchSize texts, preserving
// input order and count. Transient failures are retried with backoff;
// auth, rate-limit and context-length failures surface immediately with
// their distinct codes.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	if len(texts) > MaxBatchSize {
		return nil, apperrors.Newf(apperrors.ErrCodeBatchTooLarge,
			"batch size %d exceeds maximum %d", len(texts), MaxBatchSize).
			WithDetail("batch_size", fmt.Sprintf("%d", len(texts)))
	}

	slog.Debug("generating embeddings",
		slog.Int("batch_size", len(texts)),
		slog.String("model", e.config.Model))

	var embeddings [][]float32
	err := e.config.Retry.Do(ctx, func() error {
		var callErr error
		embeddings, callErr = e.doEmbed(ctx, texts)
		return callErr
	})
	if err != nil {
		slog.Error("failed to generate embeddings",
			slog.String("error", err.Error()),
			slog.Int("batch_size", len(texts)))
		return nil, err
	}

	// Every vector must match the global dimension exactly.
	for i, emb := range embeddings {
		if len(emb) != e.config.Dimensions {
			return nil, apperrors.Newf(apperrors.ErrCodeDimensionMismatch,
				"invalid embedding dimension at index %d: expected %d, got %d",
				i, e.config.Dimensions, len(emb))
		}
	}

	return embeddings, nil
}

// doEmbed performs a single provider request.
func (e *OpenAIEmbedder) doEmbed(ctx context.Context, texts []string) ([][]float32, error) {
	reqCtx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	body, err := json.Marshal(embeddingRequest{
		Input:      texts,
		Model:      e.config.Model,
		Dimensions: e.config.Dimensions,
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeEmbeddingFailed, err)
	}

	url := strings.TrimSuffix(e.config.Endpoint, "/") + "/embeddings"
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeEmbeddingFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.config.APIKey)

	resp, err := e.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || reqCtx.Err() == context.DeadlineExceeded {
			return nil, apperrors.New(apperrors.ErrCodeProviderTimeout, "embedding provider timeout", err)
		}
		return nil, apperrors.New(apperrors.ErrCodeProviderUnavailable, "embedding provider unreachable", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(resp)
	}

	var result embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeEmbeddingFailed, err)
	}

	if len(result.Data) != len(texts) {
		return nil, apperrors.Newf(apperrors.ErrCodeCountMismatch,
			"response count mismatch: expected %d, got %d", len(texts), len(result.Data))
	}

	// The API may return items out of order; the index field is authoritative.
	sort.Slice(result.Data, func(i, j int) bool {
		return result.Data[i].Index < result.Data[j].Index
	})

	embeddings := make([][]float32, len(result.Data))
	for i, item := range result.Data {
		embeddings[i] = item.Embedding
	}
	return embeddings, nil
}

// classifyStatus maps provider HTTP errors onto the embedding error taxonomy.
func classifyStatus(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	message := strings.TrimSpace(string(raw))
	var apiErr apiErrorResponse
	if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error.Message != "" {
		message = apiErr.Error.Message
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return apperrors.New(apperrors.ErrCodeAuthFailed, "embedding provider authentication failed: "+message, nil)
	case resp.StatusCode == http.StatusTooManyRequests:
		return apperrors.New(apperrors.ErrCodeRateLimited, "embedding provider rate limit exceeded", nil)
	case resp.StatusCode == http.StatusBadRequest && strings.Contains(strings.ToLower(message), "context length"):
		return apperrors.New(apperrors.ErrCodeContextTooLong, message, nil)
	case resp.StatusCode >= 500:
		return apperrors.Newf(apperrors.ErrCodeProviderUnavailable, "embedding provider error: status %d", resp.StatusCode)
	default:
		return apperrors.Newf(apperrors.ErrCodeEmbeddingFailed, "embedding request failed: status %d: %s", resp.StatusCode, message)
	}
}

// Embed generates an embedding for a single text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// Dimensions returns the embedding dimension.
func (e *OpenAIEmbedder) Dimensions() int {
	return e.config.Dimensions
}

// ModelName returns the model identifier.
func (e *OpenAIEmbedder) ModelName() string {
	return e.config.Model
}

// Close releases pooled connections.
func (e *OpenAIEmbedder) Close() error {
	e.transport.CloseIdleConnections()
	return nil
}
