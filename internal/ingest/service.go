// Package ingest runs the document ingestion pipeline: parse raw markup,
// chunk it, embed the chunks and replace the domain's stored content.
package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/ololopopova/ai-chat/internal/chunk"
	"github.com/ololopopova/ai-chat/internal/embed"
	apperrors "github.com/ololopopova/ai-chat/internal/errors"
	"github.com/ololopopova/ai-chat/internal/parse"
	"github.com/ololopopova/ai-chat/internal/store"
)

// Summary reports the outcome of one ingestion run.
type Summary struct {
	Domain              string
	ChunksCreated       int
	EmbeddingsGenerated int
	Duration            time.Duration
}

// Service wires the ingestion pipeline together. Ingestion is all-or-
// nothing: any failure before the store write aborts without touching the
// previous domain content.
type Service struct {
	parser   *parse.Parser
	chunker  *chunk.Chunker
	embedder embed.Embedder
	store    store.ChunkStore
}

// NewService creates an ingestion service. minChunkSize 0 uses the chunker
// default.
func NewService(embedder embed.Embedder, cs store.ChunkStore, minChunkSize int) *Service {
	return &Service{
		parser:   parse.NewParser(),
		chunker:  chunk.NewChunker(minChunkSize),
		embedder: embedder,
		store:    cs,
	}
}

// Ingest parses raw markup, chunks it, embeds every chunk and atomically
// replaces the domain's stored chunks.
func (s *Service) Ingest(ctx context.Context, domain, raw string) (*Summary, error) {
	start := time.Now()

	if domain == "" {
		return nil, apperrors.New(apperrors.ErrCodeUnknownDomain, "domain must not be empty", nil)
	}

	sections, err := s.parser.Parse(raw)
	if err != nil {
		return nil, err
	}

	chunks, err := s.chunker.ChunkSections(sections)
	if err != nil {
		return nil, err
	}

	embeddings, err := s.embedChunks(ctx, chunks)
	if err != nil {
		return nil, err
	}

	inputs := make([]*store.ChunkInput, len(chunks))
	for i, c := range chunks {
		inputs[i] = &store.ChunkInput{
			Content:     c.Content,
			OrderIndex:  c.OrderIndex,
			Header:      c.Header,
			HeaderLevel: c.HeaderLevel,
			Embedding:   embeddings[i],
		}
	}

	count, err := s.store.ReplaceDomainChunks(ctx, domain, inputs)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		Domain:              domain,
		ChunksCreated:       count,
		EmbeddingsGenerated: len(embeddings),
		Duration:            time.Since(start),
	}

	slog.Info("ingestion completed",
		slog.String("domain", domain),
		slog.Int("chunks", summary.ChunksCreated),
		slog.Duration("elapsed", summary.Duration))

	return summary, nil
}

// embedChunks embeds chunk contents in provider-sized batches. Order is
// preserved across batches.
func (s *Service) embedChunks(ctx context.Context, chunks []*chunk.Chunk) ([][]float32, error) {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	embeddings := make([][]float32, 0, len(texts))
	for startIdx := 0; startIdx < len(texts); startIdx += embed.MaxBatchSize {
		endIdx := startIdx + embed.MaxBatchSize
		if endIdx > len(texts) {
			endIdx = len(texts)
		}

		batch, err := s.embedder.EmbedBatch(ctx, texts[startIdx:endIdx])
		if err != nil {
			return nil, err
		}
		embeddings = append(embeddings, batch...)

		slog.Debug("embedded chunk batch",
			slog.Int("from", startIdx),
			slog.Int("to", endIdx))
	}
	return embeddings, nil
}
