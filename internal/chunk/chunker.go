// Package chunk segments parsed document sections into retrieval units.
package chunk

import (
	"log/slog"

	apperrors "github.com/ololopopova/ai-chat/internal/errors"
	"github.com/ololopopova/ai-chat/internal/parse"
)

// DefaultMinSize is the minimum chunk content length in characters.
// Sections below this are dropped unless they are the document's only
// section, so a trivially short document still produces one chunk.
const DefaultMinSize = 100

// Chunk is a retrieval unit produced from one document section.
// ID and domain are assigned later by the store during ingestion.
type Chunk struct {
	// Content is the non-empty text body.
	Content string

	// OrderIndex is the position within the source document, contiguous
	// from 0 after drops.
	OrderIndex int

	// Header is the originating section title, if any.
	Header string

	// HeaderLevel is the heading nesting depth (0 when Header is empty).
	HeaderLevel int
}

// Chunker segments sections into chunks with a minimum-size filter.
type Chunker struct {
	minSize int
}

// NewChunker creates a chunker with the given minimum content size.
// Non-positive values fall back to DefaultMinSize.
func NewChunker(minSize int) *Chunker {
	if minSize <= 0 {
		minSize = DefaultMinSize
	}
	return &Chunker{minSize: minSize}
}

// ChunkSections produces one chunk per non-empty section, in section order.
//
// Sections shorter than the minimum size are dropped unless the section is
// the only one in the document. Producing zero chunks from a non-empty
// section list is an error: it usually means ingestion should abort rather
// than write an empty domain.
func (c *Chunker) ChunkSections(sections []parse.Section) ([]*Chunk, error) {
	if len(sections) == 0 {
		return nil, apperrors.ChunkingError("no sections to chunk")
	}

	chunks := make([]*Chunk, 0, len(sections))
	index := 0

	for _, section := range sections {
		if section.Content == "" {
			slog.Debug("skipping empty section", slog.String("header", section.Header))
			continue
		}

		if len(section.Content) < c.minSize && len(sections) > 1 {
			slog.Debug("skipping too-small section",
				slog.String("header", section.Header),
				slog.Int("size", len(section.Content)),
				slog.Int("min_size", c.minSize))
			continue
		}

		chunks = append(chunks, &Chunk{
			Content:     section.Content,
			OrderIndex:  index,
			Header:      section.Header,
			HeaderLevel: section.HeaderLevel,
		})
		index++
	}

	if len(chunks) == 0 {
		return nil, apperrors.ChunkingError("no chunks produced from non-empty input")
	}

	slog.Info("chunked document", slog.Int("chunks", len(chunks)), slog.Int("sections", len(sections)))
	return chunks, nil
}
