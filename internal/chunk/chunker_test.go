package chunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ololopopova/ai-chat/internal/errors"
	"github.com/ololopopova/ai-chat/internal/parse"
)

func section(header, content string) parse.Section {
	return parse.Section{Header: header, HeaderLevel: 1, Content: content}
}

func longText(prefix string) string {
	return prefix + " " + strings.Repeat("lorem ipsum ", 20)
}

func TestChunkSections_OneChunkPerSection(t *testing.T) {
	sections := []parse.Section{
		section("A", longText("alpha")),
		section("B", longText("bravo")),
		section("C", longText("charlie")),
	}

	chunks, err := NewChunker(100).ChunkSections(sections)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	for i, c := range chunks {
		assert.Equal(t, i, c.OrderIndex, "order indices must be contiguous")
	}
	assert.Equal(t, "A", chunks[0].Header)
	assert.Equal(t, 1, chunks[0].HeaderLevel)
	assert.Contains(t, chunks[1].Content, "bravo")
}

func TestChunkSections_DropsEmptySections(t *testing.T) {
	sections := []parse.Section{
		section("A", longText("alpha")),
		section("Empty", ""),
		section("B", longText("bravo")),
	}

	chunks, err := NewChunker(100).ChunkSections(sections)
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	// Indices stay contiguous after the drop.
	assert.Equal(t, 0, chunks[0].OrderIndex)
	assert.Equal(t, 1, chunks[1].OrderIndex)
	assert.Equal(t, "B", chunks[1].Header)
}

func TestChunkSections_DropsTooSmallSections(t *testing.T) {
	sections := []parse.Section{
		section("Tiny", "short"),
		section("Big", longText("bravo")),
	}

	chunks, err := NewChunker(100).ChunkSections(sections)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Big", chunks[0].Header)
	assert.Equal(t, 0, chunks[0].OrderIndex)
}

func TestChunkSections_SoleShortSectionKept(t *testing.T) {
	sections := []parse.Section{section("Only", "tiny doc")}

	chunks, err := NewChunker(100).ChunkSections(sections)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "tiny doc", chunks[0].Content)
}

func TestChunkSections_ZeroChunksIsError(t *testing.T) {
	sections := []parse.Section{
		section("Tiny1", "a"),
		section("Tiny2", "b"),
	}

	_, err := NewChunker(100).ChunkSections(sections)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeChunkingFailed, apperrors.GetCode(err))
}

func TestChunkSections_EmptyInputIsError(t *testing.T) {
	_, err := NewChunker(100).ChunkSections(nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeChunkingFailed, apperrors.GetCode(err))
}

func TestNewChunker_DefaultMinSize(t *testing.T) {
	c := NewChunker(0)
	assert.Equal(t, DefaultMinSize, c.minSize)
}
