package search

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssemble_RendersHeadingBlocks(t *testing.T) {
	results := []SearchResult{
		{Header: "Sleep", Content: "Melatonin regulates sleep."},
		{Header: "Minerals", Content: "Magnesium supports muscles."},
	}

	got := Assemble(results)
	want := "## Sleep\n\nMelatonin regulates sleep.\n\n## Minerals\n\nMagnesium supports muscles."
	assert.Equal(t, want, got)
}

func TestAssemble_FallbackHeader(t *testing.T) {
	got := Assemble([]SearchResult{{Header: "  ", Content: "orphan content"}})
	assert.Equal(t, "## Information\n\norphan content", got)
}

func TestAssemble_EmptyInput(t *testing.T) {
	assert.Equal(t, "", Assemble(nil))
	assert.Equal(t, "", Assemble([]SearchResult{}))
}

func TestAssemble_PreservesInputOrder(t *testing.T) {
	results := []SearchResult{
		{Header: "B", Content: "second score but first position"},
		{Header: "A", Content: "first score but second position"},
	}

	got := Assemble(results)
	assert.Less(t, strings.Index(got, "## B"), strings.Index(got, "## A"))
}
