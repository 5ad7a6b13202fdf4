package cmd

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSnippet_ShortContentUnchanged(t *testing.T) {
	assert.Equal(t, "melatonin helps sleep", snippet("melatonin helps sleep", 40))
}

func TestSnippet_CollapsesWhitespace(t *testing.T) {
	assert.Equal(t, "a b c", snippet("a\n  b\t c", 40))
}

func TestSnippet_TruncatesWithEllipsis(t *testing.T) {
	got := snippet(strings.Repeat("word ", 50), 20)
	assert.Equal(t, 23, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestSnippet_MultibyteContentStaysValid(t *testing.T) {
	got := snippet(strings.Repeat("мелатонін допомагає ", 20), 25)

	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, 28, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, "..."))
}
