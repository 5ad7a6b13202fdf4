package parse

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ololopopova/ai-chat/internal/errors"
)

func TestParse_SplitsAtH1Boundaries(t *testing.T) {
	doc := `<html><body>
		<h1>Sleep</h1>
		<p>Melatonin regulates circadian rhythm.</p>
		<p>Take it an hour before bed.</p>
		<h1>Focus</h1>
		<p>Caffeine blocks adenosine receptors.</p>
	</body></html>`

	parser := NewParser()
	sections, err := parser.Parse(doc)
	require.NoError(t, err)
	require.Len(t, sections, 2)

	assert.Equal(t, "Sleep", sections[0].Header)
	assert.Equal(t, 1, sections[0].HeaderLevel)
	assert.Contains(t, sections[0].Content, "Melatonin regulates circadian rhythm.")
	assert.Contains(t, sections[0].Content, "Take it an hour before bed.")
	assert.NotContains(t, sections[0].Content, "Caffeine")

	assert.Equal(t, "Focus", sections[1].Header)
	assert.Contains(t, sections[1].Content, "Caffeine blocks adenosine receptors.")
}

func TestParse_NoHeadingsYieldsSingleDocumentSection(t *testing.T) {
	doc := `<html><body><p>Just one paragraph.</p><p>And another.</p></body></html>`

	sections, err := NewParser().Parse(doc)
	require.NoError(t, err)
	require.Len(t, sections, 1)

	assert.Equal(t, FallbackHeader, sections[0].Header)
	assert.Equal(t, 1, sections[0].HeaderLevel)
	assert.Contains(t, sections[0].Content, "Just one paragraph.")
	assert.Contains(t, sections[0].Content, "And another.")
}

func TestParse_StripsScriptAndStyle(t *testing.T) {
	doc := `<html><head><style>p { color: red; }</style></head><body>
		<h1>Topic</h1>
		<script>alert("nope")</script>
		<p>Visible text.</p>
	</body></html>`

	sections, err := NewParser().Parse(doc)
	require.NoError(t, err)
	require.Len(t, sections, 1)

	assert.NotContains(t, sections[0].Content, "alert")
	assert.NotContains(t, sections[0].Content, "color: red")
	assert.Contains(t, sections[0].Content, "Visible text.")
}

func TestParse_TableLinearization(t *testing.T) {
	doc := `<html><body>
		<h1>Supplements</h1>
		<p>Recommended products.</p>
		<table>
			<tr><th>Name</th><th>Dose</th></tr>
			<tr><td>Melatonin</td><td>3mg</td></tr>
			<tr><td>Magnesium</td><td>200mg</td></tr>
		</table>
	</body></html>`

	sections, err := NewParser().Parse(doc)
	require.NoError(t, err)
	require.Len(t, sections, 1)

	content := sections[0].Content
	assert.Contains(t, content, "Name: Melatonin")
	assert.Contains(t, content, "Dose: 3mg")
	assert.Contains(t, content, "Name: Magnesium")
	assert.Contains(t, content, "Dose: 200mg")

	// Two row blocks separated by exactly one separator line.
	assert.Equal(t, 1, strings.Count(content, RowSeparator))

	// Table text replaces the table in document order, after the paragraph.
	assert.Less(t, strings.Index(content, "Recommended products."), strings.Index(content, "Name: Melatonin"))
}

func TestParse_TableExtraCellsKeptAsBareValues(t *testing.T) {
	doc := `<body><table>
		<tr><th>Name</th></tr>
		<tr><td>Zinc</td><td>30mg</td></tr>
	</table></body>`

	sections, err := NewParser().Parse(doc)
	require.NoError(t, err)
	require.Len(t, sections, 1)

	assert.Contains(t, sections[0].Content, "Name: Zinc")
	assert.Contains(t, sections[0].Content, "30mg")
	assert.NotContains(t, sections[0].Content, ": 30mg")
}

func TestParse_EmptySectionsDropped(t *testing.T) {
	doc := `<body>
		<h1>Empty</h1>
		<h1>Full</h1>
		<p>Content here.</p>
	</body>`

	sections, err := NewParser().Parse(doc)
	require.NoError(t, err)
	require.Len(t, sections, 1)
	assert.Equal(t, "Full", sections[0].Header)
}

func TestParse_EmptyDocument(t *testing.T) {
	_, err := NewParser().Parse("   \n  ")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeEmptyDocument, apperrors.GetCode(err))
}

func TestParse_NestedContainersDescended(t *testing.T) {
	doc := `<body>
		<h1>Lists</h1>
		<div><ul><li>first item</li><li>second item</li></ul></div>
	</body>`

	sections, err := NewParser().Parse(doc)
	require.NoError(t, err)
	require.Len(t, sections, 1)
	assert.Contains(t, sections[0].Content, "first item")
	assert.Contains(t, sections[0].Content, "second item")
}
