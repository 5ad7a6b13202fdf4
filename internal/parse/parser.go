// Package parse extracts titled sections from raw HTML markup.
//
// Documents are split at top-level (H1) heading boundaries; content between
// one H1 and the next belongs to the preceding section. Tables are
// linearized into field:value text so they survive full-text and vector
// indexing.
package parse

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	apperrors "github.com/ololopopova/ai-chat/internal/errors"
)

// Section is a parsed document section.
type Section struct {
	// Header is the section title taken from the heading tag.
	Header string

	// HeaderLevel is the heading nesting depth (1 for H1).
	HeaderLevel int

	// Content is the extracted text of the section.
	Content string
}

// FallbackHeader titles a document that has no top-level headings.
const FallbackHeader = "Document"

// Parser converts raw HTML into an ordered list of sections.
// It is stateless and safe for concurrent use.
type Parser struct{}

// NewParser creates a new HTML section parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse splits the document at H1 boundaries and returns the sections in
// document order. If no H1 headings exist, the entire document becomes a
// single section titled "Document". Empty sections are dropped.
func (p *Parser) Parse(raw string) ([]Section, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, apperrors.New(apperrors.ErrCodeEmptyDocument, "document is empty", nil)
	}

	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return nil, apperrors.ParseError("malformed markup", err)
	}

	body := findBody(doc)
	if body == nil {
		return nil, apperrors.ParseError("document has no body", nil)
	}

	var sections []Section
	current := -1 // index into sections; -1 = preamble before first H1
	var preamble []string
	var parts [][]string

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				if text := strings.TrimSpace(c.Data); text != "" {
					appendPart(&preamble, &parts, current, text)
				}
				continue
			}
			if c.Type != html.ElementNode {
				continue
			}

			switch c.DataAtom {
			case atom.Script, atom.Style, atom.Head, atom.Noscript, atom.Svg:
				// Non-content markup is stripped entirely.
				continue
			case atom.H1:
				sections = append(sections, Section{
					Header:      nodeText(c),
					HeaderLevel: 1,
				})
				parts = append(parts, nil)
				current = len(sections) - 1
				continue
			case atom.Table:
				if text := linearizeTable(c); text != "" {
					appendPart(&preamble, &parts, current, text)
				}
				continue
			case atom.P, atom.Li, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
				atom.Pre, atom.Blockquote, atom.Td, atom.Th:
				if text := nodeText(c); text != "" {
					appendPart(&preamble, &parts, current, text)
				}
				continue
			default:
				// Containers (div, ul, section, ...) are descended into.
				walk(c)
			}
		}
	}
	walk(body)

	if len(sections) == 0 {
		content := strings.TrimSpace(strings.Join(preamble, "\n\n"))
		return []Section{{Header: FallbackHeader, HeaderLevel: 1, Content: content}}, nil
	}

	out := make([]Section, 0, len(sections))
	for i, s := range sections {
		s.Content = strings.TrimSpace(strings.Join(parts[i], "\n\n"))
		if s.Content == "" {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// appendPart routes extracted text to the current section, or to the
// preamble when no H1 has been seen yet.
func appendPart(preamble *[]string, parts *[][]string, current int, text string) {
	if current < 0 {
		*preamble = append(*preamble, text)
		return
	}
	(*parts)[current] = append((*parts)[current], text)
}

// findBody locates the <body> element, or nil if absent.
func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == atom.Body {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if body := findBody(c); body != nil {
			return body
		}
	}
	return nil
}

// nodeText returns the concatenated, whitespace-collapsed text of a node's
// subtree, skipping script and style content.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			return
		}
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style:
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
