package parse

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// RowSeparator separates linearized table rows.
const RowSeparator = "---"

// linearizeTable converts an HTML table into structured text.
//
// The first row supplies field names; each subsequent row becomes a block of
// "field: value" lines, and rows are separated by the row separator:
//
//	Name: Melatonin
//	Dose: 3mg
//	---
//	Name: Magnesium
//	Dose: 200mg
func linearizeTable(table *html.Node) string {
	rows := collectRows(table)
	if len(rows) == 0 {
		return ""
	}

	headers := cellTexts(rows[0])
	if len(headers) == 0 {
		return ""
	}

	blocks := make([]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		cells := cellTexts(row)
		if len(cells) == 0 {
			continue
		}

		lines := make([]string, 0, len(cells))
		for i, value := range cells {
			if i < len(headers) {
				lines = append(lines, headers[i]+": "+value)
			} else {
				lines = append(lines, value)
			}
		}
		blocks = append(blocks, strings.Join(lines, "\n"))
	}

	return strings.Join(blocks, "\n"+RowSeparator+"\n")
}

// collectRows returns all <tr> descendants of a table in document order.
func collectRows(table *html.Node) []*html.Node {
	var rows []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.DataAtom == atom.Tr {
				rows = append(rows, c)
				continue
			}
			walk(c)
		}
	}
	walk(table)
	return rows
}

// cellTexts returns the text of each <td>/<th> cell in a row.
func cellTexts(row *html.Node) []string {
	var cells []string
	for c := row.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if c.DataAtom == atom.Td || c.DataAtom == atom.Th {
			cells = append(cells, nodeText(c))
		}
	}
	return cells
}
