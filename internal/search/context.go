package search

import "strings"

// FallbackContextHeader labels a context block whose source chunk has no
// section header.
const FallbackContextHeader = "Information"

// Assemble renders ranked results into a single context string. Each
// result becomes a heading line followed by its content; blocks are joined
// with a blank line in input order. The caller is expected to have already
// sorted, filtered and truncated. Empty input renders to an empty string.
func Assemble(results []SearchResult) string {
	if len(results) == 0 {
		return ""
	}

	blocks := make([]string, 0, len(results))
	for _, r := range results {
		header := r.Header
		if strings.TrimSpace(header) == "" {
			header = FallbackContextHeader
		}
		blocks = append(blocks, "## "+header+"\n\n"+r.Content)
	}
	return strings.Join(blocks, "\n\n")
}
