package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ololopopova/ai-chat/internal/search"
)

// searchFlags holds CLI flags for single-query search.
type searchFlags struct {
	domain   string
	topK     int
	minScore float64
	mode     string
	format   string
}

func newSearchCmd() *cobra.Command {
	var flags searchFlags

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search one domain with a single query",
		Long: `Search runs a single query against a domain using the selected mode:
sparse (full-text), dense (vector) or hybrid (weighted fusion of both).

Examples:
  ai-chat search "melatonin dosage" --domain supplements
  ai-chat search "sleep quality" --domain supplements --mode dense --top-k 3
  ai-chat search "magnesium" --domain supplements --min-score 0.5 --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")

			rt, err := newRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.close()

			results, err := rt.engine.Search(cmd.Context(), flags.domain, query, search.SearchOptions{
				TopK:     flags.topK,
				MinScore: flags.minScore,
				Mode:     search.SearchMode(flags.mode),
			})
			if err != nil {
				return err
			}

			return printResults(results, flags.format)
		},
	}

	cmd.Flags().StringVarP(&flags.domain, "domain", "d", "", "Knowledge domain to search (required)")
	cmd.Flags().IntVarP(&flags.topK, "top-k", "n", 0, "Maximum number of results")
	cmd.Flags().Float64Var(&flags.minScore, "min-score", 0, "Drop results scoring below this")
	cmd.Flags().StringVarP(&flags.mode, "mode", "m", "hybrid", "Search mode: sparse, dense, hybrid")
	cmd.Flags().StringVarP(&flags.format, "format", "f", "text", "Output format: text, json")
	_ = cmd.MarkFlagRequired("domain")

	return cmd
}

func printResults(results []search.SearchResult, format string) error {
	if format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results.")
		return nil
	}
	for i, r := range results {
		fmt.Printf("%d. [%s] %s (score %.3f)\n", i+1, r.Kind, r.Header, r.Score)
		fmt.Printf("   %s\n", snippet(r.Content, 160))
	}
	return nil
}

// snippet truncates content for terminal output, cutting on a rune
// boundary so multibyte text stays valid.
func snippet(s string, maxLen int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
