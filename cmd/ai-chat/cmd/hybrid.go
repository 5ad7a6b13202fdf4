package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"
)

// hybridFlags holds CLI flags for multi-query hybrid retrieval.
type hybridFlags struct {
	domain   string
	dense    []string
	sparse   []string
	question string
	topK     int
	perQuery int
	minScore float64
	format   string
}

func newHybridCmd() *cobra.Command {
	var flags hybridFlags

	cmd := &cobra.Command{
		Use:   "hybrid",
		Short: "Fan out multiple queries and fuse the results",
		Long: `Hybrid runs several dense and sparse sub-queries against a domain in
parallel, deduplicates the candidates keeping each chunk's best score,
and optionally reranks the pool with a cross-encoder against --question.

If the reranker is unavailable the fusion ordering is returned as is.

Examples:
  ai-chat hybrid --domain supplements \
    --dense "how does melatonin affect sleep" \
    --sparse "melatonin" --sparse "magnesium glycinate"
  ai-chat hybrid --domain supplements \
    --dense "natural sleep aids" --sparse "valerian" \
    --question "what helps with falling asleep faster"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.close()

			results, err := rt.engine.HybridSearch(cmd.Context(), flags.domain,
				flags.dense, flags.sparse, flags.perQuery)
			if err != nil {
				return err
			}

			if flags.question != "" && len(results) > 0 {
				reranked, err := rt.engine.Rerank(cmd.Context(), flags.question, results, flags.topK)
				if err != nil {
					slog.Warn("reranker unavailable, keeping fusion order",
						slog.String("error", err.Error()))
				} else {
					results = reranked
				}
			}
			if flags.topK > 0 && len(results) > flags.topK {
				results = results[:flags.topK]
			}
			if flags.minScore > 0 {
				kept := results[:0]
				for _, r := range results {
					if r.Score >= flags.minScore {
						kept = append(kept, r)
					}
				}
				results = kept
			}

			return printResults(results, flags.format)
		},
	}

	cmd.Flags().StringVarP(&flags.domain, "domain", "d", "", "Knowledge domain to search (required)")
	cmd.Flags().StringArrayVar(&flags.dense, "dense", nil, "Dense sub-query (repeatable)")
	cmd.Flags().StringArrayVar(&flags.sparse, "sparse", nil, "Sparse sub-query (repeatable)")
	cmd.Flags().StringVarP(&flags.question, "question", "q", "", "Question to rerank the candidate pool against")
	cmd.Flags().IntVarP(&flags.topK, "top-k", "n", 10, "Maximum number of results")
	cmd.Flags().IntVar(&flags.perQuery, "per-query", 0, "Candidates fetched per sub-query")
	cmd.Flags().Float64Var(&flags.minScore, "min-score", 0, "Drop results scoring below this")
	cmd.Flags().StringVarP(&flags.format, "format", "f", "text", "Output format: text, json")
	_ = cmd.MarkFlagRequired("domain")

	return cmd
}
