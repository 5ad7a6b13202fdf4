package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ololopopova/ai-chat/internal/search"
)

func newContextCmd() *cobra.Command {
	var flags searchFlags

	cmd := &cobra.Command{
		Use:   "context <query>",
		Short: "Build a prompt-ready context block for a query",
		Long: `Context searches a domain and assembles the matching chunks into a
single markdown block suitable for injection into an LLM prompt.

Examples:
  ai-chat context "melatonin dosage" --domain supplements
  ai-chat context "sleep hygiene" --domain supplements --top-k 3`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")

			rt, err := newRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.close()

			block, err := rt.engine.GetContext(cmd.Context(), flags.domain, query, search.SearchOptions{
				TopK:     flags.topK,
				MinScore: flags.minScore,
				Mode:     search.SearchMode(flags.mode),
			})
			if err != nil {
				return err
			}

			if block == "" {
				fmt.Println("No matching content.")
				return nil
			}
			fmt.Println(block)
			return nil
		},
	}

	cmd.Flags().StringVarP(&flags.domain, "domain", "d", "", "Knowledge domain to search (required)")
	cmd.Flags().IntVarP(&flags.topK, "top-k", "n", 0, "Maximum number of chunks")
	cmd.Flags().Float64Var(&flags.minScore, "min-score", 0, "Drop chunks scoring below this")
	cmd.Flags().StringVarP(&flags.mode, "mode", "m", "hybrid", "Search mode: sparse, dense, hybrid")
	_ = cmd.MarkFlagRequired("domain")

	return cmd
}
