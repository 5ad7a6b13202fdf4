package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ololopopova/ai-chat/internal/store"
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show chunk counts per domain",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			st, err := store.Open(store.Config{
				DataDir:    cfg.Paths.DataDir,
				Dimensions: cfg.Embeddings.Dimensions,
			})
			if err != nil {
				return err
			}
			defer st.Close()

			counts, err := st.CountByDomain(cmd.Context())
			if err != nil {
				return err
			}
			if len(counts) == 0 {
				fmt.Println("No domains ingested yet.")
				return nil
			}

			domains := make([]string, 0, len(counts))
			for d := range counts {
				domains = append(domains, d)
			}
			sort.Strings(domains)

			total := 0
			fmt.Printf("%-24s %s\n", "DOMAIN", "CHUNKS")
			for _, d := range domains {
				fmt.Printf("%-24s %d\n", d, counts[d])
				total += counts[d]
			}
			fmt.Printf("%-24s %d\n", "total", total)
			return nil
		},
	}
	return cmd
}
