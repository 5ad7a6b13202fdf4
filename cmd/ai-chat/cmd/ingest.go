package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ololopopova/ai-chat/internal/ingest"
)

func newIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <domain> <file>",
		Short: "Ingest an HTML document into a domain",
		Long: `Ingest parses an HTML document into sections, chunks them, generates
embeddings and atomically replaces the domain's stored chunks.

Re-ingesting a domain replaces its previous content wholesale. Any
failure before the store write leaves the previous content untouched.

Examples:
  ai-chat ingest supplements ./docs/supplements.html
  ai-chat ingest faq ./site/faq.html --debug`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			domain, path := args[0], args[1]

			raw, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}

			rt, err := newRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.close()

			svc := ingest.NewService(rt.embedder, rt.store, rt.cfg.Ingest.MinChunkSize)
			summary, err := svc.Ingest(cmd.Context(), domain, string(raw))
			if err != nil {
				return err
			}

			fmt.Printf("Ingested %q into domain %q\n", path, domain)
			fmt.Printf("  chunks:     %d\n", summary.ChunksCreated)
			fmt.Printf("  embeddings: %d\n", summary.EmbeddingsGenerated)
			fmt.Printf("  elapsed:    %s\n", summary.Duration.Round(1e6))
			return nil
		},
	}
	return cmd
}
