// Package cmd provides the CLI commands for ai-chat.
//
// The commands form the single degradation boundary of the system: the
// engine below always raises typed errors, and this layer decides what is
// fatal and what degrades gracefully.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ololopopova/ai-chat/internal/config"
	"github.com/ololopopova/ai-chat/internal/embed"
	apperrors "github.com/ololopopova/ai-chat/internal/errors"
	"github.com/ololopopova/ai-chat/internal/logging"
	"github.com/ololopopova/ai-chat/internal/search"
	"github.com/ololopopova/ai-chat/internal/store"
	"github.com/ololopopova/ai-chat/pkg/version"
)

var (
	configPath     string
	debugMode      bool
	loggingCleanup func()
)

// NewRootCmd creates the root command for the ai-chat CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ai-chat",
		Short: "Domain-scoped retrieval engine for knowledge assistants",
		Long: `ai-chat ingests HTML documents into domain-scoped knowledge bases and
serves hybrid retrieval over them: sparse full-text and dense vector
search, fused and optionally reranked by a cross-encoder.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("ai-chat version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	cmd.PersistentPreRunE = setupLogging
	cmd.PersistentPostRun = func(*cobra.Command, []string) {
		if loggingCleanup != nil {
			loggingCleanup()
		}
	}

	cmd.AddCommand(newIngestCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newHybridCmd())
	cmd.AddCommand(newContextCmd())
	cmd.AddCommand(newStatsCmd())

	return cmd
}

// Execute runs the CLI and prints typed errors in their wire form.
func Execute() error {
	err := NewRootCmd().Execute()
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			fmt.Fprintln(os.Stderr, appErr.Error())
		} else {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
	}
	return err
}

func setupLogging(*cobra.Command, []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	level := cfg.Logging.Level
	if debugMode {
		level = "debug"
	}

	cleanup, err := logging.SetupDefault(logging.Config{
		Level:         level,
		FilePath:      cfg.Logging.FilePath,
		WriteToStderr: true,
	})
	if err != nil {
		return err
	}
	loggingCleanup = cleanup
	return nil
}

func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}

// runtime bundles the wired components behind the CLI commands.
type runtime struct {
	cfg      *config.Config
	store    *store.Store
	embedder embed.Embedder
	reranker *search.RerankerHandle
	engine   *search.Engine
}

// newRuntime wires store, embedder and engine from configuration.
func newRuntime(ctx context.Context) (*runtime, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	st, err := store.Open(store.Config{
		DataDir:    cfg.Paths.DataDir,
		Dimensions: cfg.Embeddings.Dimensions,
	})
	if err != nil {
		return nil, err
	}

	provider, err := embed.NewOpenAIEmbedder(embed.OpenAIConfig{
		Endpoint:   cfg.Embeddings.Endpoint,
		APIKey:     cfg.Embeddings.APIKey,
		Model:      cfg.Embeddings.Model,
		Dimensions: cfg.Embeddings.Dimensions,
		Timeout:    cfg.Embeddings.TimeoutDuration(),
		Retry: embed.RetryPolicy{
			MaxAttempts: cfg.Embeddings.MaxRetries,
			MinDelay:    cfg.Embeddings.RetryMinDelayDuration(),
			MaxDelay:    cfg.Embeddings.RetryMaxDelayDuration(),
			Multiplier:  embed.DefaultMultiplier,
			Retryable:   apperrors.IsRetryable,
		},
	})
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	embedder := embed.NewCachedEmbedder(provider, cfg.Embeddings.CacheSize)

	reranker := rerankerHandle(cfg)

	engine := search.NewEngine(st, embedder, reranker, search.EngineConfig{
		TopK:                cfg.Search.TopK,
		MinScore:            cfg.Search.MinScore,
		DenseWeight:         cfg.Search.DenseWeight,
		SparseWeight:        cfg.Search.SparseWeight,
		CandidateMultiplier: cfg.Search.CandidateMultiplier,
	})

	return &runtime{
		cfg:      cfg,
		store:    st,
		embedder: embedder,
		reranker: reranker,
		engine:   engine,
	}, nil
}

// rerankerHandle builds the lazily-initialized shared reranker. When
// reranking is disabled the handle holds a noop that preserves fusion
// order.
func rerankerHandle(cfg *config.Config) *search.RerankerHandle {
	if !cfg.Reranker.Enabled {
		return search.StaticRerankerHandle(&search.NoopReranker{})
	}
	return search.NewRerankerHandle(func(ctx context.Context) (search.Reranker, error) {
		return search.NewHTTPReranker(ctx, search.HTTPRerankerConfig{
			Endpoint: cfg.Reranker.Endpoint,
			Model:    cfg.Reranker.Model,
			Timeout:  cfg.Reranker.TimeoutDuration(),
		})
	})
}

func (r *runtime) close() {
	if err := r.reranker.Close(); err != nil {
		slog.Warn("failed to close reranker", slog.String("error", err.Error()))
	}
	if err := r.embedder.Close(); err != nil {
		slog.Warn("failed to close embedder", slog.String("error", err.Error()))
	}
	if err := r.store.Close(); err != nil {
		slog.Warn("failed to close store", slog.String("error", err.Error()))
	}
}
