package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/graphsmith/pkg/graphsmith"
	"github.com/randalmurphal/graphsmith/pkg/graphsmith/catalog"
	"github.com/randalmurphal/graphsmith/pkg/graphsmith/config"
	"github.com/randalmurphal/graphsmith/pkg/graphsmith/history"
	"github.com/randalmurphal/graphsmith/pkg/graphsmith/llm"
	"github.com/randalmurphal/graphsmith/pkg/graphsmith/observability"
)

var rootCmd = &cobra.Command{
	Use:   "graphsmith",
	Short: "Graphsmith turns plain-language automation requests into workflow graphs",
	Long: `Graphsmith runs a staged generation pipeline against a language-model
collaborator to turn a free-text automation request into a validated,
executable workflow graph.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("catalog", "", "Path to a YAML capability catalogue (defaults to the builtin set)")
	rootCmd.PersistentFlags().String("history", "", "Path to the run history database (empty disables persistence)")
	rootCmd.PersistentFlags().String("claude-path", "", "Path to the claude binary")
	rootCmd.PersistentFlags().String("model", "", "Model name passed to the collaborator")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
}

// loadConfig reads the --config file when given, otherwise returns an
// empty config so flag defaults apply.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return config.New(nil), nil
	}
	return config.FromFile(path)
}

// stringSetting resolves a setting with flag-over-file precedence.
func stringSetting(cmd *cobra.Command, cfg config.Config, flag, key, fallback string) string {
	if v, _ := cmd.Flags().GetString(flag); v != "" {
		return v
	}
	return cfg.String(key, fallback)
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func loadCatalog(cmd *cobra.Command, cfg config.Config) (*catalog.Catalog, error) {
	path := stringSetting(cmd, cfg, "catalog", "catalog.path", "")
	if path == "" {
		return catalog.Builtin(), nil
	}
	return catalog.FromFile(path)
}

// openHistory returns the configured run store, or nil when persistence
// is disabled. The caller owns the returned closer.
func openHistory(cmd *cobra.Command, cfg config.Config) (history.Store, func() error, error) {
	path := stringSetting(cmd, cfg, "history", "history.path", "")
	if path == "" {
		return nil, func() error { return nil }, nil
	}
	store, err := history.NewSQLiteStore(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open history store: %w", err)
	}
	return store, store.Close, nil
}

// buildPipeline assembles a pipeline from flags and config. The returned
// store is nil when persistence is disabled; the closer releases it.
func buildPipeline(cmd *cobra.Command) (*graphsmith.Pipeline, history.Store, func() error, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}

	cat, err := loadCatalog(cmd, cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load catalogue: %w", err)
	}

	store, closeStore, err := openHistory(cmd, cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	var clientOpts []llm.ClaudeOption
	if path := stringSetting(cmd, cfg, "claude-path", "claude.path", ""); path != "" {
		clientOpts = append(clientOpts, llm.WithClaudePath(path))
	}
	if model := stringSetting(cmd, cfg, "model", "claude.model", ""); model != "" {
		clientOpts = append(clientOpts, llm.WithModel(model))
	}
	client := llm.NewClaudeCLI(clientOpts...)

	opts := []graphsmith.Option{
		graphsmith.WithLogger(newLogger(cmd)),
		graphsmith.WithMetrics(observability.NewMetricsRecorder()),
		graphsmith.WithStageTimeout(cfg.Duration("pipeline.stage_timeout", graphsmith.DefaultStageTimeout)),
		graphsmith.WithRefinement(cfg.Bool("pipeline.refine", false)),
	}
	if store != nil {
		opts = append(opts, graphsmith.WithHistory(store))
	}

	p, err := graphsmith.New(client, cat, opts...)
	if err != nil {
		_ = closeStore()
		return nil, nil, nil, err
	}
	return p, store, closeStore, nil
}
