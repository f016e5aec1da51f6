package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/visvikbharti/reprokit/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "reprokit",
	Short: "Reproducibility bundles for statistical analyses",
	Long: `reprokit inspects, validates, verifies and converts reproducibility
bundles: sealed, checksummed records of a statistical analysis session
containing dataset fingerprints, derived seeds, the executed pipeline,
and captured module state.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg := log.DefaultConfig()
		cfg.Level = log.ParseLevel(logLevel)
		cfg.Format = log.ParseFormat(logFormat)
		log.SetDefaultLogger(log.New(cfg))
	},
}

var (
	logLevel  string
	logFormat string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with a cancellable context
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
