package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/scribe/internal/cli"
	"github.com/aretw0/scribe/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "scribe",
	Short: "Scribe turns plain-language notes into workspace edits",
	Long: `Scribe reads instructions such as "add milk to my shopping list" and
applies them to a page-and-block workspace, asking before it writes.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Path to the configuration file (default scribe.yaml if present)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging and lifecycle tracing")
	rootCmd.PersistentFlags().Bool("demo", false, "Use an in-memory workspace seeded with sample pages")
	rootCmd.PersistentFlags().String("log-level", "", "Override the log level (debug, info, warn, error)")
}

// loadConfig reads the configuration named by --config and applies the global overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}
	return cfg, nil
}

// buildRuntime assembles the assistant from the global flags.
func buildRuntime(cmd *cobra.Command, metrics bool) (*cli.Runtime, *config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	demo, _ := cmd.Flags().GetBool("demo")
	debug, _ := cmd.Flags().GetBool("debug")
	rt, err := cli.Build(cmd.Context(), cfg, cli.BuildOptions{Demo: demo, Debug: debug, Metrics: metrics})
	if err != nil {
		return nil, nil, err
	}
	return rt, cfg, nil
}
