package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/UllasZ/teams-taiga-integration/internal/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	// Global flags
	verbose    bool
	logFile    string
	configPath string
	dryRun     bool

	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "teams-taiga",
	Short: "File Teams chat messages as Taiga user stories and sub-tasks",
	Long: `teams-taiga turns chat messages into Taiga work items.

Each message is checked against the project's existing user stories. Exact
or near duplicates are skipped, related messages become sub-tasks of the
story they belong to, and anything new becomes a user story with a
generated description and priority.

Configuration comes from an optional YAML file (--config) and the
environment (TAIGA_*, AI_*, OLLAMA_*, ANTHROPIC_*, GEMINI_*, TEAMS_SECRET,
LISTEN_ADDR, TT_DEDUP_*). Environment variables win.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zc := zap.NewProductionConfig()
		if verbose {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		if logFile != "" {
			zc.OutputPaths = append(zc.OutputPaths, logFile)
		}
		var err error
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		logger.Debug("configuration loaded", zap.Stringer("config", cfg))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also write logs to this file")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "teams-taiga.yaml", "Path to YAML config file (optional)")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Use an in-memory backend instead of Taiga")
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		var code errExitCode
		if !errors.As(err, &code) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(exitCode(err))
	}
}
