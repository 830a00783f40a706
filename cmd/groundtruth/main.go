package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"groundtruth/internal/config"
)

const version = "1.0.0"

var (
	// Global flags
	cfgPath     string
	rulesDir    string
	journalPath string
	verbose     bool

	// Loaded configuration
	cfg *config.Config

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "groundtruth",
	Short: "groundtruth - rule-backed decisions for property listings",
	Long: `groundtruth evaluates property marketplace decisions: listing
validation, valuation, and personalized recommendation.

Decisions run against declarative Mangle rule programs with a
deterministic heuristic fallback, so a broken rule file degrades
service quality instead of availability.

Every decision command reads a JSON request from stdin (or a file
argument) and writes a JSON envelope to stdout. Logs go to stderr and
decisions are recorded in a local journal for audit.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return err
		}
		if rulesDir != "" {
			cfg.Rules.Dir = rulesDir
		}
		if journalPath != "" {
			cfg.Journal.Path = journalPath
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		// Initialize logger
		zc := zap.NewProductionConfig()
		if cfg.Logging.Format == "text" {
			zc = zap.NewDevelopmentConfig()
		}
		zc.Level = zap.NewAtomicLevelAt(configuredLevel())
		if verbose {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func configuredLevel() zapcore.Level {
	switch cfg.Logging.Level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// versionCmd prints the release version
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the groundtruth version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "groundtruth %s\n", version)
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "groundtruth.yaml", "Path to the configuration file")
	rootCmd.PersistentFlags().StringVar(&rulesDir, "rules-dir", "", "Directory of rule files overriding the embedded set")
	rootCmd.PersistentFlags().StringVar(&journalPath, "journal", "", "Path to the decision journal database")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
