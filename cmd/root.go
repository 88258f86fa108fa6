// =============================================================================
// Sevkiyat Converter - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Every subcommand is
// attached here.
//
// COBRA CLI STRUCTURE:
//   rootCmd (sevkiyat)
//   ├── processCmd  (sevkiyat process)
//   ├── catalogCmd  (sevkiyat catalog)
//   │   └── catalogValidateCmd (sevkiyat catalog validate)
//   └── versionCmd  (sevkiyat version)
//
// CONFIGURATION:
//   Before any subcommand runs, the root command:
//   1. Loads config.yaml (optional) with SEVKIYAT_ environment overrides
//   2. Applies --log-level / --verbose / --json-logs
//   3. Builds the shared zap logger
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/sevkiyat-converter/internal/config"
	"github.com/ginjaninja78/sevkiyat-converter/internal/errors"
	"github.com/ginjaninja78/sevkiyat-converter/internal/logging"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// verbose switches logging to debug.
var verbose bool

// logLevel overrides log_level from the config file.
var logLevel string

// jsonLogs switches the logger to JSON output.
var jsonLogs bool

// appConfig and logger are populated by PersistentPreRunE.
var (
	appConfig *config.Config
	logger    *zap.SugaredLogger
)

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "sevkiyat",
	Short: "Sevkiyat Converter - Turn branch order CSVs into shipment workbooks",
	Long: `Sevkiyat Converter reads branch order exports (CSV) and produces one
XLSX shipment manifest per category: Tatlı, Donuk and Lojistik. Items that
match no catalog entry are listed in a separate Eşleşmeyen workbook so nothing
is lost.

Key Features:
  - Tolerant CSV parsing (UTF-8, Windows-1254, ISO-8859-9; , ; tab |)
  - Exact and fuzzy matching against editable YAML or XLSX catalogs
  - Per-file isolation: one broken export never stops the batch
  - Processing summary log and optional archival of processed inputs

Example Usage:
  sevkiyat process adana27.csv izmir.csv   # Convert the given files
  sevkiyat process --input-dir ./siparisler # Convert every CSV in a directory
  sevkiyat catalog validate                 # Check the catalog for problems`,

	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		if verbose {
			cfg.LogLevel = "debug"
		}
		if cmd.Flags().Changed("json-logs") {
			cfg.JSONLogs = jsonLogs
		}

		l, err := logging.New(cfg.LogLevel, cfg.JSONLogs)
		if err != nil {
			return errors.Wrapf(err, "invalid log level %q", cfg.LogLevel)
		}
		appConfig, logger = cfg, l
		return nil
	},

	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},

	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the CLI. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if hint := errors.FlattenHints(err); hint != "" {
			fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
		}
		os.Exit(exitCode(err))
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the configuration file (optional)",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)
	rootCmd.PersistentFlags().StringVar(
		&logLevel,
		"log-level",
		"info",
		"Log level: debug, info, warn, error",
	)
	rootCmd.PersistentFlags().BoolVar(
		&jsonLogs,
		"json-logs",
		false,
		"Write logs as JSON to stderr",
	)
}
