// =============================================================================
// Sevkiyat Converter - Process Command
// =============================================================================
//
// This file defines the 'process' command, which converts branch order CSVs
// into shipment workbooks.
//
// COMMAND USAGE:
//   sevkiyat process [files...] [flags]
//
// FLAGS:
//   --input-dir : Directory to scan when no files are given
//   --pattern   : Glob used with --input-dir (default "*.csv")
//   --recursive : Scan --input-dir recursively for .csv files
//   --catalog   : Catalog file, overrides catalog_file
//   --output    : Output directory, overrides output_dir
//   --archive   : Archive directory, overrides archive_dir
//
// PROCESSING PIPELINE:
//   1. Load the catalog and build the matcher
//   2. Collect input files (arguments in order, or sorted discovery)
//   3. Create the run directory
//   4. Run the batch, one file at a time, printing progress
//   5. Write the processing summary log
//   6. Archive successfully processed inputs
//   7. Print the summary table
//
// Ctrl-C stops the batch after the file in progress; the summary still
// covers every file that finished.
//
// =============================================================================

package cmd

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/sevkiyat-converter/internal/batch"
	"github.com/ginjaninja78/sevkiyat-converter/internal/catalog"
	"github.com/ginjaninja78/sevkiyat-converter/internal/converter"
	"github.com/ginjaninja78/sevkiyat-converter/internal/csvparser"
	"github.com/ginjaninja78/sevkiyat-converter/internal/errors"
	"github.com/ginjaninja78/sevkiyat-converter/internal/logging"
	"github.com/ginjaninja78/sevkiyat-converter/internal/matcher"
	"github.com/ginjaninja78/sevkiyat-converter/internal/types"
	"github.com/ginjaninja78/sevkiyat-converter/pkg/utils"
)

// errFilesFailed is returned when the batch finished but some files failed.
var errFilesFailed = errors.New("some files failed to convert")

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	inputDir     string
	inputPattern string
	recursive    bool
	catalogPath  string
	outputDir    string
	archiveDir   string
)

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

var processCmd = &cobra.Command{
	Use:   "process [files...]",
	Short: "Convert branch order CSVs into shipment workbooks",
	Long: `The process command converts each input CSV into one XLSX workbook per
category (tatli, donuk, lojistik) plus an eslesmeyen workbook listing items
that matched no catalog entry.

Files are processed one at a time, in the order given. A file that cannot be
read is reported and skipped; the rest of the batch continues.

On completion:
  - Workbooks are in a new run directory under the output directory
  - A processing_summary_<timestamp>.txt log is written next to them
  - Successfully processed inputs are moved to the archive (if configured)

Exit status is non-zero when any file failed or the batch was interrupted.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().StringVar(&inputDir, "input-dir", "", "Directory to scan when no files are given")
	processCmd.Flags().StringVar(&inputPattern, "pattern", "*.csv", "Glob pattern used with --input-dir")
	processCmd.Flags().BoolVar(&recursive, "recursive", false, "Scan --input-dir recursively for .csv files")
	processCmd.Flags().StringVar(&catalogPath, "catalog", "", "Catalog file (overrides catalog_file)")
	processCmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory (overrides output_dir)")
	processCmd.Flags().StringVar(&archiveDir, "archive", "", "Archive directory (overrides archive_dir)")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runProcess(cmd *cobra.Command, args []string) error {
	c := *appConfig
	cfg := &c
	if catalogPath != "" {
		cfg.CatalogFile = catalogPath
	}
	if outputDir != "" {
		cfg.OutputDir = outputDir
	}
	if archiveDir != "" {
		cfg.ArchiveDir = archiveDir
	}

	// =========================================================================
	// STEP 1: CATALOG AND MATCHER
	// =========================================================================

	cat, err := loadCatalog(cfg.CatalogFile)
	if err != nil {
		return err
	}
	m := matcher.New(cat,
		matcher.WithThreshold(cfg.FuzzyThreshold),
		matcher.WithLogger(logger),
	)

	settings, err := csvparser.SettingsFromConfig(cfg)
	if err != nil {
		return err
	}

	// =========================================================================
	// STEP 2: INPUT FILES
	// =========================================================================

	fm := utils.NewFileManager(inputDir, cfg.OutputDir, cfg.ArchiveDir)
	fm.UseTimestampSubdirs = cfg.ArchiveTimestampSubdirs
	files, err := collectInputs(fm, args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		pterm.Warning.Println("No input files to process.")
		return nil
	}

	// =========================================================================
	// STEP 3: RUN DIRECTORY
	// =========================================================================

	if err := fm.EnsureDirectories(); err != nil {
		return err
	}
	runID := uuid.New().String()
	runDir := cfg.OutputDir
	if cfg.RunSubdir {
		runDir, err = fm.CreateRunDirectory(runID, time.Now())
		if err != nil {
			return err
		}
	}
	log := logger.With(logging.FieldRunID, runID)
	log.Infow("starting batch",
		logging.FieldCount, len(files),
		logging.FieldPath, runDir,
		"catalog", cat.Source,
	)

	// =========================================================================
	// STEP 4: RUN THE BATCH
	// =========================================================================

	conv := converter.New(settings, m, runDir,
		converter.WithNameFormat(cfg.OutputNameFormat),
		converter.WithLogger(logger),
	)
	progress := newProgressPrinter(verbose)
	orch := batch.New(conv,
		batch.WithRunID(runID),
		batch.WithLogger(logger),
		batch.WithObserver(progress.Observe),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pterm.DefaultHeader.WithFullWidth().Printf("Sevkiyat Converter")
	pterm.Info.Printf("Catalog: %s (%d entries)\n", cat.Source, cat.Size())
	pterm.Info.Printf("Output:  %s\n", runDir)
	pterm.Println()

	summary := orch.RunBatch(ctx, files)

	// =========================================================================
	// STEP 5: SUMMARY LOG
	// =========================================================================

	summaryPath, err := utils.WriteSummaryLog(summary, runDir)
	if err != nil {
		log.Errorw("failed to write summary log", logging.FieldError, err)
	}

	// =========================================================================
	// STEP 6: ARCHIVE
	// =========================================================================

	if cfg.ArchiveDir != "" {
		for _, o := range summary.Outcomes {
			if !o.Succeeded() {
				continue
			}
			archived, err := fm.ArchiveInputFile(o.SourceFile)
			if err != nil {
				log.Warnw("archival failed", logging.FieldFile, o.SourceFile, logging.FieldError, err)
				continue
			}
			log.Debugw("archived input", logging.FieldFile, o.SourceFile, logging.FieldPath, archived)
		}
	}

	// =========================================================================
	// STEP 7: PRINT SUMMARY
	// =========================================================================

	printSummary(summary, summaryPath)

	return batchError(summary, summaryPath)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// loadCatalog loads and validates the catalog. Warnings are logged; errors
// stop the run.
func loadCatalog(path string) (*catalog.Catalog, error) {
	cat, err := catalog.Load(path)
	if err != nil {
		return nil, err
	}
	result := catalog.Validate(cat)
	for _, issue := range result.Issues {
		if issue.Severity == catalog.SeverityWarning {
			logger.Warnw("catalog issue", "rule", issue.Rule, logging.FieldCategory, issue.Category, "entry", issue.Entry, "message", issue.Message)
		}
	}
	if !result.IsValid {
		return nil, errors.WithHintf(
			errors.Newf("catalog %s has %d error(s)", path, result.ErrorCount),
			"run 'sevkiyat catalog validate --catalog %s' to list them", path,
		)
	}
	return cat, nil
}

// collectInputs returns the explicit arguments in the given order, or the
// sorted contents of the input directory.
func collectInputs(fm *utils.FileManager, args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	if fm.InputDir == "" {
		return nil, errors.WithHint(
			errors.New("no input files given"),
			"pass CSV files as arguments or use --input-dir",
		)
	}
	if recursive {
		return fm.DiscoverInputFilesRecursive(".csv")
	}
	return fm.DiscoverInputFiles(inputPattern)
}

// batchError is the command result for a finished batch. summaryPath is
// empty when the summary log could not be written.
func batchError(summary types.BatchSummary, summaryPath string) error {
	switch {
	case summary.Interrupted:
		return errors.WithStack(errors.ErrBatchInterrupted)
	case summary.FailedFiles > 0 && summaryPath != "":
		return errors.WithHintf(errFilesFailed, "see %s for details", summaryPath)
	case summary.FailedFiles > 0:
		return errFilesFailed
	}
	return nil
}

// exitCode maps the command error to a process exit status.
func exitCode(err error) int {
	switch {
	case errors.Is(err, errors.ErrBatchInterrupted):
		return 130
	case errors.Is(err, errFilesFailed):
		return 2
	}
	return 1
}
