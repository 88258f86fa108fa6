// =============================================================================
// Sevkiyat Converter - File Manager Utility
// =============================================================================
//
// This module provides file management utilities for the converter, including:
//   - Input discovery (sorted, so batches run in a stable order)
//   - Per-run output directories
//   - Artifact naming
//   - The batch summary log
//   - Archival of processed inputs
//
// ARCHIVAL STRATEGY:
//   - Input files are moved to the archive directory after they succeed
//   - Failed files remain in their original location
//   - Archival failures are reported but never fail the batch
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ginjaninja78/sevkiyat-converter/internal/errors"
	"github.com/ginjaninja78/sevkiyat-converter/internal/types"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for the converter.
type FileManager struct {
	// InputDir is scanned when no explicit files are given.
	InputDir string

	// OutputDir receives run directories and summary logs.
	OutputDir string

	// ArchiveDir receives successfully processed inputs. Empty disables
	// archival.
	ArchiveDir string

	// UseTimestampSubdirs creates date-based subdirectories in the archive.
	// Example: archive/2026/10/16/adana27.csv
	UseTimestampSubdirs bool
}

// NewFileManager creates a new FileManager with the specified directories.
func NewFileManager(inputDir, outputDir, archiveDir string) *FileManager {
	return &FileManager{
		InputDir:   inputDir,
		OutputDir:  outputDir,
		ArchiveDir: archiveDir,
	}
}

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDirectories creates the configured directories if they don't exist.
// Empty entries are skipped.
func (fm *FileManager) EnsureDirectories() error {
	for _, dir := range []string{fm.OutputDir, fm.ArchiveDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "failed to create directory %s", dir)
		}
	}
	return nil
}

// RunDirectory returns the directory for one batch's artifacts:
// <OutputDir>/sevkiyat_<YYYYMMDD_HHMMSS>_<first 8 chars of runID>.
func (fm *FileManager) RunDirectory(runID string, started time.Time) string {
	short := runID
	if len(short) > 8 {
		short = short[:8]
	}
	name := "sevkiyat_" + started.Format("20060102_150405")
	if short != "" {
		name += "_" + short
	}
	return filepath.Join(fm.OutputDir, name)
}

// CreateRunDirectory creates RunDirectory and returns its path.
func (fm *FileManager) CreateRunDirectory(runID string, started time.Time) (string, error) {
	dir := fm.RunDirectory(runID, started)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "failed to create run directory %s", dir)
	}
	return dir, nil
}

// =============================================================================
// FILE DISCOVERY
// =============================================================================

// DiscoverInputFiles scans the input directory for files matching the pattern.
//
// PARAMETERS:
//   - pattern: A glob pattern to match files (e.g., "*.csv").
//              If empty, defaults to "*.csv".
//
// RETURNS:
//   - File paths sorted by name.
//   - An error if the directory cannot be read.
func (fm *FileManager) DiscoverInputFiles(pattern string) ([]string, error) {
	if pattern == "" {
		pattern = "*.csv"
	}

	if _, err := os.Stat(fm.InputDir); err != nil {
		return nil, errors.Wrap(err, "failed to scan input directory")
	}
	files, err := filepath.Glob(filepath.Join(fm.InputDir, pattern))
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan input directory")
	}

	var result []string
	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil {
			continue
		}
		if !info.IsDir() {
			result = append(result, file)
		}
	}

	sort.Strings(result)
	return result, nil
}

// DiscoverInputFilesRecursive scans the input directory recursively for files
// with the given extension (case-insensitive). Results are sorted.
func (fm *FileManager) DiscoverInputFilesRecursive(extension string) ([]string, error) {
	var files []string

	err := filepath.Walk(fm.InputDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if extension == "" || strings.HasSuffix(strings.ToLower(path), strings.ToLower(extension)) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to walk input directory")
	}

	sort.Strings(files)
	return files, nil
}

// =============================================================================
// FILE ARCHIVAL
// =============================================================================

// ArchiveInputFile moves an input file to the archive directory.
//
// RETURNS:
//   - The path to the archived file (the original path when archival is
//     disabled).
//   - An error if archival fails.
func (fm *FileManager) ArchiveInputFile(filePath string) (string, error) {
	if fm.ArchiveDir == "" {
		return filePath, nil
	}

	archivePath := fm.getArchivePath(filePath, time.Now())
	if err := os.MkdirAll(filepath.Dir(archivePath), 0o755); err != nil {
		return "", errors.Wrap(err, "failed to create archive directory")
	}

	if err := os.Rename(filePath, archivePath); err != nil {
		// Cross-device moves fall back to copy and delete.
		if err := copyFile(filePath, archivePath); err != nil {
			return "", errors.Wrap(err, "failed to copy file to archive")
		}
		if err := os.Remove(filePath); err != nil {
			return "", errors.Wrap(err, "failed to remove original file")
		}
	}

	return archivePath, nil
}

func (fm *FileManager) getArchivePath(filePath string, now time.Time) string {
	fileName := filepath.Base(filePath)
	if fm.UseTimestampSubdirs {
		return filepath.Join(
			fm.ArchiveDir,
			fmt.Sprintf("%d", now.Year()),
			fmt.Sprintf("%02d", now.Month()),
			fmt.Sprintf("%02d", now.Day()),
			fileName,
		)
	}
	return filepath.Join(fm.ArchiveDir, fileName)
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// OutputExtension is forced onto every artifact name.
const OutputExtension = ".xlsx"

// GenerateOutputFileName expands an artifact name format.
//
// PARAMETERS:
//   - format: The format string for the file name.
//             Placeholders:
//               {uuid}      - A random UUID
//               {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
//               {date}      - Current date (YYYYMMDD)
//               {time}      - Current time (HHMMSS)
//               {original}  - Original file name (without extension)
//               {category}  - Category key (tatli, donuk, lojistik, eslesmeyen)
//               {branch}    - Branch code
//   - params: A map of placeholder values.
//
// RETURNS:
//   - The generated file name. Path separators in values are replaced, and
//     the .xlsx extension is appended when missing.
//
// EXAMPLE:
//   format: "{original}_{category}.xlsx"
//   params: {"original": "adana27", "category": "tatli"}
//   output: "adana27_tatli.xlsx"
func GenerateOutputFileName(format string, params map[string]string) string {
	now := time.Now()

	replacements := map[string]string{
		"{timestamp}": now.Format("20060102_150405"),
		"{date}":      now.Format("20060102"),
		"{time}":      now.Format("150405"),
	}
	if strings.Contains(format, "{uuid}") {
		replacements["{uuid}"] = uuid.New().String()
	}
	for key, value := range params {
		replacements["{"+key+"}"] = sanitizeName(value)
	}

	result := format
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	if !strings.HasSuffix(strings.ToLower(result), OutputExtension) {
		result += OutputExtension
	}
	return result
}

var nameReplacer = strings.NewReplacer("/", "_", "\\", "_", ":", "_", "\x00", "")

func sanitizeName(s string) string {
	return nameReplacer.Replace(strings.TrimSpace(s))
}

// FileStem returns the file name without directory and extension.
func FileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// =============================================================================
// PROCESSING SUMMARY
// =============================================================================

// SummaryFileName returns the summary log name for a batch finished at t.
func SummaryFileName(t time.Time) string {
	return fmt.Sprintf("processing_summary_%s.txt", t.Format("20060102_150405"))
}

// WriteSummaryLog writes a batch summary to a text file in outputDir.
//
// RETURNS:
//   - The path to the summary file.
//   - An error if writing fails.
func WriteSummaryLog(summary types.BatchSummary, outputDir string) (string, error) {
	finished := summary.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}
	summaryPath := filepath.Join(outputDir, SummaryFileName(finished))

	file, err := os.Create(summaryPath)
	if err != nil {
		return "", errors.Wrap(err, "failed to create summary file")
	}
	defer file.Close()

	w := bufio.NewWriter(file)

	status := "completed"
	if summary.Interrupted {
		status = fmt.Sprintf("interrupted (%d of %d files processed)", summary.TotalFiles, summary.Submitted)
	}

	fmt.Fprintf(w, "Sevkiyat Converter - Processing Summary\n"+
		"================================================================================\n\n"+
		"Run Information:\n"+
		"  Run ID:         %s\n"+
		"  Start Time:     %s\n"+
		"  End Time:       %s\n"+
		"  Duration:       %s\n"+
		"  Status:         %s\n\n"+
		"Statistics:\n"+
		"  Total Files:        %d\n"+
		"  Successful:         %d\n"+
		"  Failed:             %d\n"+
		"  Total Records:      %d\n"+
		"  Unmatched Records:  %d\n\n",
		summary.RunID,
		summary.StartedAt.Format("2006-01-02 15:04:05"),
		finished.Format("2006-01-02 15:04:05"),
		finished.Sub(summary.StartedAt).Round(time.Millisecond).String(),
		status,
		summary.TotalFiles,
		summary.SucceededFiles,
		summary.FailedFiles,
		summary.RecordCount(),
		summary.UnmatchedCount(),
	)

	var failed []types.FileOutcome
	wroteHeader := false
	for _, o := range summary.Outcomes {
		if !o.Succeeded() {
			failed = append(failed, o)
			continue
		}
		if !wroteHeader {
			w.WriteString("Successful Files:\n")
			w.WriteString("--------------------------------------------------------------------------------\n")
			wroteHeader = true
		}
		fmt.Fprintf(w, "  Input:        %s\n", o.SourceFile)
		fmt.Fprintf(w, "  Records:      %d (unmatched: %d)\n", o.RecordCount, o.UnmatchedCount)
		for _, c := range sortedCategories(o.Artifacts) {
			fmt.Fprintf(w, "  Output:       %s\n", o.Artifacts[c])
		}
		for _, re := range o.RenderErrors {
			fmt.Fprintf(w, "  Warning:      %s\n", re)
		}
		fmt.Fprintf(w, "  Process Time: %s\n\n", o.Duration.Round(time.Millisecond).String())
	}

	if len(failed) > 0 {
		w.WriteString("Failed Files:\n")
		w.WriteString("--------------------------------------------------------------------------------\n")
		for _, o := range failed {
			fmt.Fprintf(w, "  File:  %s\n", o.SourceFile)
			fmt.Fprintf(w, "  Error: %s\n\n", o.ErrorDetail)
		}
	}

	w.WriteString("================================================================================\n" +
		"End of Summary\n")

	if err := w.Flush(); err != nil {
		return "", errors.Wrap(err, "failed to flush summary file")
	}
	return summaryPath, nil
}

// sortedCategories returns the artifact categories in rendering order.
func sortedCategories(artifacts map[types.Category]string) []types.Category {
	order := append(append([]types.Category(nil), types.ShipmentCategories...), types.CategoryUnmatched)
	var out []types.Category
	for _, c := range order {
		if _, ok := artifacts[c]; ok {
			out = append(out, c)
		}
	}
	return out
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}
	return destFile.Sync()
}
