package utils

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/sevkiyat-converter/internal/types"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestDiscoverInputFiles_SortedAndFiltered(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "izmir.csv"))
	touch(t, filepath.Join(dir, "adana27.csv"))
	touch(t, filepath.Join(dir, "notes.txt"))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "dir.csv"), 0o755))

	fm := NewFileManager(dir, "", "")
	files, err := fm.DiscoverInputFiles("")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "adana27.csv"), filepath.Join(dir, "izmir.csv")}, files)
}

func TestDiscoverInputFiles_MissingDir(t *testing.T) {
	fm := NewFileManager(filepath.Join(t.TempDir(), "absent"), "", "")
	_, err := fm.DiscoverInputFiles("*.csv")
	assert.Error(t, err)
}

func TestDiscoverInputFilesRecursive(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b", "x.CSV"))
	touch(t, filepath.Join(dir, "a.csv"))
	touch(t, filepath.Join(dir, "c.txt"))

	fm := NewFileManager(dir, "", "")
	files, err := fm.DiscoverInputFilesRecursive(".csv")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.csv"), filepath.Join(dir, "b", "x.CSV")}, files)
}

func TestRunDirectory(t *testing.T) {
	fm := NewFileManager("", "/out", "")
	started := time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)

	assert.Equal(t, filepath.Join("/out", "sevkiyat_20261016_093000_1234abcd"),
		fm.RunDirectory("1234abcd-0000-0000-0000-000000000000", started))
	assert.Equal(t, filepath.Join("/out", "sevkiyat_20261016_093000"), fm.RunDirectory("", started))
}

func TestCreateRunDirectory(t *testing.T) {
	fm := NewFileManager("", t.TempDir(), "")
	dir, err := fm.CreateRunDirectory("run", time.Now())
	require.NoError(t, err)
	assert.DirExists(t, dir)
}

func TestGenerateOutputFileName(t *testing.T) {
	name := GenerateOutputFileName("{original}_{category}.xlsx", map[string]string{
		"original": "adana27",
		"category": "tatli",
	})
	assert.Equal(t, "adana27_tatli.xlsx", name)

	name = GenerateOutputFileName("{branch}_{category}", map[string]string{
		"branch":   "A/B: C",
		"category": "donuk",
	})
	assert.Equal(t, "A_B_ C_donuk.xlsx", name)

	name = GenerateOutputFileName("{original}_{uuid}", map[string]string{"original": "x"})
	assert.Regexp(t, regexp.MustCompile(`^x_[0-9a-f-]{36}\.xlsx$`), name)

	name = GenerateOutputFileName("{date}", nil)
	assert.Equal(t, time.Now().Format("20060102")+".xlsx", name)
}

func TestFileStem(t *testing.T) {
	assert.Equal(t, "adana27", FileStem("/in/adana27.csv"))
	assert.Equal(t, "archive.tar", FileStem("archive.tar.gz"))
}

func TestArchiveInputFile(t *testing.T) {
	in := filepath.Join(t.TempDir(), "adana27.csv")
	touch(t, in)
	archive := filepath.Join(t.TempDir(), "archive")

	fm := NewFileManager("", "", archive)
	got, err := fm.ArchiveInputFile(in)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(archive, "adana27.csv"), got)
	assert.FileExists(t, got)
	assert.NoFileExists(t, in)
}

func TestArchiveInputFile_Disabled(t *testing.T) {
	in := filepath.Join(t.TempDir(), "adana27.csv")
	touch(t, in)

	got, err := NewFileManager("", "", "").ArchiveInputFile(in)
	require.NoError(t, err)
	assert.Equal(t, in, got)
	assert.FileExists(t, in)
}

func TestArchivePath_TimestampSubdirs(t *testing.T) {
	fm := NewFileManager("", "", "/arch")
	fm.UseTimestampSubdirs = true
	got := fm.getArchivePath("/in/a.csv", time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, filepath.Join("/arch", "2026", "01", "05", "a.csv"), got)
}

func TestWriteSummaryLog(t *testing.T) {
	started := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	summary := types.BatchSummary{
		RunID:     "run-1",
		Submitted: 3,
		StartedAt: started,
	}
	summary.Record(types.FileOutcome{
		SourceFile:     "adana27.csv",
		Status:         types.StatusSucceeded,
		RecordCount:    3,
		UnmatchedCount: 1,
		Artifacts: map[types.Category]string{
			types.CategoryUnmatched: "out/adana27_eslesmeyen.xlsx",
			types.CategoryTatli:     "out/adana27_tatli.xlsx",
		},
		RenderErrors: []string{"render donuk list to out/adana27_donuk.xlsx: disk full"},
	})
	summary.Record(types.FileOutcome{
		SourceFile:  "bad.csv",
		Status:      types.StatusFailed,
		ErrorDetail: "parse bad.csv: file is empty",
	})
	summary.Interrupted = true
	summary.FinishedAt = started.Add(2 * time.Second)

	dir := t.TempDir()
	path, err := WriteSummaryLog(summary, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "processing_summary_20261016_090002.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)

	assert.Contains(t, text, "Run ID:         run-1")
	assert.Contains(t, text, "interrupted (2 of 3 files processed)")
	assert.Contains(t, text, "Successful:         1")
	assert.Contains(t, text, "Failed:             1")
	assert.Contains(t, text, "Unmatched Records:  1")
	assert.Contains(t, text, "Error: parse bad.csv: file is empty")
	assert.Contains(t, text, "Warning:      render donuk list")
	assert.Less(t, strings.Index(text, "adana27_tatli.xlsx"), strings.Index(text, "adana27_eslesmeyen.xlsx"))
}

func TestWriteSummaryLog_UnwritableDir(t *testing.T) {
	_, err := WriteSummaryLog(types.BatchSummary{}, filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
