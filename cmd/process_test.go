package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/sevkiyat-converter/internal/errors"
)

// processFixture lays out an input directory, a catalog and a config file
// pointing output and archive into a temp directory.
type processFixture struct {
	in, out, archive string
	config           string
}

func newProcessFixture(t *testing.T, extraConfig ...string) processFixture {
	t.Helper()
	root := t.TempDir()
	f := processFixture{
		in:      filepath.Join(root, "in"),
		out:     filepath.Join(root, "out"),
		archive: filepath.Join(root, "archive"),
		config:  filepath.Join(root, "config.yaml"),
	}
	require.NoError(t, os.MkdirAll(f.in, 0o755))

	catalogFile := filepath.Join(root, "catalog.yaml")
	require.NoError(t, os.WriteFile(catalogFile, []byte(`
categories:
  tatli: [Baklava]
  donuk: [Dondurma]
  lojistik: [Peçete]
`), 0o644))

	require.NoError(t, os.WriteFile(f.config, []byte(
		"output_dir: "+f.out+"\n"+
			"archive_dir: "+f.archive+"\n"+
			"catalog_file: "+catalogFile+"\n"+
			"run_subdir: true\n"+
			"log_level: error\n"+
			strings.Join(extraConfig, "\n")+"\n"), 0o644))

	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		inputDir, inputPattern, recursive = "", "*.csv", false
		catalogPath, outputDir, archiveDir = "", "", ""
		appConfig, logger = nil, nil
	})
	return f
}

func (f processFixture) write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(f.in, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestProcessCommand_ArchivesOnlySucceededInputs(t *testing.T) {
	f := newProcessFixture(t)
	good := f.write(t, "adana27.csv", "Stok Adı,Miktar\nBaklava,5\nDondurma,3\n")
	bad := f.write(t, "bozuk.csv", "Stok Adı,Fiyat\nBaklava,10\n")

	rootCmd.SetArgs([]string{"--config", f.config, "process", good, bad})
	err := rootCmd.Execute()

	require.Error(t, err)
	assert.True(t, errors.Is(err, errFilesFailed))
	assert.Equal(t, 2, exitCode(err))
	assert.Contains(t, errors.FlattenHints(err), "processing_summary_")

	runDirs, globErr := filepath.Glob(filepath.Join(f.out, "sevkiyat_*"))
	require.NoError(t, globErr)
	require.Len(t, runDirs, 1)
	assert.FileExists(t, filepath.Join(runDirs[0], "adana27_tatli.xlsx"))
	assert.FileExists(t, filepath.Join(runDirs[0], "adana27_donuk.xlsx"))

	summaries, globErr := filepath.Glob(filepath.Join(runDirs[0], "processing_summary_*.txt"))
	require.NoError(t, globErr)
	require.Len(t, summaries, 1)
	text, readErr := os.ReadFile(summaries[0])
	require.NoError(t, readErr)
	assert.Contains(t, string(text), "Successful:         1")
	assert.Contains(t, string(text), "Failed:             1")

	assert.FileExists(t, filepath.Join(f.archive, "adana27.csv"))
	assert.NoFileExists(t, good)
	assert.FileExists(t, bad)
	assert.NoFileExists(t, filepath.Join(f.archive, "bozuk.csv"))
}

func TestProcessCommand_AllSucceeded(t *testing.T) {
	f := newProcessFixture(t)
	f.write(t, "adana27.csv", "Stok Adı,Miktar\nBaklava,5\n")

	rootCmd.SetArgs([]string{"--config", f.config, "process", "--input-dir", f.in})
	require.NoError(t, rootCmd.Execute())
	assert.FileExists(t, filepath.Join(f.archive, "adana27.csv"))
}

func TestProcessCommand_ArchiveTimestampSubdirs(t *testing.T) {
	f := newProcessFixture(t, "archive_timestamp_subdirs: true")
	good := f.write(t, "adana27.csv", "Stok Adı,Miktar\nBaklava,5\n")

	rootCmd.SetArgs([]string{"--config", f.config, "process", good})
	require.NoError(t, rootCmd.Execute())

	now := time.Now()
	assert.FileExists(t, filepath.Join(f.archive, now.Format("2006"), now.Format("01"), now.Format("02"), "adana27.csv"))
}

func TestProcessCommand_Interrupted(t *testing.T) {
	f := newProcessFixture(t)
	good := f.write(t, "adana27.csv", "Stok Adı,Miktar\nBaklava,5\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rootCmd.SetArgs([]string{"--config", f.config, "process", good})
	err := rootCmd.ExecuteContext(ctx)

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrBatchInterrupted))
	assert.Equal(t, 130, exitCode(err))
	assert.FileExists(t, good, "unprocessed inputs are not archived")
}

func TestProcessCommand_OverridesDoNotLeakIntoConfig(t *testing.T) {
	f := newProcessFixture(t)
	good := f.write(t, "adana27.csv", "Stok Adı,Miktar\nBaklava,5\n")
	override := filepath.Join(t.TempDir(), "elsewhere")

	rootCmd.SetArgs([]string{"--config", f.config, "process", "--output", override, good})
	require.NoError(t, rootCmd.Execute())

	require.NotNil(t, appConfig)
	assert.Equal(t, f.out, appConfig.OutputDir)
	dirs, err := filepath.Glob(filepath.Join(override, "sevkiyat_*"))
	require.NoError(t, err)
	assert.Len(t, dirs, 1)
}
