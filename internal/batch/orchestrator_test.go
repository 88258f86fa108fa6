package batch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/sevkiyat-converter/internal/catalog"
	"github.com/ginjaninja78/sevkiyat-converter/internal/converter"
	"github.com/ginjaninja78/sevkiyat-converter/internal/csvparser"
	"github.com/ginjaninja78/sevkiyat-converter/internal/errors"
	"github.com/ginjaninja78/sevkiyat-converter/internal/matcher"
	"github.com/ginjaninja78/sevkiyat-converter/internal/shipment"
	"github.com/ginjaninja78/sevkiyat-converter/internal/types"
)

func newConverter(t *testing.T) *converter.Converter {
	t.Helper()
	m := matcher.New(catalog.New(map[types.Category][]string{
		types.CategoryTatli:    {"Baklava"},
		types.CategoryDonuk:    {"Dondurma"},
		types.CategoryLojistik: {"Peçete"},
	}))
	return converter.New(csvparser.DefaultSettings(), m, t.TempDir())
}

func writeFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

// utf16 is an export with an encoding no strategy can read.
var utf16 = []byte{0xFF, 0xFE, 'S', 0, 't', 0, 'o', 0, 'k', 0, ',', 0, 'M', 0, '\n', 0}

func TestRunBatch_OneUnreadableFileOfFour(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeFile(t, dir, "adana27.csv", []byte("Stok Adı,Miktar\nBaklava,5\nDondurma,3\n")),
		writeFile(t, dir, "izmir.csv", []byte("Stok Adı;Miktar\nPeçete;10\n")),
		writeFile(t, dir, "bursa.csv", utf16),
		writeFile(t, dir, "ankara.csv", []byte("Ürün Adı\tAdet\nBaklava\t2\n")),
	}

	summary := New(newConverter(t)).RunBatch(context.Background(), paths)

	assert.Equal(t, 4, summary.TotalFiles)
	assert.Equal(t, 3, summary.SucceededFiles)
	assert.Equal(t, 1, summary.FailedFiles)
	assert.False(t, summary.Interrupted)
	assert.NotEmpty(t, summary.RunID)

	require.Len(t, summary.Outcomes, 4)
	for i, o := range summary.Outcomes {
		assert.Equal(t, paths[i], o.SourceFile, "outcomes keep submission order")
	}
	failed := summary.Outcomes[2]
	assert.Equal(t, types.StatusFailed, failed.Status)
	assert.NotEmpty(t, failed.ErrorDetail)
	for _, i := range []int{0, 1, 3} {
		assert.True(t, summary.Outcomes[i].Succeeded(), summary.Outcomes[i].ErrorDetail)
		assert.Empty(t, summary.Outcomes[i].ErrorDetail)
	}
	assert.Equal(t, 4, summary.RecordCount())
}

func TestRunBatch_CorruptedFileDoesNotAffectOthers(t *testing.T) {
	dir := t.TempDir()
	good := []byte("Stok Adı,Miktar\nBaklava,1\n")
	for k := 0; k < 3; k++ {
		var paths []string
		for i := 0; i < 3; i++ {
			content := good
			if i == k {
				content = []byte("Stok Adı,Fiyat\nBaklava,1\n")
			}
			paths = append(paths, writeFile(t, dir, filepath.Base(t.Name())+string(rune('a'+k))+string(rune('a'+i))+".csv", content))
		}

		summary := New(newConverter(t)).RunBatch(context.Background(), paths)
		assert.Equal(t, 3, summary.TotalFiles)
		assert.Equal(t, 1, summary.FailedFiles)
		for i, o := range summary.Outcomes {
			assert.Equal(t, i != k, o.Succeeded(), "k=%d i=%d", k, i)
		}
	}
}

func TestRunBatch_SameFileNameFromTwoBranches(t *testing.T) {
	root := t.TempDir()
	for _, d := range []string{"adana", "izmir"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, d), 0o755))
	}
	paths := []string{
		writeFile(t, filepath.Join(root, "adana"), "siparis.csv", []byte("Stok Adı,Miktar\nBaklava,5\n")),
		writeFile(t, filepath.Join(root, "izmir"), "siparis.csv", []byte("Stok Adı,Miktar\nBaklava,9\n")),
	}

	summary := New(newConverter(t)).RunBatch(context.Background(), paths)
	require.Equal(t, 2, summary.SucceededFiles)

	first := summary.Outcomes[0].Artifacts[types.CategoryTatli]
	second := summary.Outcomes[1].Artifacts[types.CategoryTatli]
	assert.NotEqual(t, first, second)
	assert.Equal(t, "5", tatliQuantity(t, first))
	assert.Equal(t, "9", tatliQuantity(t, second))
}

// tatliQuantity returns the quantity of the first data row of a Tatlı workbook.
func tatliQuantity(t *testing.T, path string) string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	require.Greater(t, len(rows), shipment.HeaderRow)
	return rows[shipment.HeaderRow][2]
}

func TestRunBatch_EmptyBatch(t *testing.T) {
	var stages []types.Stage
	summary := New(newConverter(t), WithObserver(func(e types.Event) { stages = append(stages, e.Stage) })).
		RunBatch(context.Background(), nil)

	assert.Zero(t, summary.TotalFiles)
	assert.Empty(t, summary.Outcomes)
	assert.Equal(t, []types.Stage{types.StageBatchStarted, types.StageBatchCompleted}, stages)
}

func TestRunBatch_CancellationBetweenFiles(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var seen []string
	p := FileProcessorFunc(func(_ context.Context, path string, _ types.Observer) types.FileOutcome {
		seen = append(seen, path)
		if len(seen) == 2 {
			cancel()
		}
		return types.FileOutcome{SourceFile: path, Status: types.StatusSucceeded}
	})

	var last types.Event
	o := New(p, WithObserver(func(e types.Event) { last = e }))
	summary := o.RunBatch(ctx, []string{"a.csv", "b.csv", "c.csv", "d.csv"})

	assert.True(t, summary.Interrupted)
	assert.Equal(t, []string{"a.csv", "b.csv"}, seen, "the file in progress finishes; no new file starts")
	assert.Equal(t, 4, summary.Submitted)
	assert.Equal(t, 2, summary.TotalFiles)
	assert.Equal(t, summary.TotalFiles, summary.SucceededFiles+summary.FailedFiles)
	assert.Len(t, summary.Outcomes, 2)

	assert.Equal(t, types.StageBatchCompleted, last.Stage)
	assert.True(t, errors.Is(last.Err, errors.ErrBatchInterrupted))
}

func TestRunBatch_AlreadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	p := FileProcessorFunc(func(context.Context, string, types.Observer) types.FileOutcome {
		called = true
		return types.FileOutcome{}
	})

	summary := New(p).RunBatch(ctx, []string{"a.csv"})
	assert.False(t, called)
	assert.True(t, summary.Interrupted)
	assert.Zero(t, summary.TotalFiles)
}

func TestRunBatch_PanicIsIsolated(t *testing.T) {
	p := FileProcessorFunc(func(_ context.Context, path string, _ types.Observer) types.FileOutcome {
		if path == "boom.csv" {
			panic("nil catalog")
		}
		return types.FileOutcome{SourceFile: path, Status: types.StatusSucceeded, RecordCount: 1}
	})

	summary := New(p).RunBatch(context.Background(), []string{"a.csv", "boom.csv", "c.csv"})

	assert.Equal(t, 3, summary.TotalFiles)
	assert.Equal(t, 2, summary.SucceededFiles)
	assert.Equal(t, 1, summary.FailedFiles)
	assert.Equal(t, "boom.csv", summary.Outcomes[1].SourceFile)
	assert.Contains(t, summary.Outcomes[1].ErrorDetail, "nil catalog")
	assert.True(t, summary.Outcomes[2].Succeeded())
}

func TestRunBatch_IncompleteOutcomeIsFailed(t *testing.T) {
	p := FileProcessorFunc(func(context.Context, string, types.Observer) types.FileOutcome {
		return types.FileOutcome{}
	})

	summary := New(p).RunBatch(context.Background(), []string{"a.csv"})
	require.Len(t, summary.Outcomes, 1)
	o := summary.Outcomes[0]
	assert.Equal(t, "a.csv", o.SourceFile)
	assert.Equal(t, types.StatusFailed, o.Status)
	assert.NotEmpty(t, o.ErrorDetail)
}

func TestRunBatch_EventOrder(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeFile(t, dir, "adana27.csv", []byte("Stok Adı,Miktar\nBaklava,5\n")),
		writeFile(t, dir, "bad.csv", []byte("nothing useful\n")),
	}

	var events []types.Event
	o := New(newConverter(t), WithRunID("run-1"), WithObserver(func(e types.Event) { events = append(events, e) }))
	o.RunBatch(context.Background(), paths)

	var got []types.Stage
	for _, e := range events {
		got = append(got, e.Stage)
		assert.Equal(t, "run-1", e.RunID)
		assert.Equal(t, 2, e.Total)
		assert.False(t, e.At.IsZero())
	}
	assert.Equal(t, []types.Stage{
		types.StageBatchStarted,
		types.StageParseStarted, types.StageParseCompleted, types.StageMatchCompleted, types.StageRenderCompleted, types.StageFileSucceeded,
		types.StageParseStarted, types.StageParseCompleted, types.StageFileFailed,
		types.StageBatchCompleted,
	}, got)

	assert.Equal(t, 0, events[1].Index)
	assert.Equal(t, paths[0], events[1].File)
	assert.Equal(t, 1, events[6].Index)
	assert.Equal(t, paths[1], events[8].File)
	assert.Error(t, events[8].Err)
	assert.NotEmpty(t, events[8].Detail)
}
