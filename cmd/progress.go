package cmd

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/pterm/pterm"

	"github.com/ginjaninja78/sevkiyat-converter/internal/shipment"
	"github.com/ginjaninja78/sevkiyat-converter/internal/types"
)

// progressPrinter renders batch events on the terminal. Logs go to stderr;
// this is the human-facing view on stdout.
type progressPrinter struct {
	verbose bool
}

func newProgressPrinter(verbose bool) *progressPrinter {
	return &progressPrinter{verbose: verbose}
}

// Observe is a types.Observer.
func (p *progressPrinter) Observe(e types.Event) {
	name := filepath.Base(e.File)
	switch e.Stage {
	case types.StageParseStarted:
		pterm.Printf("[%d/%d] %s\n", e.Index+1, e.Total, pterm.LightCyan(name))
	case types.StageParseCompleted:
		if p.verbose && e.Err == nil {
			pterm.Printf("      %s %d rows (%s)\n", pterm.Gray("parsed"), e.Count, e.Detail)
		}
	case types.StageMatchCompleted:
		if p.verbose {
			pterm.Printf("      %s %s\n", pterm.Gray("matched"), e.Detail)
		}
	case types.StageRenderCompleted:
		if e.Err != nil {
			pterm.Warning.Printf("%s: %v\n", name, e.Err)
		}
		if p.verbose && e.Detail != "" {
			pterm.Printf("      %s %s\n", pterm.Gray("wrote"), e.Detail)
		}
	case types.StageFileSucceeded:
		pterm.Printf("      %s %d records\n", pterm.Green("✓"), e.Count)
	case types.StageFileFailed:
		pterm.Printf("      %s %s\n", pterm.Red("✗"), e.Detail)
	case types.StageBatchCompleted:
		if e.Err != nil {
			pterm.Println()
			pterm.Warning.Println(e.Detail)
		}
	}
}

// printSummary prints the consolidated result table for a batch.
func printSummary(summary types.BatchSummary, summaryPath string) {
	pterm.Println()

	data := pterm.TableData{{"Dosya", "Durum", "Kayıt", "Eşleşmeyen", "Çıktılar"}}
	for _, o := range summary.Outcomes {
		status := pterm.Green("başarılı")
		outputs := artifactList(o)
		if !o.Succeeded() {
			status = pterm.Red("hatalı")
			outputs = o.ErrorDetail
		} else if len(o.RenderErrors) > 0 {
			status = pterm.Yellow("kısmi")
		}
		data = append(data, []string{
			filepath.Base(o.SourceFile),
			status,
			fmt.Sprintf("%d", o.RecordCount),
			fmt.Sprintf("%d", o.UnmatchedCount),
			outputs,
		})
	}
	if len(summary.Outcomes) > 0 {
		_ = pterm.DefaultTable.WithHasHeader().WithData(data).Render()
		pterm.Println()
	}

	line := fmt.Sprintf("%d files: %d succeeded, %d failed (%s)",
		summary.TotalFiles, summary.SucceededFiles, summary.FailedFiles,
		summary.FinishedAt.Sub(summary.StartedAt).Round(time.Millisecond))
	switch {
	case summary.Interrupted:
		pterm.Warning.Printf("Interrupted after %s\n", line)
	case summary.FailedFiles > 0:
		pterm.Error.Println(line)
	default:
		pterm.Success.Println(line)
	}
	if summaryPath != "" {
		pterm.Info.Printf("Summary log: %s\n", summaryPath)
	}
}

func artifactList(o types.FileOutcome) string {
	var names []string
	for _, c := range shipment.OutputCategories {
		if p, ok := o.Artifacts[c]; ok {
			names = append(names, filepath.Base(p))
		}
	}
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ", ")
}
