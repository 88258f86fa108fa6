// =============================================================================
// Sevkiyat Converter - Shipment Renderer
// =============================================================================
//
// This module writes one ShipmentList to an XLSX workbook. Each category has
// a fixed layout (see layout.go); every sheet starts with the same preamble:
//
//   Row 1  title                        "Tatlı Sevkiyat Listesi"
//   Row 2  "Sevkiyat Tarihi" | date     "16.10.2026"
//   Row 4  column headers
//   Row 5+ data
//
// A failure is reported as *errors.RenderError for that category only; the
// caller decides what it means for the file.
//
// =============================================================================

package shipment

import (
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/ginjaninja78/sevkiyat-converter/internal/errors"
	"github.com/ginjaninja78/sevkiyat-converter/internal/logging"
	"github.com/ginjaninja78/sevkiyat-converter/internal/types"
)

const (
	// DateLabel heads the shipment date cell.
	DateLabel = "Sevkiyat Tarihi"

	// DateLayout formats the shipment date.
	DateLayout = "02.01.2006"

	// HeaderRow is the 1-based row of the column headers.
	HeaderRow = 4
)

// Renderer writes shipment lists as XLSX artifacts.
type Renderer struct {
	// Now supplies the shipment date. Defaults to time.Now.
	Now func() time.Time

	log *zap.SugaredLogger
}

// NewRenderer creates a Renderer. A nil logger is replaced by a no-op one.
func NewRenderer(log *zap.SugaredLogger) *Renderer {
	return &Renderer{Now: time.Now, log: logging.OrNop(log)}
}

// Render writes list to path, replacing any existing file.
func (r *Renderer) Render(list *types.ShipmentList, path string) error {
	if list == nil {
		return errors.NewRenderError("", path, errors.New("nil shipment list"))
	}

	t := layoutFor(list)
	if err := r.write(list.Category, t, path); err != nil {
		return errors.NewRenderError(list.Category, path, err)
	}

	r.logger().Debugw("artifact written",
		logging.FieldCategory, list.Category,
		logging.FieldPath, path,
		logging.FieldCount, len(t.rows),
	)
	return nil
}

func (r *Renderer) logger() *zap.SugaredLogger {
	return logging.OrNop(r.log)
}

func (r *Renderer) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

func (r *Renderer) write(category types.Category, t table, path string) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "failed to close workbook")
		}
	}()

	sheet := category.DisplayName()
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return errors.Wrap(err, "failed to name sheet")
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return errors.Wrap(err, "failed to create style")
	}
	title, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	if err != nil {
		return errors.Wrap(err, "failed to create style")
	}

	if err := f.SetCellValue(sheet, "A1", t.title); err != nil {
		return errors.Wrap(err, "failed to write title")
	}
	if err := f.SetCellStyle(sheet, "A1", "A1", title); err != nil {
		return errors.Wrap(err, "failed to style title")
	}
	if err := f.SetSheetRow(sheet, "A2", &[]interface{}{DateLabel, r.now().Format(DateLayout)}); err != nil {
		return errors.Wrap(err, "failed to write date row")
	}
	if err := f.SetCellStyle(sheet, "A2", "A2", bold); err != nil {
		return errors.Wrap(err, "failed to style date row")
	}

	headerCell, _ := excelize.CoordinatesToCellName(1, HeaderRow)
	header := make([]interface{}, len(t.header))
	for i, h := range t.header {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, headerCell, &header); err != nil {
		return errors.Wrap(err, "failed to write header")
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(t.header), HeaderRow)
	if err := f.SetCellStyle(sheet, headerCell, lastHeader, bold); err != nil {
		return errors.Wrap(err, "failed to style header")
	}

	for i, row := range t.rows {
		cell, _ := excelize.CoordinatesToCellName(1, HeaderRow+1+i)
		values := row
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return errors.Wrapf(err, "failed to write row %d", i+1)
		}
		if t.totals[i] {
			last, _ := excelize.CoordinatesToCellName(len(row), HeaderRow+1+i)
			if err := f.SetCellStyle(sheet, cell, last, bold); err != nil {
				return errors.Wrap(err, "failed to style subtotal")
			}
		}
	}

	for i, w := range t.widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return errors.Wrap(err, "failed to size column")
		}
	}

	if err := f.SaveAs(path); err != nil {
		return errors.Wrap(err, "failed to save workbook")
	}
	return nil
}
