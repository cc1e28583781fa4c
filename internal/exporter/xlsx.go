package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"datasteward/internal/dataprocessing"
)

const defaultSheet = "Sheet1"

// XLSXWriter writes datasets as single-sheet workbooks
type XLSXWriter struct {
	logger *slog.Logger
}

// NewXLSXWriter creates a new workbook writer
func NewXLSXWriter(logger *slog.Logger) *XLSXWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &XLSXWriter{logger: logger}
}

// WriteXLSX writes a header row followed by the dataset rows. Numeric cells
// are stored as numbers, nulls are left empty.
func (w *XLSXWriter) WriteXLSX(filePath string, ds *dataprocessing.Dataset) error {
	w.logger.Debug("Writing XLSX file",
		slog.String("file_path", filePath),
		slog.Int("record_count", ds.Len()))

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		sheet = defaultSheet
	}

	header := make([]interface{}, ds.Width())
	for i, name := range ds.Columns() {
		header[i] = name
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	for i := 0; i < ds.Len(); i++ {
		cells := ds.Row(i)
		values := make([]interface{}, len(cells))
		for j, c := range cells {
			switch c.Kind {
			case dataprocessing.CellNumber:
				values[j] = c.Num
			case dataprocessing.CellText:
				values[j] = c.Text
			default:
				values[j] = nil
			}
		}
		axis, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to resolve row %d: %w", i, err)
		}
		if err := f.SetSheetRow(sheet, axis, &values); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	if err := f.SaveAs(filePath); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}
