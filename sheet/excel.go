package sheet

import (
	"fmt"
	"io"

	"github.com/giygas/trialsites/interfaces"
	"github.com/xuri/excelize/v2"
)

// DefaultSheetName is the name excelize gives the first sheet of a new workbook
const DefaultSheetName = "Sheet1"

// ContentType is the MIME type of the workbooks produced by ExcelWriter
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Compile-time check to ensure ExcelWriter implements SheetWriter interface
var _ interfaces.SheetWriter = (*ExcelWriter)(nil)

// ExcelWriter writes cells and merges into a single-sheet xlsx workbook
type ExcelWriter struct {
	file  *excelize.File
	sheet string
}

// NewExcelWriter creates a workbook whose only sheet is named sheetName
func NewExcelWriter(sheetName string) (*ExcelWriter, error) {
	f := excelize.NewFile()

	if sheetName == "" {
		sheetName = DefaultSheetName
	}
	if sheetName != DefaultSheetName {
		if err := f.SetSheetName(DefaultSheetName, sheetName); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to rename sheet to %q: %w", sheetName, err)
		}
	}

	return &ExcelWriter{file: f, sheet: sheetName}, nil
}

// SheetName returns the name of the sheet being written
func (w *ExcelWriter) SheetName() string {
	return w.sheet
}

// SetCellValue implements the SheetWriter interface
func (w *ExcelWriter) SetCellValue(row, col int, value string) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return w.file.SetCellValue(w.sheet, cell, value)
}

// MergeCells implements the SheetWriter interface
func (w *ExcelWriter) MergeCells(startRow, startCol, endRow, endCol int) error {
	topLeft, err := excelize.CoordinatesToCellName(startCol, startRow)
	if err != nil {
		return err
	}
	bottomRight, err := excelize.CoordinatesToCellName(endCol, endRow)
	if err != nil {
		return err
	}
	return w.file.MergeCell(w.sheet, topLeft, bottomRight)
}

// WriteTo serializes the workbook to out
func (w *ExcelWriter) WriteTo(out io.Writer) (int64, error) {
	n, err := w.file.WriteTo(out)
	if err != nil {
		return n, fmt.Errorf("failed to write workbook: %w", err)
	}
	return n, nil
}

// SaveAs writes the workbook to path
func (w *ExcelWriter) SaveAs(path string) error {
	if err := w.file.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

// Close releases the workbook resources
func (w *ExcelWriter) Close() error {
	return w.file.Close()
}
