package writer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/insightdelivered/statement-normalizer/internal/models"
)

const sheetName = "Transactions"

// XLSXWriter renders transactions as a single-sheet workbook using the
// same column layout and formatting rules as the CSV writer.
type XLSXWriter struct{}

// Write renders the bundle's transactions as an XLSX workbook.
func (w *XLSXWriter) Write(out io.Writer, bundle models.ResultBundle) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	if err := setRow(f, 1, Columns); err != nil {
		return err
	}
	for i, txn := range bundle.Transactions {
		if err := setRow(f, i+2, transactionRecord(txn)); err != nil {
			return err
		}
	}

	if err := f.Write(out); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// WriteFile renders the bundle to an XLSX file, creating parent
// directories as needed.
func (w *XLSXWriter) WriteFile(path string, bundle models.ResultBundle) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file %q: %w", path, err)
	}
	defer f.Close()
	return w.Write(f, bundle)
}

func setRow(f *excelize.File, row int, values []string) error {
	for col, value := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, value); err != nil {
			return fmt.Errorf("set cell %s: %w", cell, err)
		}
	}
	return nil
}
