package export

import (
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/Ryan-ai-champ/data-sourcing-challenge/internal/domain"
)

const combinedSheet = "Combined Data"

// writeExcel writes a workbook with the flattened pair rows on one sheet.
// Mirrors the CSV layout so either file answers the same questions.
func writeExcel(records []domain.MergedRecord, path string) error {
	wb := excelize.NewFile()
	defer wb.Close() //nolint:errcheck // in-memory workbook

	// The default sheet is named Sheet1; rename instead of juggling indexes.
	if err := wb.SetSheetName("Sheet1", combinedSheet); err != nil {
		return err
	}

	if err := setRow(wb, 1, pairHeader); err != nil {
		return err
	}
	for i, row := range flatten(records) {
		if err := setRow(wb, i+2, row); err != nil {
			return err
		}
	}

	return atomicWrite(path, func(f *os.File) error {
		return wb.Write(f)
	})
}

func setRow(wb *excelize.File, rowNum int, cols []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("row %d: %w", rowNum, err)
	}
	values := make([]any, len(cols))
	for i, c := range cols {
		values[i] = c
	}
	return wb.SetSheetRow(combinedSheet, cell, &values)
}
