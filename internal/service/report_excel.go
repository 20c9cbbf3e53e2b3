package service

import (
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/FastBound/Support/internal/domain"
)

// Excel versions of the result and merge logs, for operators who review
// outcomes in a spreadsheet rather than piping the CSV anywhere.

// ResultsWorkbook renders the import results as a styled .xlsx.
func ResultsWorkbook(results []RowResult) ([]byte, error) {
	rows := make([][]any, len(results))
	for i, r := range results {
		rows[i] = []any{r.Line, r.Status, r.Message, r.ContactID, r.AcquisitionID, r.DispositionID}
	}
	return buildWorkbook("Import Results", resultHeader, rows)
}

// MergeLogWorkbook renders the merge log as a styled .xlsx.
func MergeLogWorkbook(entries []domain.MergeEntry) ([]byte, error) {
	rows := make([][]any, len(entries))
	for i, e := range entries {
		rows[i] = []any{e.RDS, e.WinnerID, e.WinnerFFL, e.LoserID, e.LoserFFL, string(e.Status), e.Reason}
	}
	return buildWorkbook("Merge Log", mergeLogHeader, rows)
}

func buildWorkbook(sheetName string, header []string, rows [][]any) ([]byte, error) {
	f := excelize.NewFile()
	// Don't defer Close() before WriteToBuffer; it needs the file open.

	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("creating sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("creating header style: %w", err)
	}

	for col, name := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, err
		}
		if err := f.SetCellValue(sheetName, cell, name); err != nil {
			f.Close()
			return nil, err
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, err
		}
	}

	for i, row := range rows {
		for col, val := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				f.Close()
				return nil, err
			}
			if err := f.SetCellValue(sheetName, cell, val); err != nil {
				f.Close()
				return nil, err
			}
		}
	}

	// widen columns enough for GUIDs and messages
	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err == nil {
		_ = f.SetColWidth(sheetName, "A", lastCol, 22)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("writing workbook: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteWorkbook saves workbook bytes to a path, for the CLIs.
func WriteWorkbook(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
