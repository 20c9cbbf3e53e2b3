package service

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/FastBound/Support/internal/domain"
)

// resultHeader is the import result log's column set.
var resultHeader = []string{
	"Line",
	"Status",
	"Message",
	"ContactId",
	"AcquisitionId",
	"DispositionId",
}

// mergeLogHeader is the merge log's column set.
var mergeLogHeader = []string{
	"RDS",
	"WinnerContactId",
	"WinnerFFL",
	"LoserContactId",
	"LoserFFL",
	"Status",
	"Reason",
}

// WriteResultsCSV writes the per-row import outcomes.
func WriteResultsCSV(path string, results []RowResult) error {
	return writeCSV(path, resultHeader, len(results), func(i int) []string {
		r := results[i]
		return []string{
			strconv.Itoa(r.Line),
			r.Status,
			r.Message,
			r.ContactID,
			r.AcquisitionID,
			r.DispositionID,
		}
	})
}

// WriteMergeLogCSV writes the per-merge outcomes.
func WriteMergeLogCSV(path string, entries []domain.MergeEntry) error {
	return writeCSV(path, mergeLogHeader, len(entries), func(i int) []string {
		e := entries[i]
		return []string{
			e.RDS,
			e.WinnerID,
			e.WinnerFFL,
			e.LoserID,
			e.LoserFFL,
			string(e.Status),
			e.Reason,
		}
	})
}

func writeCSV(path string, header []string, rows int, record func(int) []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	for i := 0; i < rows; i++ {
		if err := w.Write(record(i)); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
