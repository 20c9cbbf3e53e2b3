package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/FastBound/Support/internal/domain"
)

// The import file is keyed by column name, with the Acquire_ and Dispose_
// prefixes selecting which side of the transaction a contact field belongs
// to. Unknown columns are ignored; missing columns read as empty.

type headerIndex map[string]int

func (h headerIndex) get(record []string, name string) string {
	i, ok := h[strings.ToLower(name)]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// parseItemRows reads the whole import file into rows. Line numbers are
// 1-based file lines (header is line 1), matching what operators see in
// their spreadsheet.
func parseItemRows(path string) ([]domain.ItemRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("%s has no data rows", path)
	}

	idx := headerIndex{}
	for i, name := range records[0] {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}

	rows := make([]domain.ItemRow, 0, len(records)-1)
	for i, rec := range records[1:] {
		row := domain.ItemRow{
			Line: i + 2,

			Manufacturer: idx.get(rec, "Manufacturer"),
			Importer:     idx.get(rec, "Importer"),
			Country:      idx.get(rec, "Country"),
			Model:        idx.get(rec, "Model"),
			Caliber:      idx.get(rec, "Caliber"),
			ItemType:     idx.get(rec, "Type"),
			Serial:       idx.get(rec, "Serial"),
			SKU:          idx.get(rec, "SKU"),
			MPN:          idx.get(rec, "MPN"),
			UPC:          idx.get(rec, "UPC"),
			Condition:    idx.get(rec, "Condition"),
			Cost:         idx.get(rec, "Cost"),
			Price:        idx.get(rec, "Price"),
			Note:         idx.get(rec, "Note"),

			AcquireDate:    idx.get(rec, "Acquire_Date"),
			AcquireType:    idx.get(rec, "Acquire_Type"),
			AcquireContact: contactFromRecord(idx, rec, "Acquire_"),

			DisposeDate: idx.get(rec, "Dispose_Date"),
			DisposeType: idx.get(rec, "Dispose_Type"),
		}
		if row.DisposeDate != "" {
			row.DisposeContact = contactFromRecord(idx, rec, "Dispose_")
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func contactFromRecord(idx headerIndex, rec []string, prefix string) domain.Contact {
	return domain.Contact{
		FFLNumber:        idx.get(rec, prefix+"FFLNumber"),
		FFLExpires:       idx.get(rec, prefix+"FFLExpires"),
		LicenseName:      idx.get(rec, prefix+"LicenseName"),
		OrganizationName: idx.get(rec, prefix+"OrganizationName"),
		FirstName:        idx.get(rec, prefix+"FirstName"),
		MiddleName:       idx.get(rec, prefix+"MiddleName"),
		LastName:         idx.get(rec, prefix+"LastName"),
		Suffix:           idx.get(rec, prefix+"Suffix"),
		PremiseAddress1:  idx.get(rec, prefix+"Address1"),
		PremiseAddress2:  idx.get(rec, prefix+"Address2"),
		PremiseCity:      idx.get(rec, prefix+"City"),
		PremiseState:     idx.get(rec, prefix+"State"),
		PremiseZipCode:   idx.get(rec, prefix+"Zip"),
		PremiseCountry:   idx.get(rec, prefix+"Country"),
		EmailAddress:     idx.get(rec, prefix+"Email"),
	}
}
