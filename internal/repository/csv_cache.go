package repository

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/FastBound/Support/internal/domain"
)

// csvCacheHeader mirrors the Contact shape, one column per field.
var csvCacheHeader = []string{
	"id",
	"fflNumber",
	"fflExpires",
	"licenseName",
	"organizationName",
	"firstName",
	"middleName",
	"lastName",
	"suffix",
	"premiseAddress1",
	"premiseAddress2",
	"premiseCity",
	"premiseState",
	"premiseZipCode",
	"premiseCountry",
	"emailAddress",
}

// CSVCache persists the contact pool as a CSV file next to the import
// inputs. Writes go through a temp file and rename so an interrupted run
// never leaves a truncated cache.
type CSVCache struct {
	path string
}

// NewCSVCache creates a cache backed by the given file path.
func NewCSVCache(path string) *CSVCache {
	return &CSVCache{path: path}
}

func (c *CSVCache) Load(_ context.Context) ([]domain.Contact, error) {
	f, err := os.Open(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("opening contact cache: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(csvCacheHeader)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading contact cache %s: %w", c.path, err)
	}
	if len(records) == 0 {
		return nil, ErrCacheMiss
	}

	contacts := make([]domain.Contact, 0, len(records)-1)
	for i, rec := range records {
		if i == 0 {
			continue // header
		}
		contacts = append(contacts, domain.Contact{
			ID:               rec[0],
			FFLNumber:        rec[1],
			FFLExpires:       rec[2],
			LicenseName:      rec[3],
			OrganizationName: rec[4],
			FirstName:        rec[5],
			MiddleName:       rec[6],
			LastName:         rec[7],
			Suffix:           rec[8],
			PremiseAddress1:  rec[9],
			PremiseAddress2:  rec[10],
			PremiseCity:      rec[11],
			PremiseState:     rec[12],
			PremiseZipCode:   rec[13],
			PremiseCountry:   rec[14],
			EmailAddress:     rec[15],
		})
	}
	return contacts, nil
}

func (c *CSVCache) Save(_ context.Context, contacts []domain.Contact) error {
	dir := filepath.Dir(c.path)
	tmp, err := os.CreateTemp(dir, ".contact-cache-*.csv")
	if err != nil {
		return fmt.Errorf("creating contact cache temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(csvCacheHeader); err != nil {
		tmp.Close()
		return fmt.Errorf("writing contact cache: %w", err)
	}
	for _, ct := range contacts {
		rec := []string{
			ct.ID,
			ct.FFLNumber,
			ct.FFLExpires,
			ct.LicenseName,
			ct.OrganizationName,
			ct.FirstName,
			ct.MiddleName,
			ct.LastName,
			ct.Suffix,
			ct.PremiseAddress1,
			ct.PremiseAddress2,
			ct.PremiseCity,
			ct.PremiseState,
			ct.PremiseZipCode,
			ct.PremiseCountry,
			ct.EmailAddress,
		}
		if err := w.Write(rec); err != nil {
			tmp.Close()
			return fmt.Errorf("writing contact cache: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("writing contact cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing contact cache temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		return fmt.Errorf("replacing contact cache: %w", err)
	}
	return nil
}
