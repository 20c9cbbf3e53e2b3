package service

import (
	"strings"

	"github.com/FastBound/Support/internal/domain"
	"github.com/FastBound/Support/internal/repository"
)

// Matcher finds an existing contact for a candidate record. Precedence is
// FFL, then person, then organization; the first rule whose preconditions
// hold is the only rule tried for a given pool entry, never a combination.
type Matcher struct{}

// FindMatch scans the pool in order and returns the first contact the
// candidate matches. A candidate with no identity fields never matches.
func (Matcher) FindMatch(pool *repository.ContactPool, candidate domain.Contact) (domain.Contact, bool) {
	contacts := pool.All()

	// FFL rule: hyphen-stripped, case-sensitive equality. License numbers
	// are uppercase alphanumeric, so no case folding is wanted here.
	if ffl := stripHyphens(candidate.FFLNumber); ffl != "" {
		for _, existing := range contacts {
			if stripHyphens(existing.FFLNumber) == ffl {
				return existing, true
			}
		}
	}

	// Person rule: normalized first+last equal, middle name compatible,
	// and all four address fields equal.
	first := domain.NormalizeField(candidate.FirstName)
	last := domain.NormalizeField(candidate.LastName)
	if first != "" && last != "" {
		middle := domain.NormalizeField(candidate.MiddleName)
		for _, existing := range contacts {
			if domain.NormalizeField(existing.FirstName) != first {
				continue
			}
			if domain.NormalizeField(existing.LastName) != last {
				continue
			}
			// a blank middle name on either side is never a mismatch
			existingMiddle := domain.NormalizeField(existing.MiddleName)
			if middle != "" && existingMiddle != "" && middle != existingMiddle {
				continue
			}
			if addressEqual(existing, candidate) {
				return existing, true
			}
		}
	}

	// Organization rule: normalized name plus the four address fields.
	if org := domain.NormalizeField(candidate.OrganizationName); org != "" {
		for _, existing := range contacts {
			if domain.NormalizeField(existing.OrganizationName) != org {
				continue
			}
			if addressEqual(existing, candidate) {
				return existing, true
			}
		}
	}

	return domain.Contact{}, false
}

func addressEqual(a, b domain.Contact) bool {
	return domain.NormalizeField(a.PremiseAddress1) == domain.NormalizeField(b.PremiseAddress1) &&
		domain.NormalizeField(a.PremiseCity) == domain.NormalizeField(b.PremiseCity) &&
		domain.NormalizeField(a.PremiseState) == domain.NormalizeField(b.PremiseState) &&
		domain.NormalizeField(a.PremiseZipCode) == domain.NormalizeField(b.PremiseZipCode)
}

func stripHyphens(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), "-", "")
}
