package domain

import (
	"strings"
	"time"
)

// An FFL number is 15 characters once hyphens are stripped:
//
//	region(1) district(2) type(3) county(2) expirationCode(2) sequence(5)
//
// e.g. "1-23-456-78-9A-12345" -> "123456789A12345". The expiration code is
// a year digit (last digit of the expiration year) followed by a month
// letter (A=January through M=December, skipping I). Region, district, and
// sequence together identify the licensee across license renewals.

const fflLength = 15

// monthLetters maps position+1 to month; I is skipped so H=8 and J=9.
const monthLetters = "ABCDEFGHJKLM"

// NormalizeFFL strips hyphens and whitespace and uppercases the value.
// It does not validate length; RDS and ExpirationCode do that.
func NormalizeFFL(ffl string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(ffl), "-", ""))
}

// RDS derives the region-district-sequence key that identifies the same
// licensee across multiple license periods. Returns "" unless the
// normalized number is exactly 15 characters.
func RDS(ffl string) string {
	n := NormalizeFFL(ffl)
	if len(n) != fflLength {
		return ""
	}
	return n[0:3] + n[10:15]
}

// ExpirationCode returns the two-character embedded expiration code
// (year digit + month letter), or "" for a malformed number.
func ExpirationCode(ffl string) string {
	n := NormalizeFFL(ffl)
	if len(n) != fflLength {
		return ""
	}
	return n[8:10]
}

// MonthFromLetter maps an expiration month letter to 1..12. The letter I
// is intentionally unused by the ATF, so H=8 is followed by J=9.
// Returns 0 for any letter outside the mapping.
func MonthFromLetter(letter byte) int {
	idx := strings.IndexByte(monthLetters, letter)
	if idx < 0 {
		return 0
	}
	return idx + 1
}

// FFLExpirationMatches reports whether the expiration code embedded in the
// license number agrees with the given expiration date: the code's year
// digit must equal date.Year()%10 and its month letter must map to
// date.Month(). Malformed numbers never match.
func FFLExpirationMatches(ffl string, date time.Time) bool {
	code := ExpirationCode(ffl)
	if len(code) != 2 {
		return false
	}
	yearDigit := code[0]
	if yearDigit < '0' || yearDigit > '9' {
		return false
	}
	month := MonthFromLetter(code[1])
	if month == 0 {
		return false
	}
	return int(yearDigit-'0') == date.Year()%10 && month == int(date.Month())
}
