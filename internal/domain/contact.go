package domain

import (
	"fmt"
	"strings"
)

// ContactKind classifies a contact's identity group.
type ContactKind int

const (
	KindUnknown ContactKind = iota
	KindFFL                 // federal firearms licensee
	KindOrganization
	KindIndividual
)

func (k ContactKind) String() string {
	switch k {
	case KindFFL:
		return "FFL"
	case KindOrganization:
		return "Organization"
	case KindIndividual:
		return "Individual"
	default:
		return "Unknown"
	}
}

// Contact is a FastBound contact record. Identity is exactly one of
// {FFL, Organization, Individual}; the address block is always required.
// A contact is never mutated locally except to attach the server-assigned ID.
type Contact struct {
	ID string `json:"id,omitempty"` // server-assigned GUID

	// FFL identity
	FFLNumber   string `json:"fflNumber,omitempty"`
	FFLExpires  string `json:"fflExpires,omitempty"` // as reported by the API, e.g. "2025-06-30"
	LicenseName string `json:"licenseName,omitempty"`

	// Organization identity
	OrganizationName string `json:"organizationName,omitempty"`

	// Individual identity
	FirstName  string `json:"firstName,omitempty"`
	MiddleName string `json:"middleName,omitempty"`
	LastName   string `json:"lastName,omitempty"`
	Suffix     string `json:"suffix,omitempty"`

	// Address (required)
	PremiseAddress1 string `json:"premiseAddress1"`
	PremiseAddress2 string `json:"premiseAddress2,omitempty"`
	PremiseCity     string `json:"premiseCity"`
	PremiseState    string `json:"premiseState"`
	PremiseZipCode  string `json:"premiseZipCode"`
	PremiseCountry  string `json:"premiseCountry,omitempty"`

	EmailAddress string `json:"emailAddress,omitempty"`
}

// Kind reports which identity group is populated, in the same precedence
// order the matcher uses: FFL beats organization beats individual.
func (c *Contact) Kind() ContactKind {
	switch {
	case strings.TrimSpace(c.FFLNumber) != "":
		return KindFFL
	case strings.TrimSpace(c.OrganizationName) != "":
		return KindOrganization
	case strings.TrimSpace(c.FirstName) != "" && strings.TrimSpace(c.LastName) != "":
		return KindIndividual
	default:
		return KindUnknown
	}
}

// Validate checks the contact invariants: one identity group populated and
// the four required address fields present. Returns one error per problem.
func (c *Contact) Validate() []error {
	var errs []error

	if c.Kind() == KindUnknown {
		errs = append(errs, fmt.Errorf("contact has no identity: need fflNumber, organizationName, or firstName+lastName"))
	}
	if strings.TrimSpace(c.PremiseAddress1) == "" {
		errs = append(errs, fmt.Errorf("premiseAddress1 is required"))
	}
	if strings.TrimSpace(c.PremiseCity) == "" {
		errs = append(errs, fmt.Errorf("premiseCity is required"))
	}
	if strings.TrimSpace(c.PremiseState) == "" {
		errs = append(errs, fmt.Errorf("premiseState is required"))
	}
	if strings.TrimSpace(c.PremiseZipCode) == "" {
		errs = append(errs, fmt.Errorf("premiseZipCode is required"))
	}
	return errs
}

// NormalizeField trims, collapses inner whitespace, and uppercases a value
// for comparison. "  john   q " and "JOHN Q" normalize equal.
func NormalizeField(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}

// DedupKey derives the pool key for this contact. FFL contacts key on the
// hyphen-stripped license number alone; people and organizations key on
// normalized name plus the four address fields.
func (c *Contact) DedupKey() string {
	switch c.Kind() {
	case KindFFL:
		return "FFL:" + NormalizeFFL(c.FFLNumber)
	case KindOrganization:
		return strings.Join([]string{
			"ORG",
			NormalizeField(c.OrganizationName),
			NormalizeField(c.PremiseAddress1),
			NormalizeField(c.PremiseCity),
			NormalizeField(c.PremiseState),
			NormalizeField(c.PremiseZipCode),
		}, ":")
	case KindIndividual:
		return strings.Join([]string{
			"PERSON",
			NormalizeField(c.FirstName),
			NormalizeField(c.LastName),
			NormalizeField(c.PremiseAddress1),
			NormalizeField(c.PremiseCity),
			NormalizeField(c.PremiseState),
			NormalizeField(c.PremiseZipCode),
		}, ":")
	default:
		return ""
	}
}
