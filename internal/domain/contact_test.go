package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContactKindPrecedence(t *testing.T) {
	assert.Equal(t, KindFFL, (&Contact{FFLNumber: "1-23-456-78-9A-12345", OrganizationName: "Acme"}).Kind())
	assert.Equal(t, KindOrganization, (&Contact{OrganizationName: "Acme", FirstName: "John", LastName: "Smith"}).Kind())
	assert.Equal(t, KindIndividual, (&Contact{FirstName: "John", LastName: "Smith"}).Kind())
	// a first name alone is not an identity
	assert.Equal(t, KindUnknown, (&Contact{FirstName: "John"}).Kind())
}

func TestContactValidate(t *testing.T) {
	valid := Contact{
		FirstName:       "John",
		LastName:        "Smith",
		PremiseAddress1: "100 Main St",
		PremiseCity:     "Knoxville",
		PremiseState:    "TN",
		PremiseZipCode:  "37902",
	}
	assert.Empty(t, valid.Validate())

	missing := Contact{FirstName: "John", LastName: "Smith"}
	errs := missing.Validate()
	assert.Len(t, errs, 4, "address1, city, state, zip all missing")

	noIdentity := Contact{
		PremiseAddress1: "100 Main St",
		PremiseCity:     "Knoxville",
		PremiseState:    "TN",
		PremiseZipCode:  "37902",
	}
	assert.Len(t, noIdentity.Validate(), 1)
}

func TestNormalizeField(t *testing.T) {
	assert.Equal(t, "JOHN Q", NormalizeField("  john   q "))
	assert.Equal(t, "", NormalizeField("   "))
}

func TestDedupKey(t *testing.T) {
	ffl := Contact{FFLNumber: "1-23-456-78-9A-12345"}
	assert.Equal(t, "FFL:123456789A12345", ffl.DedupKey())

	person := Contact{
		FirstName:       "John",
		LastName:        "smith",
		PremiseAddress1: "100  Main St",
		PremiseCity:     "Knoxville",
		PremiseState:    "tn",
		PremiseZipCode:  "37902",
	}
	assert.Equal(t, "PERSON:JOHN:SMITH:100 MAIN ST:KNOXVILLE:TN:37902", person.DedupKey())

	org := person
	org.FirstName, org.LastName = "", ""
	org.OrganizationName = "Acme Arms"
	assert.Equal(t, "ORG:ACME ARMS:100 MAIN ST:KNOXVILLE:TN:37902", org.DedupKey())

	assert.Equal(t, "", (&Contact{}).DedupKey())
}

func TestDispositionTypeMapResolve(t *testing.T) {
	m := DefaultDispositionTypeMap()
	assert.Equal(t, "Regular", m.Resolve("Hey Pee Eye"))
	assert.Equal(t, "Regular", m.Resolve("Manufacturing"))
	assert.Equal(t, "Theft/Loss", m.Resolve("Theft/Loss"))
	// unknown categories never abort an import
	assert.Equal(t, "Regular", m.Resolve("Something Else"))

	custom := DispositionTypeMap{"Manufacturing": "Manufacture"}
	assert.Equal(t, "Manufacture", custom.Resolve("Manufacturing"))
}
