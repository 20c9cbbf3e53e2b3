package domain

// ItemRow is one row of the item-import CSV, keyed by the Acquire_*/
// Dispose_* column prefixes. A row always describes an acquisition; it also
// describes a disposition when DisposeDate is non-empty.
type ItemRow struct {
	Line int // 1-based line number in the source file, for the result log

	// Item description
	Manufacturer  string
	Importer      string
	Country       string
	Model         string
	Caliber       string
	ItemType      string
	Serial        string
	SKU           string
	MPN           string
	UPC           string
	Condition     string
	Cost          string
	Price         string
	Note          string

	// Acquisition side
	AcquireDate    string
	AcquireType    string
	AcquireContact Contact

	// Disposition side (optional)
	DisposeDate    string
	DisposeType    string
	DisposeContact Contact
}

// HasDisposition reports whether the row also records an outbound transfer.
func (r *ItemRow) HasDisposition() bool {
	return r.DisposeDate != ""
}

// Item is the wire shape of a firearm item inside an acquisition or
// disposition request.
type Item struct {
	Manufacturer string `json:"manufacturer"`
	Importer     string `json:"importer,omitempty"`
	Country      string `json:"country"`
	Model        string `json:"model"`
	Caliber      string `json:"caliber"`
	Type         string `json:"type"`
	Serial       string `json:"serial"`
	SKU          string `json:"sku,omitempty"`
	MPN          string `json:"mpn,omitempty"`
	UPC          string `json:"upc,omitempty"`
	Condition    string `json:"condition,omitempty"`
	Cost         string `json:"cost,omitempty"`
	Price        string `json:"price,omitempty"`
	Note         string `json:"note,omitempty"`
}

// WireItem converts the row's item description to the request shape.
func (r *ItemRow) WireItem() Item {
	return Item{
		Manufacturer: r.Manufacturer,
		Importer:     r.Importer,
		Country:      r.Country,
		Model:        r.Model,
		Caliber:      r.Caliber,
		Type:         r.ItemType,
		Serial:       r.Serial,
		SKU:          r.SKU,
		MPN:          r.MPN,
		UPC:          r.UPC,
		Condition:    r.Condition,
		Cost:         r.Cost,
		Price:        r.Price,
		Note:         r.Note,
	}
}

// DispositionTypeMap maps source-system disposition categories to FastBound
// disposition types. The defaults collapse a few legacy source categories
// into "Regular"; deployments with cleaner source data can override the
// table from a JSON file (see config.Import.DispositionMapPath).
type DispositionTypeMap map[string]string

// DefaultDispositionTypeMap returns the built-in mapping.
func DefaultDispositionTypeMap() DispositionTypeMap {
	return DispositionTypeMap{
		"Regular":       "Regular",
		"Hey Pee Eye":   "Regular",
		"New Contact":   "Regular",
		"Manufacturing": "Regular",
		"Theft/Loss":    "Theft/Loss",
		"Destroyed":     "Destroyed",
		"NFA":           "NFA",
	}
}

// Resolve maps a source category, falling back to "Regular" for unknown
// categories so a stray label never aborts an import.
func (m DispositionTypeMap) Resolve(sourceType string) string {
	if m == nil {
		m = DefaultDispositionTypeMap()
	}
	if t, ok := m[sourceType]; ok {
		return t
	}
	return "Regular"
}
