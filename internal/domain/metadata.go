package domain

// Attribute is one trait of a metadata document. Order is preserved.
type Attribute struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}

// MetadataDocument is the off-chain metadata pinned for a minted token.
// Only a reference to it (the pinned URI) goes on the ledger, and that
// reference is bounded at 100 bytes.
type MetadataDocument struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Image       string      `json:"image"`
	Attributes  []Attribute `json:"attributes"`
}

// HiveID returns the value of the hiveId attribute, or "" if absent.
func (d *MetadataDocument) HiveID() string {
	for _, a := range d.Attributes {
		if a.TraitType == "hiveId" {
			return a.Value
		}
	}
	return ""
}
