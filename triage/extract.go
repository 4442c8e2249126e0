package triage

import "regexp"

// Identifiers holds the record IDs found in a report. An empty field means
// the class was not present in the text.
type Identifiers struct {
	ASNID    string `json:"asn_id"`
	POID     string `json:"po_id"`
	PalletID string `json:"pallet_id"`
}

var (
	asnPattern    = regexp.MustCompile(`\b0\d{4}\b`)
	poPattern     = regexp.MustCompile(`\b2\d{9}\b`)
	palletPattern = regexp.MustCompile(`\b5\d{14}\b`)
)

// Extract returns the leftmost token of each identifier class. The classes
// are matched independently of each other.
func Extract(text string) Identifiers {
	return Identifiers{
		ASNID:    asnPattern.FindString(text),
		POID:     poPattern.FindString(text),
		PalletID: palletPattern.FindString(text),
	}
}

// Empty reports whether no identifier was found.
func (ids Identifiers) Empty() bool {
	return ids.ASNID == "" && ids.POID == "" && ids.PalletID == ""
}

// Or fills absent fields of ids from fallback.
func (ids Identifiers) Or(fallback Identifiers) Identifiers {
	if ids.ASNID == "" {
		ids.ASNID = fallback.ASNID
	}
	if ids.POID == "" {
		ids.POID = fallback.POID
	}
	if ids.PalletID == "" {
		ids.PalletID = fallback.PalletID
	}
	return ids
}
