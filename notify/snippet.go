package notify

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"wmstriage/store"
	"wmstriage/triage"
)

type Field struct {
	Key   string
	Value any
}

// Row is an ordered list of fields, printed in order.
type Row []Field

const separator = "--------------------------------------------------"

// FormatSnippet renders rows as a plain-text table block. Fields whose key is
// listed in highlight are printed as ">>> KEY: value <<<".
func FormatSnippet(table string, rows []Row, highlight ...string) string {
	if len(rows) == 0 {
		return "No data found."
	}
	hl := make(map[string]bool, len(highlight))
	for _, h := range highlight {
		hl[h] = true
	}
	var b strings.Builder
	fmt.Fprintf(&b, "\n=== %s TABLE ===\n", strings.ToUpper(table))
	for _, row := range rows {
		b.WriteString(separator + "\n")
		for _, f := range row {
			if hl[f.Key] {
				fmt.Fprintf(&b, ">>> %s: %v <<<\n", strings.ToUpper(f.Key), f.Value)
			} else {
				fmt.Fprintf(&b, "%s: %v\n", f.Key, f.Value)
			}
		}
		b.WriteString(separator + "\n")
	}
	return b.String()
}

const dateLayout = "2006-01-02 15:04:05"

// ASNSnippet renders an ASN header and its lines with the ASN ID highlighted.
func ASNSnippet(h *store.ASNHeader, lines []*store.ASNLine) string {
	var rows []Row
	if h != nil {
		rows = append(rows, Row{
			{"asn_id", h.ASNID},
			{"supplier_reference", h.SupplierReference},
			{"last_updated_date", h.LastUpdatedAt.Format(dateLayout)},
		})
	}
	for _, l := range lines {
		rows = append(rows, lineRow(l.PalletID, l.POID, l.ASNID, l.Quantity))
	}
	return FormatSnippet("ASN", rows, "asn_id")
}

// POSnippet renders a PO header and its lines with the PO ID highlighted.
func POSnippet(h *store.POHeader, lines []*store.POLine) string {
	var rows []Row
	if h != nil {
		rows = append(rows, Row{
			{"po_id", h.POID},
			{"status", h.Status},
			{"last_updated_date", h.LastUpdatedAt.Format(dateLayout)},
		})
	}
	for _, l := range lines {
		rows = append(rows, lineRow(l.PalletID, l.POID, l.ASNID, l.Quantity))
	}
	return FormatSnippet("PO", rows, "po_id")
}

// PalletSnippet renders the PO line and ASN line that carry one pallet.
func PalletSnippet(po *store.POLine, asn *store.ASNLine) string {
	var rows []Row
	if po != nil {
		rows = append(rows, append(Row{{"table", "PO_LINE"}}, lineRow(po.PalletID, po.POID, po.ASNID, po.Quantity)...))
	}
	if asn != nil {
		rows = append(rows, append(Row{{"table", "ASN_LINE"}}, lineRow(asn.PalletID, asn.POID, asn.ASNID, asn.Quantity)...))
	}
	return FormatSnippet("PALLET", rows, "pallet_id")
}

func lineRow(palletID, poID, asnID string, qty int) Row {
	return Row{
		{"pallet_id", palletID},
		{"po_id", poID},
		{"asn_id", asnID},
		{"quantity", qty},
	}
}

// DetailColumns is the header of the details sheet exchanged with the
// external team.
var DetailColumns = []string{"pallet_id", "po_id", "asn_id", "quantity", "supplier_reference"}

// DetailsSheet builds the CSV sheet the external team fills in, prefilled
// with whatever identifiers are known.
func DetailsSheet(ids triage.Identifiers) Attachment {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write(DetailColumns)
	w.Write([]string{ids.PalletID, ids.POID, ids.ASNID, "", ""})
	w.Flush()
	name := "details"
	switch {
	case ids.PalletID != "":
		name = "pallet_" + ids.PalletID
	case ids.POID != "":
		name = "po_" + ids.POID
	}
	return Attachment{
		Filename:    name + ".csv",
		ContentType: "text/csv",
		Content:     buf.Bytes(),
	}
}
