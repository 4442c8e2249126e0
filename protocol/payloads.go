package protocol

// --- WMS -> external team payloads ---

// ExternalRequest asks the external team to interface a record or to send
// line details.
type ExternalRequest struct {
	TicketID string `json:"ticket_id"`
	Kind     string `json:"kind"`
	Category string `json:"category"`
	ASNID    string `json:"asn_id,omitempty"`
	POID     string `json:"po_id,omitempty"`
	PalletID string `json:"pallet_id,omitempty"`
	Subject  string `json:"subject,omitempty"`
}

// TicketUpdate reports a ticket reaching a new status.
type TicketUpdate struct {
	TicketID string `json:"ticket_id"`
	Status   string `json:"status"`
	Stage    string `json:"stage"`
	Detail   string `json:"detail,omitempty"`
}

// --- External team -> WMS payloads ---

// DetailRow is one line of pallet data supplied by the external team.
type DetailRow struct {
	PalletID          string `json:"pallet_id"`
	POID              string `json:"po_id"`
	ASNID             string `json:"asn_id"`
	Quantity          int    `json:"quantity"`
	SupplierReference string `json:"supplier_reference,omitempty"`
}

// ExternalConfirm answers an ExternalRequest. Rows are present for detail
// requests only.
type ExternalConfirm struct {
	TicketID string      `json:"ticket_id"`
	Rows     []DetailRow `json:"rows,omitempty"`
	Note     string      `json:"note,omitempty"`
}
