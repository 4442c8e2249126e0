package resolve

import (
	"errors"
	"strings"

	"github.com/google/uuid"

	"wmstriage/checker"
	"wmstriage/store"
	"wmstriage/triage"
)

// Stage is the ticket's position in the resolution state machine. It is
// finer grained than the ticket status.
type Stage string

const (
	StageReceived         Stage = "received"
	StageTriage           Stage = "triage"
	StageDispatch         Stage = "dispatch"
	StageAwaitingExternal Stage = "awaiting_external"
	StageResolved         Stage = "resolved"
	StageManualReview     Stage = "manual_review"
	StageUnconfirmed      Stage = "unconfirmed"
	StageFailed           Stage = "failed"
	StageClosed           Stage = "closed"
)

var (
	ErrInvalidReport    = errors.New("invalid report")
	ErrNoPendingRequest = errors.New("no external request pending for ticket")
	ErrTicketClosed     = errors.New("ticket already closed")
)

// Tickets is the ticket store the orchestrator owns.
type Tickets interface {
	CreateTicket(t *store.Ticket) error
	GetTicket(id string) (*store.Ticket, error)
	UpdateTicket(t *store.Ticket) error
	AppendTicketHistory(ticketID, status, stage, detail string) error
}

// Records is the record store. Writes happen only when applying confirmed
// detail rows.
type Records interface {
	checker.Records
	UpsertASNLine(l *store.ASNLine) error
	UpsertPOLine(l *store.POLine) error
}

type RequestKind string

const (
	// KindInterface asks the external team to push a missing record.
	KindInterface RequestKind = "interface"
	// KindDetails asks the external team to send the correct line data.
	KindDetails RequestKind = "details"
)

// ExternalRequest is one outstanding ask of the external team.
type ExternalRequest struct {
	TicketID    string
	Kind        RequestKind
	Category    triage.Category
	Identifiers triage.Identifiers
	Subject     string
}

// DetailRow is one line of data returned by the external team. It is
// applied as a matching PO line and ASN line.
type DetailRow struct {
	PalletID          string `json:"pallet_id"`
	POID              string `json:"po_id"`
	ASNID             string `json:"asn_id"`
	Quantity          int    `json:"quantity"`
	SupplierReference string `json:"supplier_reference"`
}

// Confirmation is the external team's answer to a request.
type Confirmation struct {
	Rows []DetailRow `json:"rows"`
	Note string      `json:"note"`
}

// Responder answers external requests in-process. A nil confirmation means
// the answer will arrive later, if at all.
type Responder interface {
	Respond(req ExternalRequest) (*Confirmation, error)
}

// NewTicketID returns "WMS-" followed by eight uppercase hex characters.
func NewTicketID() string {
	return "WMS-" + strings.ToUpper(uuid.NewString()[:8])
}
