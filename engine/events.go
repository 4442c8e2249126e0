package engine

const (
	EventTicketCreated EventType = iota + 1
	EventTicketTransition
	EventExternalRequest
	EventConfirmationReceived
	EventMessagingConnected
	EventMessagingDisconnected
)

// --- Event payloads ---

type TicketCreatedEvent struct {
	TicketID  string
	UserEmail string
	IssueType string
}

type TicketTransitionEvent struct {
	TicketID  string
	OldStatus string
	NewStatus string
	OldStage  string
	NewStage  string
	Detail    string
}

type ExternalRequestEvent struct {
	TicketID string
	Kind     string
	Category string
	ASNID    string
	POID     string
	PalletID string
	Subject  string
}

type ConfirmationReceivedEvent struct {
	TicketID string
	Rows     int
	Note     string
	Source   string // "messaging", "http"
}

type ConnectionEvent struct {
	Detail string
}
