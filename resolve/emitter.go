package resolve

// Emitter is the interface adapters must satisfy to bridge ticket events to the engine.
type Emitter interface {
	EmitTicketCreated(ticketID, userEmail, issueType string)
	EmitTicketTransition(ticketID, oldStatus, newStatus string, oldStage, newStage Stage, detail string)
	EmitExternalRequest(req ExternalRequest)
}

type nopEmitter struct{}

func (nopEmitter) EmitTicketCreated(string, string, string)                         {}
func (nopEmitter) EmitTicketTransition(string, string, string, Stage, Stage, string) {}
func (nopEmitter) EmitExternalRequest(ExternalRequest)                              {}
