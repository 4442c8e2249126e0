package engine

import "wmstriage/resolve"

// ticketEmitter bridges the orchestrator's emitter interface to the EventBus.
type ticketEmitter struct {
	bus *EventBus
}

func (e *ticketEmitter) EmitTicketCreated(ticketID, userEmail, issueType string) {
	e.bus.Emit(Event{Type: EventTicketCreated, Payload: TicketCreatedEvent{
		TicketID:  ticketID,
		UserEmail: userEmail,
		IssueType: issueType,
	}})
}

func (e *ticketEmitter) EmitTicketTransition(ticketID, oldStatus, newStatus string, oldStage, newStage resolve.Stage, detail string) {
	e.bus.Emit(Event{Type: EventTicketTransition, Payload: TicketTransitionEvent{
		TicketID:  ticketID,
		OldStatus: oldStatus,
		NewStatus: newStatus,
		OldStage:  string(oldStage),
		NewStage:  string(newStage),
		Detail:    detail,
	}})
}

func (e *ticketEmitter) EmitExternalRequest(req resolve.ExternalRequest) {
	e.bus.Emit(Event{Type: EventExternalRequest, Payload: ExternalRequestEvent{
		TicketID: req.TicketID,
		Kind:     string(req.Kind),
		Category: string(req.Category),
		ASNID:    req.Identifiers.ASNID,
		POID:     req.Identifiers.POID,
		PalletID: req.Identifiers.PalletID,
		Subject:  req.Subject,
	}})
}

var _ resolve.Emitter = (*ticketEmitter)(nil)
