package engine

import (
	"fmt"

	"wmstriage/protocol"
	"wmstriage/store"
)

func (e *Engine) wireEventHandlers() {
	// New tickets: audit
	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(TicketCreatedEvent)
		e.logFn("engine: ticket %s created (%s) for %s", ev.TicketID, ev.IssueType, ev.UserEmail)
		e.audit(ev.TicketID, "created", "", ev.IssueType, ev.UserEmail)
	}, EventTicketCreated)

	// Transitions: audit, and tell the external team when a ticket is finished
	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(TicketTransitionEvent)
		e.audit(ev.TicketID, "transition",
			fmt.Sprintf("%s/%s", ev.OldStatus, ev.OldStage),
			fmt.Sprintf("%s/%s", ev.NewStatus, ev.NewStage),
			"system")
		if ev.NewStatus == store.StatusResolved || ev.NewStatus == store.StatusClosed {
			e.publishTicketUpdate(ev)
		}
	}, EventTicketTransition)

	// External requests: queue for the external team
	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(ExternalRequestEvent)
		e.logFn("engine: ticket %s requesting %s from external team", ev.TicketID, ev.Kind)
		e.audit(ev.TicketID, "external_request", "", ev.Kind+" "+ev.Category, "system")
		e.enqueue(protocol.TypeExternalRequest, &protocol.ExternalRequest{
			TicketID: ev.TicketID,
			Kind:     ev.Kind,
			Category: ev.Category,
			ASNID:    ev.ASNID,
			POID:     ev.POID,
			PalletID: ev.PalletID,
			Subject:  ev.Subject,
		})
	}, EventExternalRequest)

	// Confirmations: audit
	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(ConfirmationReceivedEvent)
		e.audit(ev.TicketID, "confirmation", "", fmt.Sprintf("%d rows via %s", ev.Rows, ev.Source), "external")
	}, EventConfirmationReceived)
}

func (e *Engine) audit(ticketID, action, oldValue, newValue, actor string) {
	if err := e.db.AppendAudit("ticket", ticketID, action, oldValue, newValue, actor); err != nil {
		e.logFn("engine: audit %s %s: %v", ticketID, action, err)
	}
}

func (e *Engine) publishTicketUpdate(ev TicketTransitionEvent) {
	e.enqueue(protocol.TypeTicketUpdate, &protocol.TicketUpdate{
		TicketID: ev.TicketID,
		Status:   ev.NewStatus,
		Stage:    ev.NewStage,
		Detail:   ev.Detail,
	})
}

// enqueue wraps a payload in an envelope and stores it in the outbox for
// the drainer to publish on the requests topic.
func (e *Engine) enqueue(msgType string, payload any) {
	src := protocol.Address{Role: protocol.RoleWMS, Station: e.cfg.Messaging.StationID}
	dst := protocol.Address{Role: protocol.RoleExternal}
	env, err := protocol.NewEnvelope(msgType, src, dst, payload)
	if err != nil {
		e.logFn("engine: build %s: %v", msgType, err)
		return
	}
	data, err := env.Encode()
	if err != nil {
		e.logFn("engine: encode %s: %v", msgType, err)
		return
	}
	if err := e.db.EnqueueOutbox(e.cfg.Messaging.RequestsTopic, data, msgType, protocol.RoleExternal); err != nil {
		e.logFn("engine: enqueue %s: %v", msgType, err)
	}
}
