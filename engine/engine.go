// Package engine owns the orchestrator and connects its lifecycle events to
// auditing, the outbox and live subscribers.
package engine

import (
	"log"
	"time"

	"wmstriage/config"
	"wmstriage/messaging"
	"wmstriage/notify"
	"wmstriage/resolve"
	"wmstriage/store"
)

type LogFunc func(format string, args ...any)

type Config struct {
	AppConfig *config.Config
	DB        *store.DB
	// Tickets defaults to DB. Set it to put a cache in front of the ticket table.
	Tickets   resolve.Tickets
	Notifier  notify.Notifier
	MsgClient *messaging.Client
	LogFunc   LogFunc
}

type Engine struct {
	cfg          *config.Config
	db           *store.DB
	tickets      resolve.Tickets
	notifier     notify.Notifier
	msgClient    *messaging.Client
	orchestrator *resolve.Orchestrator
	Events       *EventBus
	logFn        LogFunc
	stopChan     chan struct{}
	msgConnected bool
}

func New(c Config) *Engine {
	logFn := c.LogFunc
	if logFn == nil {
		logFn = log.Printf
	}
	tickets := c.Tickets
	if tickets == nil {
		tickets = c.DB
	}
	notifier := c.Notifier
	if notifier == nil {
		notifier = notify.LogNotifier{}
	}
	return &Engine{
		cfg:       c.AppConfig,
		db:        c.DB,
		tickets:   tickets,
		notifier:  notifier,
		msgClient: c.MsgClient,
		Events:    NewEventBus(),
		logFn:     logFn,
		stopChan:  make(chan struct{}),
	}
}

func (e *Engine) Start() {
	opts := resolve.Options{
		Workers:      e.cfg.Resolve.Workers,
		RecheckDelay: e.cfg.Resolve.RecheckDelay,
		ExternalTeam: e.cfg.Notify.ExternalTeam,
		LogFunc:      resolve.LogFunc(e.logFn),
	}
	if e.cfg.Resolve.Simulate {
		opts.Responder = resolve.NewSimulator(e.db, e.cfg.Resolve.SimulateInterface)
		opts.Confirm = func(ticketID string, conf resolve.Confirmation) error {
			return e.Confirm(ticketID, conf, "simulator")
		}
		e.logFn("engine: external team simulated (interface=%v)", e.cfg.Resolve.SimulateInterface)
	}

	e.orchestrator = resolve.New(e.tickets, e.db, e.notifier, &ticketEmitter{bus: e.Events}, opts)

	e.wireEventHandlers()

	if e.msgClient != nil {
		e.checkConnectionStatus()
		go e.connectionHealthLoop()
	}

	e.logFn("engine: started")
}

// Stop cancels pending rechecks and waits for in-flight tickets.
func (e *Engine) Stop() {
	select {
	case e.stopChan <- struct{}{}:
	default:
	}
	if e.orchestrator != nil {
		e.orchestrator.Stop()
		e.orchestrator.Wait()
	}
	e.logFn("engine: stopped")
}

// Confirm routes an external team answer to the waiting ticket.
func (e *Engine) Confirm(ticketID string, conf resolve.Confirmation, source string) error {
	if err := e.orchestrator.Confirm(ticketID, conf); err != nil {
		return err
	}
	e.Events.Emit(Event{Type: EventConfirmationReceived, Payload: ConfirmationReceivedEvent{
		TicketID: ticketID,
		Rows:     len(conf.Rows),
		Note:     conf.Note,
		Source:   source,
	}})
	return nil
}

// Accessors
func (e *Engine) DB() *store.DB                       { return e.db }
func (e *Engine) Tickets() resolve.Tickets            { return e.tickets }
func (e *Engine) AppConfig() *config.Config           { return e.cfg }
func (e *Engine) Orchestrator() *resolve.Orchestrator { return e.orchestrator }
func (e *Engine) MsgClient() *messaging.Client        { return e.msgClient }

func (e *Engine) MessagingConnected() bool {
	return e.msgClient != nil && e.msgClient.IsConnected()
}

func (e *Engine) checkConnectionStatus() {
	if e.msgClient.IsConnected() {
		if !e.msgConnected {
			e.msgConnected = true
			e.Events.Emit(Event{Type: EventMessagingConnected, Payload: ConnectionEvent{Detail: "messaging connected"}})
		}
	} else {
		if e.msgConnected {
			e.msgConnected = false
			e.Events.Emit(Event{Type: EventMessagingDisconnected, Payload: ConnectionEvent{Detail: "messaging disconnected"}})
		}
	}
}

func (e *Engine) connectionHealthLoop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-e.stopChan:
			return
		case <-ticker.C:
			e.checkConnectionStatus()
		}
	}
}
