// Package resolve drives a submitted report from triage to a terminal
// resolution state.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"wmstriage/checker"
	"wmstriage/notify"
	"wmstriage/store"
	"wmstriage/triage"
)

type LogFunc func(format string, args ...any)

type Options struct {
	Workers      int
	RecheckDelay time.Duration
	ExternalTeam string
	// Responder, when set, answers external requests in-process.
	Responder Responder
	// Confirm delivers the Responder's answers. It defaults to
	// Orchestrator.Confirm; owners set it to observe those answers too.
	Confirm func(ticketID string, conf Confirmation) error
	LogFunc LogFunc
}

type Orchestrator struct {
	tickets  Tickets
	records  Records
	checker  *checker.Checker
	notifier notify.Notifier
	emitter  Emitter
	opts     Options
	logFn    LogFunc

	sem    *semaphore.Weighted
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	pending map[string]*pendingRecheck

	// writeMu orders ticket writes so an operator close is never
	// overwritten by a unit still working the ticket.
	writeMu sync.Mutex
}

// pendingRecheck is one ticket waiting on the external team. It is removed
// from the pending map by exactly one of: its timer, Confirm, CloseManually
// or Stop.
type pendingRecheck struct {
	req   ExternalRequest
	timer *time.Timer
}

func New(tickets Tickets, records Records, notifier notify.Notifier, emitter Emitter, opts Options) *Orchestrator {
	if opts.Workers <= 0 {
		opts.Workers = 8
	}
	if opts.RecheckDelay <= 0 {
		opts.RecheckDelay = 5 * time.Second
	}
	if emitter == nil {
		emitter = nopEmitter{}
	}
	logFn := opts.LogFunc
	if logFn == nil {
		logFn = log.Printf
	}
	ctx, cancel := context.WithCancel(context.Background())
	o := &Orchestrator{
		tickets:  tickets,
		records:  records,
		checker:  checker.New(records),
		notifier: notifier,
		emitter:  emitter,
		opts:     opts,
		logFn:    logFn,
		sem:      semaphore.NewWeighted(int64(opts.Workers)),
		ctx:      ctx,
		cancel:   cancel,
		pending:  make(map[string]*pendingRecheck),
	}
	if o.opts.Confirm == nil {
		o.opts.Confirm = o.Confirm
	}
	return o
}

// Submit validates and records a report, then processes it in the
// background. It returns as soon as the ticket exists.
func (o *Orchestrator) Submit(ctx context.Context, email, text string) (string, error) {
	t, err := o.SubmitTicket(ctx, email, text)
	if err != nil {
		return "", err
	}
	return t.TicketID, nil
}

// SubmitTicket is Submit returning the ticket as created.
func (o *Orchestrator) SubmitTicket(ctx context.Context, email, text string) (*store.Ticket, error) {
	email = strings.TrimSpace(email)
	if err := validate(email, text); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	report := triage.Analyze(text)
	t := &store.Ticket{
		TicketID:    NewTicketID(),
		UserEmail:   email,
		Description: text,
		IssueType:   string(report.Category),
		Status:      store.StatusOpen,
		Stage:       string(StageReceived),
	}
	setIDs(t, report.Identifiers)
	if err := o.tickets.CreateTicket(t); err != nil {
		return nil, fmt.Errorf("create ticket: %w", err)
	}
	if err := o.tickets.AppendTicketHistory(t.TicketID, t.Status, t.Stage, "report received"); err != nil {
		o.logFn("resolve: ticket %s: history: %v", t.TicketID, err)
	}
	o.emitter.EmitTicketCreated(t.TicketID, t.UserEmail, t.IssueType)

	created := *t
	o.spawn(t.TicketID, func(ctx context.Context) { o.process(ctx, t.TicketID) })
	return &created, nil
}

func validate(email, text string) error {
	if email == "" || strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: missing required fields: user_email and issue_description", ErrInvalidReport)
	}
	if !strings.Contains(email, "@") {
		return fmt.Errorf("%w: user_email %q is not an email address", ErrInvalidReport, email)
	}
	return nil
}

// spawn runs fn on its own goroutine once a worker slot is free. Panics are
// contained to the ticket that caused them.
func (o *Orchestrator) spawn(ticketID string, fn func(ctx context.Context)) {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		if err := o.sem.Acquire(o.ctx, 1); err != nil {
			o.logFn("resolve: ticket %s: not started: %v", ticketID, err)
			return
		}
		defer o.sem.Release(1)
		defer func() {
			if r := recover(); r != nil {
				o.logFn("resolve: ticket %s: panic: %v", ticketID, r)
				o.markFailed(ticketID, fmt.Sprintf("panic: %v", r))
			}
		}()
		fn(o.ctx)
	}()
}

func (o *Orchestrator) process(ctx context.Context, ticketID string) {
	t, err := o.tickets.GetTicket(ticketID)
	if err != nil {
		o.logFn("resolve: ticket %s: load: %v", ticketID, err)
		return
	}
	category, err := triage.ParseCategory(t.IssueType)
	if err != nil {
		o.logFn("resolve: ticket %s: %v", ticketID, err)
	}
	if err := o.transition(t, store.StatusInProgress, StageTriage, "classified as "+string(category)); err != nil {
		o.fail(t, err)
		return
	}
	if category == triage.Unknown {
		if err := o.manualReview(ctx, t, "issue type could not be classified"); err != nil {
			o.fail(t, err)
		}
		return
	}
	if err := o.dispatch(ctx, t, category, identifiersOf(t)); err != nil {
		o.fail(t, err)
	}
}

func (o *Orchestrator) dispatch(ctx context.Context, t *store.Ticket, category triage.Category, ids triage.Identifiers) error {
	if err := o.transition(t, store.StatusInProgress, StageDispatch, "checking records for "+string(category)); err != nil {
		return err
	}
	res, err := o.checker.Check(ctx, category, ids)
	if err != nil {
		return err
	}
	if res.Outcome == checker.OutcomeCannotEvaluate {
		return o.manualReview(ctx, t, fmt.Sprintf("%s report is missing the identifier needed to check it", category))
	}

	switch category {
	case triage.MissingASN:
		if res.Outcome == checker.OutcomePresent {
			return o.resolve(ctx, t, category, ids, notify.ASNSnippet(res.ASNHeader, res.ASNLines))
		}
		return o.requestExternal(ctx, t, KindInterface, category, ids, "")

	case triage.MissingPO:
		if settled, err := o.settlePO(ctx, t, ids, res); settled {
			return err
		}
		return o.requestExternal(ctx, t, KindInterface, category, ids, "")

	case triage.MissingPallet:
		if res.Outcome == checker.OutcomePresent {
			return o.resolve(ctx, t, category, ids, notify.PalletSnippet(res.POLine, res.ASNLine))
		}
		if res.POLine != nil {
			ids = ids.Or(triage.Identifiers{POID: res.POLine.POID, ASNID: res.POLine.ASNID})
		}
		if res.ASNLine != nil {
			ids = ids.Or(triage.Identifiers{POID: res.ASNLine.POID, ASNID: res.ASNLine.ASNID})
		}
		return o.requestExternal(ctx, t, KindDetails, category, ids, "")

	case triage.QuantityMismatch:
		snippet := ""
		if len(res.POLines) > 0 {
			snippet = notify.POSnippet(nil, res.POLines)
		}
		return o.requestExternal(ctx, t, KindDetails, category, ids, snippet)
	}
	return o.manualReview(ctx, t, "no handler for "+string(category))
}

// settlePO acts on a missing-PO check: a consistent PO resolves, an
// inconsistent one is reclassified. It reports false while the PO is absent.
func (o *Orchestrator) settlePO(ctx context.Context, t *store.Ticket, ids triage.Identifiers, res *checker.Result) (bool, error) {
	switch res.Outcome {
	case checker.OutcomeConsistent:
		return true, o.resolve(ctx, t, triage.MissingPO, ids, notify.POSnippet(res.POHeader, res.POLines))
	case checker.OutcomeMissingPallet:
		ids.PalletID = res.PalletID
		if ids.ASNID == "" {
			ids.ASNID = asnForPallet(res, res.PalletID)
		}
		return true, o.reclassify(ctx, t, triage.MissingPallet, ids,
			fmt.Sprintf("pallet %s differs between PO and ASN lines", res.PalletID))
	case checker.OutcomeQuantityMismatch:
		return true, o.reclassify(ctx, t, triage.QuantityMismatch, ids,
			fmt.Sprintf("PO quantity %d does not match ASN quantity %d", res.POQuantity, res.ASNQuantity))
	}
	return false, nil
}

// reclassify moves a missing-PO ticket onto the category its inconsistency
// points at and dispatches it again.
func (o *Orchestrator) reclassify(ctx context.Context, t *store.Ticket, to triage.Category, ids triage.Identifiers, reason string) error {
	from := t.IssueType
	t.IssueType = string(to)
	setIDs(t, ids)
	if err := o.transition(t, store.StatusInProgress, StageTriage, fmt.Sprintf("reclassified %s -> %s: %s", from, to, reason)); err != nil {
		return err
	}
	return o.dispatch(ctx, t, to, ids)
}

func asnForPallet(res *checker.Result, palletID string) string {
	for _, l := range res.POLines {
		if l.PalletID == palletID && l.ASNID != "" {
			return l.ASNID
		}
	}
	for _, l := range res.ASNLines {
		if l.PalletID == palletID {
			return l.ASNID
		}
	}
	return ""
}

func (o *Orchestrator) requestExternal(ctx context.Context, t *store.Ticket, kind RequestKind, category triage.Category, ids triage.Identifiers, snippet string) error {
	outcome := notify.OutcomeNotFound
	if kind == KindDetails {
		outcome = notify.OutcomeRequestDetails
	}
	msg := notify.Compose(category, outcome, ids, snippet)
	msg.To = o.opts.ExternalTeam
	o.send(ctx, t.TicketID, msg)

	req := ExternalRequest{TicketID: t.TicketID, Kind: kind, Category: category, Identifiers: ids, Subject: msg.Subject}
	o.emitter.EmitExternalRequest(req)

	setIDs(t, ids)
	if err := o.transition(t, store.StatusInProgress, StageAwaitingExternal, string(kind)+" request sent: "+msg.Subject); err != nil {
		return err
	}
	o.await(req)

	if o.opts.Responder == nil {
		return nil
	}
	conf, err := o.opts.Responder.Respond(req)
	if err != nil {
		o.logFn("resolve: ticket %s: responder: %v", t.TicketID, err)
		return nil
	}
	if conf != nil {
		if err := o.opts.Confirm(t.TicketID, *conf); err != nil {
			o.logFn("resolve: ticket %s: confirm: %v", t.TicketID, err)
		}
	}
	return nil
}

// await schedules the single recheck for req.
func (o *Orchestrator) await(req ExternalRequest) {
	p := &pendingRecheck{req: req}
	o.mu.Lock()
	defer o.mu.Unlock()
	if old := o.pending[req.TicketID]; old != nil {
		old.timer.Stop()
		o.wg.Done()
	}
	o.wg.Add(1)
	o.pending[req.TicketID] = p
	p.timer = time.AfterFunc(o.opts.RecheckDelay, func() {
		o.mu.Lock()
		if o.pending[req.TicketID] != p {
			o.mu.Unlock()
			return
		}
		delete(o.pending, req.TicketID)
		o.mu.Unlock()
		o.startRecheck(p, nil)
	})
}

// Confirm delivers the external team's answer for a waiting ticket and runs
// its recheck now instead of at the timeout.
func (o *Orchestrator) Confirm(ticketID string, conf Confirmation) error {
	o.mu.Lock()
	p := o.pending[ticketID]
	if p == nil {
		o.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNoPendingRequest, ticketID)
	}
	delete(o.pending, ticketID)
	p.timer.Stop()
	o.mu.Unlock()
	o.startRecheck(p, &conf)
	return nil
}

func (o *Orchestrator) startRecheck(p *pendingRecheck, conf *Confirmation) {
	o.spawn(p.req.TicketID, func(ctx context.Context) { o.recheck(ctx, p.req, conf) })
	o.wg.Done()
}

func (o *Orchestrator) recheck(ctx context.Context, req ExternalRequest, conf *Confirmation) {
	t, err := o.tickets.GetTicket(req.TicketID)
	if err != nil {
		o.logFn("resolve: ticket %s: load for recheck: %v", req.TicketID, err)
		return
	}
	if t.Status == store.StatusClosed || t.Status == store.StatusResolved {
		return
	}
	if err := o.runRecheck(ctx, t, req, conf); err != nil {
		o.fail(t, err)
	}
}

func (o *Orchestrator) runRecheck(ctx context.Context, t *store.Ticket, req ExternalRequest, conf *Confirmation) error {
	ids := req.Identifiers
	if conf != nil && len(conf.Rows) > 0 {
		if err := o.applyRows(conf.Rows); err != nil {
			return err
		}
		if err := o.tickets.AppendTicketHistory(t.TicketID, t.Status, t.Stage,
			fmt.Sprintf("applied %d confirmed detail rows", len(conf.Rows))); err != nil {
			o.logFn("resolve: ticket %s: history: %v", t.TicketID, err)
		}
	}

	switch req.Category {
	case triage.MissingASN:
		res, err := o.checker.CheckASN(ids.ASNID)
		if err != nil {
			return err
		}
		if res.Outcome == checker.OutcomePresent {
			return o.resolve(ctx, t, req.Category, ids, notify.ASNSnippet(res.ASNHeader, res.ASNLines))
		}
	case triage.MissingPO:
		res, err := o.checker.CheckPO(ids.POID)
		if err != nil {
			return err
		}
		if settled, err := o.settlePO(ctx, t, ids, res); settled {
			return err
		}
	case triage.MissingPallet:
		res, err := o.checker.CheckPallet(ids.PalletID)
		if err != nil {
			return err
		}
		if res.Outcome == checker.OutcomePresent {
			return o.resolve(ctx, t, req.Category, ids, notify.PalletSnippet(res.POLine, res.ASNLine))
		}
	case triage.QuantityMismatch:
		if conf != nil {
			snippet := ""
			if ids.POID != "" {
				lines, err := o.records.ListPOLines(ids.POID)
				if err != nil {
					return fmt.Errorf("list po lines %s: %w", ids.POID, err)
				}
				if len(lines) > 0 {
					snippet = notify.POSnippet(nil, lines)
				}
			}
			return o.resolve(ctx, t, req.Category, ids, snippet)
		}
	}

	detail := "recheck found the discrepancy unresolved"
	if conf == nil {
		detail = "no confirmation before recheck; " + detail
	}
	return o.transition(t, store.StatusInProgress, StageUnconfirmed, detail)
}

// applyRows writes each confirmed row as a matching PO line and ASN line.
func (o *Orchestrator) applyRows(rows []DetailRow) error {
	for _, r := range rows {
		if r.PalletID == "" {
			o.logFn("resolve: skipping detail row without pallet id: %+v", r)
			continue
		}
		if err := o.records.UpsertPOLine(&store.POLine{
			POID: r.POID, PalletID: r.PalletID, ASNID: r.ASNID, Quantity: r.Quantity,
		}); err != nil {
			return fmt.Errorf("apply po line for pallet %s: %w", r.PalletID, err)
		}
		if err := o.records.UpsertASNLine(&store.ASNLine{
			ASNID: r.ASNID, PalletID: r.PalletID, POID: r.POID, Quantity: r.Quantity, SupplierReference: r.SupplierReference,
		}); err != nil {
			return fmt.Errorf("apply asn line for pallet %s: %w", r.PalletID, err)
		}
	}
	return nil
}

func (o *Orchestrator) resolve(ctx context.Context, t *store.Ticket, category triage.Category, ids triage.Identifiers, snippet string) error {
	msg := notify.Compose(category, notify.OutcomeResolved, ids, snippet)
	msg.To = t.UserEmail
	o.send(ctx, t.TicketID, msg)
	now := time.Now()
	t.ResolvedAt = &now
	return o.transition(t, store.StatusResolved, StageResolved, msg.Subject)
}

func (o *Orchestrator) manualReview(ctx context.Context, t *store.Ticket, reason string) error {
	msg := notify.ComposeManualReview(t.TicketID, t.Description)
	msg.To = t.UserEmail
	o.send(ctx, t.TicketID, msg)
	return o.transition(t, store.StatusOpen, StageManualReview, reason)
}

// send logs delivery failures; they never stop the state machine.
func (o *Orchestrator) send(ctx context.Context, ticketID string, msg notify.Message) {
	if err := o.notifier.Send(ctx, msg); err != nil {
		o.logFn("resolve: ticket %s: notify %s %q: %v", ticketID, msg.Audience, msg.Subject, err)
	}
}

// fail records a unit failure. The status stays as it was, never resolved.
func (o *Orchestrator) fail(t *store.Ticket, cause error) {
	if errors.Is(cause, ErrTicketClosed) {
		o.logFn("resolve: ticket %s: closed by an operator, stopping", t.TicketID)
		o.dropPending(t.TicketID)
		return
	}
	o.logFn("resolve: ticket %s: %v", t.TicketID, cause)
	status := t.Status
	if status == store.StatusOpen {
		status = store.StatusInProgress
	}
	if err := o.transition(t, status, StageFailed, cause.Error()); err != nil {
		o.logFn("resolve: ticket %s: record failure: %v", t.TicketID, err)
	}
}

func (o *Orchestrator) markFailed(ticketID, detail string) {
	t, err := o.tickets.GetTicket(ticketID)
	if err != nil {
		o.logFn("resolve: ticket %s: load after panic: %v", ticketID, err)
		return
	}
	o.fail(t, fmt.Errorf("%s", detail))
}

func (o *Orchestrator) transition(t *store.Ticket, status string, stage Stage, detail string) error {
	o.writeMu.Lock()
	stored, err := o.tickets.GetTicket(t.TicketID)
	if err != nil {
		o.writeMu.Unlock()
		return fmt.Errorf("reload ticket %s: %w", t.TicketID, err)
	}
	if stored.Status == store.StatusClosed {
		o.writeMu.Unlock()
		t.Status, t.Stage = stored.Status, stored.Stage
		return ErrTicketClosed
	}
	oldStatus, oldStage := t.Status, Stage(t.Stage)
	t.Status, t.Stage = status, string(stage)
	if err := o.tickets.UpdateTicket(t); err != nil {
		o.writeMu.Unlock()
		t.Status, t.Stage = oldStatus, string(oldStage)
		return fmt.Errorf("update ticket %s: %w", t.TicketID, err)
	}
	o.writeMu.Unlock()
	if err := o.tickets.AppendTicketHistory(t.TicketID, status, string(stage), detail); err != nil {
		o.logFn("resolve: ticket %s: history: %v", t.TicketID, err)
	}
	o.emitter.EmitTicketTransition(t.TicketID, oldStatus, status, oldStage, stage, detail)
	return nil
}

// CloseManually closes a ticket on an operator's behalf, dropping any
// pending recheck.
func (o *Orchestrator) CloseManually(ticketID, actor string) (*store.Ticket, error) {
	t, err := o.tickets.GetTicket(ticketID)
	if err != nil {
		return nil, err
	}
	if t.Status == store.StatusClosed {
		return t, ErrTicketClosed
	}
	o.dropPending(ticketID)
	if t.ResolvedAt == nil {
		now := time.Now()
		t.ResolvedAt = &now
	}
	if err := o.transition(t, store.StatusClosed, StageClosed, "closed by "+actor); err != nil {
		if errors.Is(err, ErrTicketClosed) {
			return t, err
		}
		return nil, err
	}
	return t, nil
}

func (o *Orchestrator) dropPending(ticketID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if p := o.pending[ticketID]; p != nil {
		delete(o.pending, ticketID)
		p.timer.Stop()
		o.wg.Done()
	}
}

// Pending returns the IDs of tickets waiting on the external team.
func (o *Orchestrator) Pending() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	ids := make([]string, 0, len(o.pending))
	for id := range o.pending {
		ids = append(ids, id)
	}
	return ids
}

// Wait blocks until every processing unit and scheduled recheck has finished.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// Stop cancels pending rechecks and prevents queued units from starting.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	for id, p := range o.pending {
		delete(o.pending, id)
		p.timer.Stop()
		o.wg.Done()
	}
	o.mu.Unlock()
	o.cancel()
}

func identifiersOf(t *store.Ticket) triage.Identifiers {
	return triage.Identifiers{ASNID: t.ASNID, POID: t.POID, PalletID: t.PalletID}
}

func setIDs(t *store.Ticket, ids triage.Identifiers) {
	t.ASNID, t.POID, t.PalletID = ids.ASNID, ids.POID, ids.PalletID
}
