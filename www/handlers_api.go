package www

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"wmstriage/resolve"
	"wmstriage/store"
	"wmstriage/triage"
)

type submitRequest struct {
	UserEmail        string `json:"user_email"`
	IssueDescription string `json:"issue_description"`
}

func (h *Handlers) apiSubmitIssue(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := decodeBody(r, &req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	t, err := h.engine.Orchestrator().SubmitTicket(r.Context(), req.UserEmail, req.IssueDescription)
	if errors.Is(err, resolve.ErrInvalidReport) {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		h.logFn("www: submit issue: %v", err)
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.jsonOK(w, map[string]any{
		"success":    true,
		"ticket_id":  t.TicketID,
		"issue_type": t.IssueType,
		"entities":   triage.Extract(req.IssueDescription),
		"message":    "Issue submitted successfully and is being processed",
	})
}

// apiAnalyze runs triage without creating a ticket.
func (h *Handlers) apiAnalyze(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := decodeBody(r, &req); err != nil || req.IssueDescription == "" {
		h.jsonError(w, "issue_description is required", http.StatusBadRequest)
		return
	}
	report := triage.Analyze(req.IssueDescription)
	h.jsonOK(w, map[string]any{
		"success":    true,
		"issue_type": report.Category,
		"entities":   report.Identifiers,
		"scores":     triage.Scores(req.IssueDescription),
	})
}

func (h *Handlers) apiListTickets(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	limit := 100
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}
	tickets, err := h.engine.DB().ListTickets(status, limit)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if tickets == nil {
		tickets = []*store.Ticket{}
	}
	h.jsonOK(w, map[string]any{"success": true, "tickets": tickets})
}

// activeLister is satisfied by the redis-backed ticket cache.
type activeLister interface {
	ActiveTickets() ([]*store.Ticket, error)
}

func (h *Handlers) apiActiveTickets(w http.ResponseWriter, r *http.Request) {
	var (
		tickets []*store.Ticket
		err     error
	)
	if al, ok := h.engine.Tickets().(activeLister); ok {
		tickets, err = al.ActiveTickets()
	} else {
		var open, inProgress []*store.Ticket
		open, err = h.engine.DB().ListTickets(store.StatusOpen, 0)
		if err == nil {
			inProgress, err = h.engine.DB().ListTickets(store.StatusInProgress, 0)
		}
		tickets = append(open, inProgress...)
	}
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if tickets == nil {
		tickets = []*store.Ticket{}
	}
	h.jsonOK(w, map[string]any{"success": true, "tickets": tickets})
}

func (h *Handlers) apiGetTicket(w http.ResponseWriter, r *http.Request) {
	t, ok := h.loadTicket(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	h.jsonOK(w, map[string]any{"success": true, "ticket": t})
}

func (h *Handlers) apiTicketHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.loadTicket(w, id); !ok {
		return
	}
	history, err := h.engine.DB().ListTicketHistory(id)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if history == nil {
		history = []*store.TicketHistory{}
	}
	h.jsonOK(w, map[string]any{"success": true, "ticket_id": id, "history": history})
}

func (h *Handlers) loadTicket(w http.ResponseWriter, id string) (*store.Ticket, bool) {
	t, err := h.engine.Tickets().GetTicket(id)
	if store.IsNotFound(err) {
		h.jsonError(w, "Ticket not found", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return nil, false
	}
	return t, true
}

func (h *Handlers) apiStats(w http.ResponseWriter, r *http.Request) {
	byStatus, err := h.engine.DB().CountTicketsByStatus()
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	records, err := h.engine.DB().CountRecords()
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	total := 0
	for _, n := range byStatus {
		total += n
	}
	h.jsonOK(w, map[string]any{
		"success":           true,
		"total_tickets":     total,
		"open_tickets":      byStatus[store.StatusOpen] + byStatus[store.StatusInProgress],
		"resolved_tickets":  byStatus[store.StatusResolved],
		"by_status":         byStatus,
		"awaiting_external": len(h.engine.Orchestrator().Pending()),
		"records":           records,
	})
}

func (h *Handlers) apiHealthCheck(w http.ResponseWriter, r *http.Request) {
	dbOK := h.engine.DB().PingContext(r.Context()) == nil
	status := "healthy"
	code := http.StatusOK
	if !dbOK {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   Version,
		"database":  dbOK,
		"messaging": h.engine.MessagingConnected(),
	})
}

func (h *Handlers) jsonOK(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (h *Handlers) jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]any{"success": false, "error": msg})
}

// decodeBody decodes a JSON body. An empty body leaves v untouched.
func decodeBody(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
