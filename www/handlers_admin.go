package www

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"wmstriage/resolve"
	"wmstriage/sampledata"
	"wmstriage/store"
)

func defaultSeed() int64 { return time.Now().UnixNano() }

func (h *Handlers) apiGenerateSampleData(w http.ResponseWriter, r *http.Request) {
	opts := sampledata.DefaultOptions()
	if err := decodeBody(r, &opts); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	gen := sampledata.New(h.engine.DB(), h.seed())
	sum, err := gen.Generate(opts)
	if err != nil {
		h.logFn("www: generate sample data: %v", err)
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	scenarios, err := gen.CreateScenarios()
	if err != nil {
		h.logFn("www: create scenarios: %v", err)
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := h.engine.DB().AppendAudit("records", "sample", "generated", "",
		strconv.Itoa(len(sum.ASNs))+" asns, "+strconv.Itoa(len(sum.POs))+" pos", h.getUsername(r)); err != nil {
		h.logFn("www: audit sample data: %v", err)
	}

	h.jsonOK(w, map[string]any{
		"success":        true,
		"message":        "Sample data generated successfully",
		"asn_count":      len(sum.ASNs),
		"po_count":       len(sum.POs),
		"test_scenarios": scenarios,
		"sample_issues":  sampledata.SampleIssues(scenarios),
	})
}

func (h *Handlers) apiCloseTicket(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	t, err := h.engine.Orchestrator().CloseManually(id, h.getUsername(r))
	switch {
	case store.IsNotFound(err):
		h.jsonError(w, "Ticket not found", http.StatusNotFound)
	case errors.Is(err, resolve.ErrTicketClosed):
		h.jsonError(w, err.Error(), http.StatusConflict)
	case err != nil:
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
	default:
		h.jsonOK(w, map[string]any{"success": true, "ticket": t})
	}
}

// apiConfirmTicket accepts the external team's answer over HTTP, for teams
// not on the message broker.
func (h *Handlers) apiConfirmTicket(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var conf resolve.Confirmation
	if err := decodeBody(r, &conf); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	for _, row := range conf.Rows {
		if row.PalletID == "" || row.POID == "" || row.Quantity <= 0 {
			h.jsonError(w, "each row needs pallet_id, po_id and a positive quantity", http.StatusBadRequest)
			return
		}
	}
	err := h.engine.Confirm(id, conf, "http")
	if errors.Is(err, resolve.ErrNoPendingRequest) {
		h.jsonError(w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, map[string]any{"success": true, "ticket_id": id, "rows": len(conf.Rows)})
}

func (h *Handlers) apiAuditLog(w http.ResponseWriter, r *http.Request) {
	var (
		entries []*store.AuditEntry
		err     error
	)
	if id := r.URL.Query().Get("ticket"); id != "" {
		entries, err = h.engine.DB().ListEntityAudit("ticket", id)
	} else {
		limit := 200
		if n, convErr := strconv.Atoi(r.URL.Query().Get("limit")); convErr == nil && n > 0 {
			limit = n
		}
		entries, err = h.engine.DB().ListAuditLog(limit)
	}
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []*store.AuditEntry{}
	}
	h.jsonOK(w, map[string]any{"success": true, "entries": entries})
}
