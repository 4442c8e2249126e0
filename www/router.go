// Package www serves the ticket API, the admin endpoints and the live
// event stream.
package www

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"

	"wmstriage/engine"
)

// Version is reported by /health.
var Version = "dev"

type LogFunc func(format string, args ...any)

type Handlers struct {
	engine   *engine.Engine
	sessions *sessions.CookieStore
	eventHub *EventHub
	logFn    LogFunc
	// seed feeds the sample data generator.
	seed func() int64
}

func NewRouter(eng *engine.Engine, logFn LogFunc) (http.Handler, func()) {
	if logFn == nil {
		logFn = log.Printf
	}
	hub := NewEventHub()
	hub.Start()
	hub.SetupEngineListeners(eng)

	h := &Handlers{
		engine:   eng,
		sessions: newSessionStore(eng.AppConfig().Web.SessionSecret),
		eventHub: hub,
		logFn:    logFn,
		seed:     defaultSeed,
	}

	h.ensureDefaultAdmin(eng.DB())

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	// SSE
	r.Get("/events", hub.SSEHandler)

	r.Get("/health", h.apiHealthCheck)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)

	// Public API
	r.Route("/api", func(r chi.Router) {
		r.Post("/submit-issue", h.apiSubmitIssue)
		r.Post("/analyze", h.apiAnalyze)
		r.Get("/tickets", h.apiListTickets)
		r.Get("/tickets/active", h.apiActiveTickets)
		r.Get("/ticket/{id}", h.apiGetTicket)
		r.Get("/ticket/{id}/history", h.apiTicketHistory)
		r.Get("/stats", h.apiStats)

		// Admin
		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth)
			r.Post("/generate-sample-data", h.apiGenerateSampleData)
			r.Post("/ticket/{id}/close", h.apiCloseTicket)
			r.Post("/ticket/{id}/confirm", h.apiConfirmTicket)
			r.Get("/audit", h.apiAuditLog)
		})
	})

	stopFn := func() {
		hub.Stop()
	}

	return r, stopFn
}
