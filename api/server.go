/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the host application's frontend

ROUTE GROUPS:
  /api/periods/*    Period calendar lookups
  /api/requests/*   Request classification
  /api/conflicts/*  Staffing conflict evaluation
  /api/alerts/*     Deadline alert state and manual ticks
  /api/pilots/*     Roster members

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Period routes. A period code is "RPnn/yyyy", so a code lookup
		// spans two path segments.
		r.Route("/periods", func(r chi.Router) {
			r.Get("/", h.GetPeriodForDate)
			r.Get("/upcoming", h.ListUpcomingPeriods)
			r.Get("/{number}/{year}", h.GetPeriodByCode)
		})

		// Request routes
		r.Route("/requests", func(r chi.Router) {
			r.Get("/", h.ListRequests)
			r.Post("/classify", h.ClassifyRequest)
		})

		// Conflict routes
		r.Route("/conflicts", func(r chi.Router) {
			r.Post("/evaluate", h.EvaluateConflicts)
		})

		// Alert routes
		r.Route("/alerts", func(r chi.Router) {
			r.Get("/", h.ListAlertStates)
			r.Post("/tick", h.TriggerTick)
		})

		// Roster routes
		r.Route("/pilots", func(r chi.Router) {
			r.Get("/", h.ListPilots)
			r.Post("/", h.CreatePilot)
		})
	})

	return r
}
