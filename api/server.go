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
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/workers/*      Workers, their monthly reports and refunds
  /api/admin/*        Administrative report operations
  /api/rollup/*       Cross-worker aggregations
  /api/sequence/*     Sequential identifier minting
  /api/catalog/*      Operation-group catalog

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public; the
  admin group is distinguished by path only.

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
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Worker routes
		r.Route("/workers", func(r chi.Router) {
			r.Get("/", h.ListWorkers)
			r.Post("/", h.CreateWorker)
			r.Get("/{id}", h.GetWorker)
			r.Get("/{id}/assignments", h.GetAssignments)
			r.Put("/{id}/assignments", h.PutAssignments)

			// Monthly report routes
			r.Route("/{id}/reports/{year}/{month}", func(r chi.Router) {
				r.Get("/", h.GetReport)
				r.Put("/days/{date}", h.EditDay)
				r.Put("/allocations/{date}", h.EditAllocations)
				r.Post("/refunds", h.AddRefund)
				r.Put("/refunds/{rid}", h.UpdateRefund)
				r.Delete("/refunds/{rid}", h.RemoveRefund)
				r.Post("/invoice", h.AttachInvoice)
				r.Post("/submit", h.SubmitReport)
			})
		})

		// Admin routes
		r.Route("/admin/reports/{worker}/{year}/{month}", func(r chi.Router) {
			r.Post("/reject-invoice", h.RejectInvoice)
			r.Post("/approve", h.ApproveReport)
			r.Delete("/", h.DeleteReport)
		})

		// Aggregation routes
		r.Route("/rollup", func(r chi.Router) {
			r.Get("/hours", h.RollupHours)
			r.Get("/costs", h.RollupCosts)
		})

		// Sequence routes
		r.Post("/sequence/{prefix}", h.MintSequence)

		// Catalog routes
		r.Route("/catalog/operations", func(r chi.Router) {
			r.Get("/", h.GetCatalog)
			r.Post("/", h.PutGroup)
		})

		// Development routes
		r.Post("/reset", h.ResetStore)
	})

	return r
}
