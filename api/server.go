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
  /api/machines/*   Machine registry and sale lifecycle
  /api/sales/*      Sale release/restore
  /api/employees/*  Employee registry and leave requests
  /api/leaves/*     Leave decision workflow
  /api/admin/*      Sweep trigger and run history
  /api/audit        Audit trail

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

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
		// Machine routes
		r.Route("/machines", func(r chi.Router) {
			r.Get("/", h.ListMachines)
			r.Post("/", h.CreateMachine)
			r.Get("/{id}", h.GetMachine)
			r.Get("/{id}/sales", h.MachineSales)
			r.Post("/{id}/sales", h.CreateSale)
		})

		// Sale routes
		r.Route("/sales", func(r chi.Router) {
			r.Get("/{id}", h.GetSale)
			r.Delete("/{id}", h.ReleaseSale)
			r.Post("/{id}/restore", h.RestoreSale)
		})

		// Employee routes
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Get("/{id}", h.GetEmployee)
			r.Get("/{id}/leaves", h.EmployeeLeaves)
			r.Post("/{id}/leaves", h.CreateLeave)
		})

		// Leave routes
		r.Route("/leaves", func(r chi.Router) {
			r.Get("/{id}", h.GetLeave)
			r.Post("/{id}/decide", h.DecideLeave)
		})

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Post("/sweep", h.TriggerSweep)
			r.Get("/sweeps", h.ListSweepRuns)
		})

		// Audit trail
		r.Get("/audit", h.ListAudit)
	})

	return r
}
