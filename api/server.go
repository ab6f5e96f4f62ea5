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
  /api/investors/*       Investor management
  /api/investments/*     Investments and derived views
  /api/projection        Standalone projection tool
  /api/admin/*           Reconciliation triggers
  /api/reconciliation/*  Run audit log
  /api/reset             Database reset (dev only)
  /*                     Static files (frontend)

STATIC FILE SERVING:
  In production, serves the built React app from web/dist/.
  Falls back to index.html for client-side routing.

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"os"
	"path/filepath"

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
		// Investor routes
		r.Route("/investors", func(r chi.Router) {
			r.Get("/", h.ListInvestors)
			r.Post("/", h.CreateInvestor)
			r.Get("/{id}", h.GetInvestor)
			r.Delete("/{id}", h.DeleteInvestor)
			r.Get("/{id}/investments", h.ListInvestorInvestments)
		})

		// Investment routes
		r.Route("/investments", func(r chi.Router) {
			r.Get("/", h.ListInvestments)
			r.Post("/", h.CreateInvestment)
			r.Get("/{id}", h.GetInvestment)
			r.Get("/{id}/accrual", h.GetAccrual)
			r.Get("/{id}/projection", h.GetInvestmentProjection)
			r.Get("/{id}/schedule", h.GetSchedule)
			r.Get("/{id}/transactions", h.GetTransactions)
			r.Get("/{id}/exit-value", h.GetExitValue)
			r.Get("/{id}/next-disbursement", h.GetNextDisbursement)
		})

		// Standalone projection tool
		r.Get("/projection", h.GetProjection)

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Post("/reconcile", h.TriggerReconcile)
			r.Post("/reconcile/{id}", h.TriggerReconcileOne)
		})

		// Reconciliation audit log
		r.Route("/reconciliation", func(r chi.Router) {
			r.Get("/runs", h.ListReconciliationRuns)
		})

		// Dev only
		r.Post("/reset", h.ResetDatabase)
	})

	// Serve static files (React app)
	// First try ./web/dist (development), then fall back to message
	staticDir := "./web/dist"
	if _, err := os.Stat(staticDir); os.IsNotExist(err) {
		// Try relative to executable
		exe, _ := os.Executable()
		staticDir = filepath.Join(filepath.Dir(exe), "web", "dist")
	}

	if _, err := os.Stat(staticDir); err == nil {
		fileServer := http.FileServer(http.Dir(staticDir))
		r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
			fullPath := filepath.Join(staticDir, r.URL.Path)

			// Check if file exists
			if _, err := os.Stat(fullPath); os.IsNotExist(err) {
				// SPA routing: serve index.html
				http.ServeFile(w, r, filepath.Join(staticDir, "index.html"))
				return
			}
			fileServer.ServeHTTP(w, r)
		})
	} else {
		r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Debenture Engine</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Debenture Engine API</h1>
<p>The frontend is not built yet. Run <code>cd web && npm install && npm run build</code></p>
<h2>API Endpoints</h2>
<ul>
<li><a href="/api/investors">/api/investors</a> - List investors</li>
<li><a href="/api/investments">/api/investments</a> - List investments</li>
<li><a href="/api/projection?principal=5000000">/api/projection</a> - Projection tool</li>
<li><a href="/api/reconciliation/runs">/api/reconciliation/runs</a> - Reconciliation history</li>
</ul>
</body>
</html>`))
		})
	}

	return r
}
