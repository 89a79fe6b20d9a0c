package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// Liveness probe (no auth, outside the versioned tree)
	r.Get("/healthz", s.handleHealthz)

	// WebSocket event stream. The path is configurable; the stream is
	// read-only so it shares the open-read policy of the GET routes.
	wsPath := s.wsCfg.Path
	if wsPath == "" {
		wsPath = "/ws"
	}
	r.Get(wsPath, s.handleWebSocket)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)

		// Token exchange (no auth required; the admin key is the credential)
		r.Post("/auth/token", s.handleToken)

		// Port endpoints
		r.Route("/ports", func(r chi.Router) {
			r.Get("/", s.handleListPorts)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetPort)
				r.Get("/history", s.handlePortHistory)

				// Lifecycle dispatch drives VBUS and the bus hardware, so
				// these require a bearer token.
				r.Group(func(r chi.Router) {
					r.Use(s.authMiddleware)

					r.Post("/attach", s.handleAttachPort)
					r.Post("/detach", s.handleDetachPort)
				})
			})
		})

		// Lifecycle journal
		r.Get("/journal", s.handleJournal)

		// Diagnostic attributes
		r.Route("/diag", func(r chi.Router) {
			r.Get("/", s.handleListDiag)
			r.Get("/{name}", s.handleGetDiag)
		})
	})

	return r
}

// handleHealthz returns the server health status.
func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
