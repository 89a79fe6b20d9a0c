package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleListDiag returns the names of all registered diagnostic providers.
func (s *Server) handleListDiag(w http.ResponseWriter, _ *http.Request) {
	names := s.diag.Names()
	writeJSON(w, http.StatusOK, map[string]any{"providers": names, "count": len(names)})
}

// handleGetDiag returns the current attributes of one diagnostic provider.
func (s *Server) handleGetDiag(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	attrs, ok := s.diag.Get(name)
	if !ok {
		writeNotFound(w, "diagnostic provider not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"name":       name,
		"attributes": attrs,
	})
}
