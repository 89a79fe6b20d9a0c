package api

import (
	"net/http"

	"github.com/nerrad567/typec-core/internal/journal"
)

// handleJournal returns lifecycle journal entries, most recent first.
//
// Query parameters:
//   - port: filter by port name
//   - action: filter by action (attached, attach_failed, detached, removed)
//   - limit: page size (default 50, max 200)
//   - offset: pagination offset
func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	result, err := s.journal.List(r.Context(), journal.Filter{
		Port:   r.URL.Query().Get("port"),
		Action: r.URL.Query().Get("action"),
		Limit:  queryInt(r, "limit"),
		Offset: queryInt(r, "offset"),
	})
	if err != nil {
		s.logger.Error("querying journal", "error", err)
		writeInternalError(w, "failed to query journal")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
