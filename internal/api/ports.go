package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sys/unix"

	"github.com/nerrad567/typec-core/internal/hostbus"
	"github.com/nerrad567/typec-core/internal/journal"
	"github.com/nerrad567/typec-core/internal/typec"
)

// PortView joins the bus inventory entry for a port with the engine's
// protocol snapshot. Typec is nil while the port is not enabled.
type PortView struct {
	hostbus.DeviceInfo
	Typec *typec.Snapshot `json:"typec,omitempty"`
}

// DispatchResult reports the outcome of an attach or detach dispatch.
type DispatchResult struct {
	Port   string `json:"port"`
	Action string `json:"action"`
	Errno  int    `json:"errno"`
}

// handleListPorts returns all registered ports with their protocol state.
func (s *Server) handleListPorts(w http.ResponseWriter, _ *http.Request) {
	ports := s.portViews()
	writeJSON(w, http.StatusOK, map[string]any{"ports": ports, "count": len(ports)})
}

// handleGetPort returns a single port by name.
func (s *Server) handleGetPort(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	for _, info := range s.bus.Devices() {
		if info.Name == id {
			writeJSON(w, http.StatusOK, s.portView(info))
			return
		}
	}
	writeNotFound(w, "port not found")
}

// handleAttachPort dispatches an attach for the named port.
func (s *Server) handleAttachPort(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	errno := s.bus.Attach(r.Context(), id)
	if errno != 0 {
		status, code, message := errnoStatus(errno)
		writeErrnoError(w, status, code, message, errno)
		return
	}

	writeJSON(w, http.StatusOK, DispatchResult{Port: id, Action: "attach"})
}

// handleDetachPort dispatches a detach for the named port. Per the host
// boundary convention this reports success even when the port was not
// attached; only an unknown port fails.
func (s *Server) handleDetachPort(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	errno := s.bus.Detach(r.Context(), id)
	if errno != 0 {
		status, code, message := errnoStatus(errno)
		writeErrnoError(w, status, code, message, errno)
		return
	}

	writeJSON(w, http.StatusOK, DispatchResult{Port: id, Action: "detach"})
}

// handlePortHistory returns recorded state changes for the named port,
// most recent first.
//
// Query parameters:
//   - event: filter by event name
//   - limit: page size (default 50, max 200)
//   - offset: pagination offset
func (s *Server) handlePortHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result, err := s.journal.History(r.Context(), journal.HistoryFilter{
		Port:   id,
		Event:  r.URL.Query().Get("event"),
		Limit:  queryInt(r, "limit"),
		Offset: queryInt(r, "offset"),
	})
	if err != nil {
		s.logger.Error("querying port history", "port", id, "error", err)
		writeInternalError(w, "failed to query port history")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// portViews builds the joined view for every registered port.
func (s *Server) portViews() []PortView {
	infos := s.bus.Devices()
	views := make([]PortView, 0, len(infos))
	for _, info := range infos {
		views = append(views, s.portView(info))
	}
	return views
}

// portView joins one inventory entry with the engine snapshot, if any.
func (s *Server) portView(info hostbus.DeviceInfo) PortView {
	view := PortView{DeviceInfo: info}
	if snap, ok := s.engine.State(info.Name); ok {
		view.Typec = &snap
	}
	return view
}

// errnoStatus maps a host-boundary errno to the HTTP response for a failed
// dispatch.
func errnoStatus(errno int) (int, string, string) {
	switch errno {
	case -int(unix.ENODEV):
		return http.StatusNotFound, ErrCodeNotFound, "no such port or no matching driver"
	case -int(unix.EBUSY):
		return http.StatusConflict, ErrCodePortBusy, "port already attached"
	default:
		return http.StatusInternalServerError, ErrCodeAttachFailed,
			fmt.Sprintf("attach failed with errno %d", errno)
	}
}

// queryInt parses an integer query parameter, returning 0 when absent or
// malformed. The repository applies its own defaults and bounds.
func queryInt(r *http.Request, key string) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
