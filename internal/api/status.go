package api

import (
	"net/http"
	"runtime"
	"time"

	"github.com/nerrad567/typec-core/internal/hostbus"
)

// SystemStatus is the complete daemon status response.
type SystemStatus struct {
	Timestamp     string        `json:"timestamp"`
	Version       string        `json:"version"`
	UptimeSeconds int64         `json:"uptime_seconds"`
	Runtime       RuntimeStatus `json:"runtime"`
	Ports         PortStats     `json:"ports"`
	WebSocket     WSStatus      `json:"websocket"`
	MQTT          *ConnStatus   `json:"mqtt,omitempty"`
	InfluxDB      *ConnStatus   `json:"influxdb,omitempty"`
}

// RuntimeStatus contains Go runtime statistics.
type RuntimeStatus struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// PortStats summarises the bus inventory and the engine.
type PortStats struct {
	Total   int            `json:"total"`
	Bound   int            `json:"bound"`
	Enabled int            `json:"enabled"`
	ByState map[string]int `json:"by_state"`
}

// WSStatus contains WebSocket hub statistics.
type WSStatus struct {
	ConnectedClients int `json:"connected_clients"`
}

// ConnStatus reports connectivity of an optional downstream client.
type ConnStatus struct {
	Connected bool `json:"connected"`
}

// bytesPerMB converts runtime memory stats for the status response.
const bytesPerMB = 1024 * 1024

// handleStatus returns daemon status and subsystem connectivity.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	status := SystemStatus{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeStatus{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / bytesPerMB,
			NumGC:         memStats.NumGC,
		},
		Ports: s.portStats(),
	}

	if s.hub != nil {
		status.WebSocket.ConnectedClients = s.hub.ClientCount()
	}
	if s.mqtt != nil {
		status.MQTT = &ConnStatus{Connected: s.mqtt.IsConnected()}
	}
	if s.influx != nil {
		status.InfluxDB = &ConnStatus{Connected: s.influx.IsConnected()}
	}

	writeJSON(w, http.StatusOK, status)
}

// portStats folds the bus inventory into per-state counts.
func (s *Server) portStats() PortStats {
	infos := s.bus.Devices()
	stats := PortStats{
		Total:   len(infos),
		Enabled: len(s.engine.Ports()),
		ByState: make(map[string]int),
	}
	for _, info := range infos {
		stats.ByState[string(info.State)]++
		if info.State == hostbus.StateBound {
			stats.Bound++
		}
	}
	return stats
}
