package telemetry

import (
	"sync"
	"time"

	"github.com/nerrad567/typec-core/internal/hostbus"
	"github.com/nerrad567/typec-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/typec-core/internal/typec"
)

// Writer is the subset of the InfluxDB client the sampler writes through.
type Writer interface {
	WritePortSample(port string, s influxdb.PortSample)
	WriteAttachLatency(port string, s influxdb.AttachSample)
}

// Sampler turns engine updates and bus notifications into telemetry points.
// Real events are written as they happen; tick updates only document an idle
// port and are held to at most one sample per interval.
type Sampler struct {
	writer   Writer
	interval time.Duration

	mu         sync.Mutex
	lastSample map[string]time.Time
}

var _ typec.Sink = (*Sampler)(nil)

// NewSampler creates a sampler writing through w. The interval bounds
// tick-driven samples per port; zero or less writes every tick.
func NewSampler(w Writer, interval time.Duration) *Sampler {
	return &Sampler{
		writer:     w,
		interval:   interval,
		lastSample: make(map[string]time.Time),
	}
}

// PortUpdate implements typec.Sink.
func (s *Sampler) PortUpdate(u typec.Update) {
	if !s.shouldSample(u) {
		return
	}

	s.writer.WritePortSample(u.PortID, influxdb.PortSample{
		Connection:  string(u.State.Connection),
		Orientation: string(u.State.Orientation),
		Role:        string(u.State.Role),
		CurrentMA:   currentMilliamps(u.State.Current),
		VBus:        u.State.VBus,
		Events:      u.State.Events,
		Time:        u.Time,
	})
}

// shouldSample throttles tick updates against the last written sample.
func (s *Sampler) shouldSample(u typec.Update) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.Event == typec.EventTick.String() && s.interval > 0 {
		if last, ok := s.lastSample[u.PortID]; ok && u.Time.Sub(last) < s.interval {
			return false
		}
	}
	s.lastSample[u.PortID] = u.Time
	return true
}

// Lifecycle returns a bus notifier recording lifecycle operation latency.
// Removals are registry bookkeeping, not timed operations, and are skipped.
func (s *Sampler) Lifecycle() hostbus.Notifier {
	return func(n hostbus.Notification) {
		if n.Action == hostbus.ActionRemoved {
			return
		}

		s.writer.WriteAttachLatency(n.Device.Name, influxdb.AttachSample{
			Driver:   n.Driver,
			Action:   string(n.Action),
			Errno:    n.Errno,
			Duration: n.Duration,
		})
	}
}

// currentMilliamps converts an advertised current level to milliamps.
func currentMilliamps(c typec.Current) int {
	switch c {
	case typec.CurrentDefault:
		return 500
	case typec.Current1A5:
		return 1500
	case typec.Current3A0:
		return 3000
	default:
		return 0
	}
}
