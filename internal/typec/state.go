package typec

import (
	"sync"
	"time"
)

// ConnState describes the connection layer of a port.
type ConnState string

const (
	// ConnUnattached means no port partner is present.
	ConnUnattached ConnState = "unattached"

	// ConnAttached means a port partner is present on CC.
	ConnAttached ConnState = "attached"
)

// Orientation identifies which CC pin carries the connection.
type Orientation string

const (
	OrientationNone Orientation = "none"
	OrientationCC1  Orientation = "cc1"
	OrientationCC2  Orientation = "cc2"
)

// Role is the power role of the port. Sink is the only role the engine
// drives today; the field exists so snapshots carry it.
type Role string

const (
	RoleSink   Role = "sink"
	RoleSource Role = "source"
)

// Current is the host current advertised by the source.
type Current string

const (
	CurrentNone    Current = "none"
	CurrentDefault Current = "500ma"
	Current1A5     Current = "1500ma"
	Current3A0     Current = "3000ma"
)

// PortState is the mutable protocol state of one port. The driver allocates
// it during attach; the engine is the only writer afterwards. All methods
// are safe for concurrent use.
type PortState struct {
	mu          sync.Mutex
	conn        ConnState
	orientation Orientation
	role        Role
	current     Current
	vbus        bool
	events      uint64
	lastEvent   Event
	attachedAt  time.Time
	updatedAt   time.Time
}

// Snapshot is a point-in-time copy of a port's state, safe to hand to
// sinks and API responses.
type Snapshot struct {
	Connection  ConnState   `json:"connection"`
	Orientation Orientation `json:"orientation"`
	Role        Role        `json:"role"`
	Current     Current     `json:"current"`
	VBus        bool        `json:"vbus"`
	Events      uint64      `json:"events"`
	LastEvent   string      `json:"last_event,omitempty"`
	AttachedAt  *time.Time  `json:"attached_at,omitempty"`
	UpdatedAt   *time.Time  `json:"updated_at,omitempty"`
}

// NewPortState returns a port state in its default configuration.
func NewPortState() *PortState {
	s := &PortState{}
	s.Reset()
	return s
}

// Reset returns the state to its defaults: unattached, sink role, no
// advertised current. Counters are cleared.
func (s *PortState) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn = ConnUnattached
	s.orientation = OrientationNone
	s.role = RoleSink
	s.current = CurrentNone
	s.vbus = false
	s.events = 0
	s.lastEvent = EventNone
	s.attachedAt = time.Time{}
	s.updatedAt = time.Time{}
}

// SetOrientation records the CC orientation measured by the hardware.
func (s *PortState) SetOrientation(o Orientation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orientation = o
}

// Apply folds a single event into the state and returns the resulting
// snapshot.
func (s *PortState) Apply(ev Event, now time.Time) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events++
	s.lastEvent = ev
	s.updatedAt = now

	switch ev {
	case EventHardReset:
		// Connection survives a hard reset; the advertised contract does not.
		s.current = CurrentNone
	case EventDetached:
		s.conn = ConnUnattached
		s.orientation = OrientationNone
		s.current = CurrentNone
		s.attachedAt = time.Time{}
	case EventAttached:
		s.conn = ConnAttached
		s.attachedAt = now
	case EventVBusOff:
		s.vbus = false
	case EventVBusOn:
		s.vbus = true
	case EventCurrent500:
		s.current = CurrentDefault
	case EventCurrent1500:
		s.current = Current1A5
	case EventCurrent3000:
		s.current = Current3A0
	case EventActivity, EventTick:
		// Counter and timestamp only.
	}

	return s.snapshotLocked()
}

// Snapshot returns a copy of the current state.
func (s *PortState) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *PortState) snapshotLocked() Snapshot {
	snap := Snapshot{
		Connection:  s.conn,
		Orientation: s.orientation,
		Role:        s.role,
		Current:     s.current,
		VBus:        s.vbus,
		Events:      s.events,
	}
	if s.lastEvent != EventNone {
		snap.LastEvent = s.lastEvent.String()
	}
	if !s.attachedAt.IsZero() {
		t := s.attachedAt
		snap.AttachedAt = &t
	}
	if !s.updatedAt.IsZero() {
		t := s.updatedAt
		snap.UpdatedAt = &t
	}
	return snap
}
