package fusb302

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/nerrad567/typec-core/internal/hostbus"
	"github.com/nerrad567/typec-core/internal/typec"
)

// Chip is the per-device context. It is created during attach, scoped to
// the device handle, and populated incrementally by the attach steps.
//
// The lock and wake channel do not exist until the sync-initialization
// step has run; the controller guarantees that happens before workers or
// timer can observe the chip.
type Chip struct {
	id  string
	dev *hostbus.Device

	mu   *sync.Mutex
	wake chan struct{}

	// state is the protocol-core blob, owned by the Core collaborator.
	state *typec.PortState

	deviceID byte

	// Worker run state, owned by the Workers collaborator.
	work          chan struct{}
	workersDone   chan struct{}
	workersWg     sync.WaitGroup
	workersOnce   sync.Once
	workersActive atomic.Bool

	// Timer run state, owned by the Timer collaborator.
	timerDone   chan struct{}
	timerWg     sync.WaitGroup
	timerOnce   sync.Once
	timerActive atomic.Bool

	coreStarted atomic.Bool
	released    atomic.Bool

	diagName string
}

func newChip() *Chip {
	return &Chip{id: "chip-" + uuid.NewString()[:8]}
}

// ID returns the chip's instance identifier.
func (c *Chip) ID() string { return c.id }

// Device returns the bus device handle the chip is bound to.
func (c *Chip) Device() *hostbus.Device { return c.dev }

// PortState returns the protocol-core state blob. Nil until the core
// collaborator has initialized it.
func (c *Chip) PortState() *typec.PortState { return c.state }

// DeviceID returns the raw identity register value read by the probe.
func (c *Chip) DeviceID() byte { return c.deviceID }

// initSync creates the chip lock and wake channel. Runs exactly once,
// before any background activity can touch the chip.
func (c *Chip) initSync() {
	c.mu = &sync.Mutex{}
	c.wake = make(chan struct{}, 1)
}

// LockReady reports whether the chip lock exists yet.
func (c *Chip) LockReady() bool { return c.mu != nil }

// Lock acquires the chip lock.
func (c *Chip) Lock() { c.mu.Lock() }

// Unlock releases the chip lock.
func (c *Chip) Unlock() { c.mu.Unlock() }

// Wake signals the protocol core. The channel holds one pending wake;
// further signals coalesce.
func (c *Chip) Wake() {
	if c.wake == nil {
		return
	}
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// WakeChan returns the wake channel the protocol core consumes.
func (c *Chip) WakeChan() <-chan struct{} { return c.wake }

// queueWork hands the state worker a service item. Items coalesce the
// same way wakes do.
func (c *Chip) queueWork() {
	if c.work == nil {
		return
	}
	select {
	case c.work <- struct{}{}:
	default:
	}
}

// WorkersActive reports whether the workers are running.
func (c *Chip) WorkersActive() bool { return c.workersActive.Load() }

// TimerActive reports whether the tick timer is running.
func (c *Chip) TimerActive() bool { return c.timerActive.Load() }

// CoreStarted reports whether the protocol core was started.
func (c *Chip) CoreStarted() bool { return c.coreStarted.Load() }

// Released reports whether the device scope holding the chip has been
// released. A released chip may still be visible through the registry;
// it is stale, not reusable.
func (c *Chip) Released() bool { return c.released.Load() }

// Attributes implements diag.Provider.
func (c *Chip) Attributes() map[string]any {
	attrs := map[string]any{
		"chip_id":        c.id,
		"device_id":      fmt.Sprintf("%#02x", c.deviceID),
		"version":        versionString(c.deviceID),
		"workers_active": c.WorkersActive(),
		"timer_active":   c.TimerActive(),
		"core_started":   c.CoreStarted(),
		"released":       c.Released(),
	}
	if c.dev != nil {
		attrs["device"] = c.dev.Name()
		attrs["address"] = fmt.Sprintf("%#02x", c.dev.Addr())
	}
	if c.state != nil {
		attrs["state"] = c.state.Snapshot()
	}
	return attrs
}
