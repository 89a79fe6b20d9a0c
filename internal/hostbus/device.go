package hostbus

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/typec-core/internal/i2c"
)

// DeviceState describes where a device is in its bus lifecycle.
type DeviceState string

// Device lifecycle states.
const (
	// StateRegistered means the device is on the bus without a bound driver.
	StateRegistered DeviceState = "registered"

	// StateBound means a driver attach completed successfully.
	StateBound DeviceState = "bound"

	// StateAttachFailed means the last attach dispatch returned an error.
	StateAttachFailed DeviceState = "attach_failed"

	// StateRemoved means the device has been removed from the bus.
	StateRemoved DeviceState = "removed"
)

// DeviceDesc describes a device being added to the bus.
type DeviceDesc struct {
	// Name is the bus-unique device name (the configured port ID).
	Name string

	// Addr is the device's 7-bit bus address.
	Addr uint16

	// Compatible lists device-tree style identifiers for driver matching.
	Compatible []string

	// Adapter is the bus adapter the device hangs off.
	Adapter i2c.Adapter
}

// Device is one device instance on the bus.
type Device struct {
	name       string
	instanceID string
	addr       uint16
	compatible []string
	adapter    i2c.Adapter

	// dispatch serialises attach/detach dispatches for this device.
	dispatch sync.Mutex

	mu         sync.Mutex
	state      DeviceState
	driver     string
	lastErrno  int
	attachedAt time.Time
	driverData any
	devres     *Devres
}

// DeviceInfo is a point-in-time snapshot of a Device for callers outside
// the bus (API responses, notifications).
type DeviceInfo struct {
	Name       string      `json:"name"`
	InstanceID string      `json:"instance_id"`
	Addr       uint16      `json:"addr"`
	Compatible []string    `json:"compatible"`
	Adapter    string      `json:"adapter"`
	State      DeviceState `json:"state"`
	Driver     string      `json:"driver,omitempty"`
	LastErrno  int         `json:"last_errno,omitempty"`
	AttachedAt *time.Time  `json:"attached_at,omitempty"`
}

func newDevice(desc DeviceDesc) *Device {
	return &Device{
		name:       desc.Name,
		instanceID: "dev-" + uuid.NewString()[:8],
		addr:       desc.Addr,
		compatible: append([]string(nil), desc.Compatible...),
		adapter:    desc.Adapter,
		state:      StateRegistered,
		devres:     &Devres{},
	}
}

// Name returns the bus-unique device name.
func (d *Device) Name() string { return d.name }

// InstanceID returns the identifier minted when the device was added.
func (d *Device) InstanceID() string { return d.instanceID }

// Addr returns the device's bus address.
func (d *Device) Addr() uint16 { return d.addr }

// Adapter returns the bus adapter behind the device.
func (d *Device) Adapter() i2c.Adapter { return d.adapter }

// Compatible returns a copy of the device's compatible strings.
func (d *Device) Compatible() []string {
	return append([]string(nil), d.compatible...)
}

// MatchCompatible reports whether any of the device's compatible strings
// appears in table.
func (d *Device) MatchCompatible(table []string) bool {
	for _, want := range table {
		for _, have := range d.compatible {
			if want == have {
				return true
			}
		}
	}
	return false
}

// State returns the device's current lifecycle state.
func (d *Device) State() DeviceState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Driver returns the name of the bound driver, or "".
func (d *Device) Driver() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.driver
}

// SetDriverData associates driver-owned state with the device so later
// callbacks can retrieve it.
func (d *Device) SetDriverData(v any) {
	d.mu.Lock()
	d.driverData = v
	d.mu.Unlock()
}

// DriverData returns the driver-owned state associated with the device,
// or nil.
func (d *Device) DriverData() any {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.driverData
}

// ClearDriverData removes the driver association.
func (d *Device) ClearDriverData() {
	d.mu.Lock()
	d.driverData = nil
	d.mu.Unlock()
}

// Devres returns the device's current resource scope.
func (d *Device) Devres() *Devres {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.devres
}

// Info returns a snapshot of the device.
func (d *Device) Info() DeviceInfo {
	d.mu.Lock()
	defer d.mu.Unlock()

	info := DeviceInfo{
		Name:       d.name,
		InstanceID: d.instanceID,
		Addr:       d.addr,
		Compatible: append([]string(nil), d.compatible...),
		State:      d.state,
		Driver:     d.driver,
		LastErrno:  d.lastErrno,
	}
	if d.adapter != nil {
		info.Adapter = d.adapter.Name()
	}
	if !d.attachedAt.IsZero() {
		t := d.attachedAt
		info.AttachedAt = &t
	}
	return info
}

// setBound records a successful attach.
func (d *Device) setBound(driver string) {
	d.mu.Lock()
	d.state = StateBound
	d.driver = driver
	d.lastErrno = 0
	d.attachedAt = time.Now().UTC()
	d.mu.Unlock()
}

// setAttachFailed records a failed attach and opens a fresh devres scope
// for a later retry. The old scope is returned for the bus to release.
func (d *Device) setAttachFailed(errno int) *Devres {
	d.mu.Lock()
	d.state = StateAttachFailed
	d.driver = ""
	d.lastErrno = errno
	old := d.devres
	d.devres = &Devres{}
	d.mu.Unlock()
	return old
}

// setUnbound records a completed detach and opens a fresh devres scope.
// The old scope is returned for the bus to release.
func (d *Device) setUnbound() *Devres {
	d.mu.Lock()
	d.state = StateRegistered
	d.driver = ""
	d.attachedAt = time.Time{}
	old := d.devres
	d.devres = &Devres{}
	d.mu.Unlock()
	return old
}

// setRemoved marks the device as removed from the bus.
func (d *Device) setRemoved() {
	d.mu.Lock()
	d.state = StateRemoved
	d.mu.Unlock()
}
