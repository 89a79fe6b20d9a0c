package hostbus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/typec-core/internal/infrastructure/logging"
)

// Bus matches devices to drivers and dispatches their lifecycle callbacks.
type Bus struct {
	logger *logging.Logger

	mu        sync.RWMutex
	drivers   []Driver
	byName    map[string]Driver
	devices   map[string]*Device
	order     []string
	notifiers []Notifier
}

// New creates an empty bus.
func New(logger *logging.Logger) *Bus {
	return &Bus{
		logger:  logger.With("component", "hostbus"),
		byName:  make(map[string]Driver),
		devices: make(map[string]*Device),
	}
}

// RegisterDriver adds a driver to the bus. Drivers match devices in
// registration order.
func (b *Bus) RegisterDriver(d Driver) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.byName[d.Name()]; exists {
		return fmt.Errorf("%w: %s", ErrDriverRegistered, d.Name())
	}
	b.drivers = append(b.drivers, d)
	b.byName[d.Name()] = d

	b.logger.Info("driver registered",
		"driver", d.Name(),
		"compatible", d.Compatible(),
		"required_funcs", d.RequiredFuncs().String(),
	)
	return nil
}

// UnregisterDriver removes a driver from the bus. Devices it is bound to
// stay bound; only future matching is affected.
func (b *Bus) UnregisterDriver(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.byName[name]; !exists {
		return
	}
	delete(b.byName, name)
	for i, d := range b.drivers {
		if d.Name() == name {
			b.drivers = append(b.drivers[:i], b.drivers[i+1:]...)
			break
		}
	}
	b.logger.Info("driver unregistered", "driver", name)
}

// OnLifecycle registers a notifier for lifecycle transitions. Notifiers
// run synchronously on the dispatching goroutine.
func (b *Bus) OnLifecycle(fn Notifier) {
	if fn == nil {
		return
	}
	b.mu.Lock()
	b.notifiers = append(b.notifiers, fn)
	b.mu.Unlock()
}

// AddDevice registers a device on the bus without attaching it.
func (b *Bus) AddDevice(desc DeviceDesc) (*Device, error) {
	if desc.Name == "" {
		return nil, ErrNameRequired
	}
	if desc.Adapter == nil {
		return nil, fmt.Errorf("%w: %s", ErrAdapterRequired, desc.Name)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.devices[desc.Name]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDeviceRegistered, desc.Name)
	}
	dev := newDevice(desc)
	b.devices[desc.Name] = dev
	b.order = append(b.order, desc.Name)

	b.logger.Info("device added",
		"device", desc.Name,
		"addr", fmt.Sprintf("0x%02x", desc.Addr),
		"adapter", desc.Adapter.Name(),
		"compatible", desc.Compatible,
	)
	return dev, nil
}

// Get returns the named device.
func (b *Bus) Get(name string) (*Device, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	dev, ok := b.devices[name]
	return dev, ok
}

// Devices returns snapshots of all devices in insertion order.
func (b *Bus) Devices() []DeviceInfo {
	b.mu.RLock()
	defer b.mu.RUnlock()

	infos := make([]DeviceInfo, 0, len(b.order))
	for _, name := range b.order {
		if dev, ok := b.devices[name]; ok {
			infos = append(infos, dev.Info())
		}
	}
	return infos
}

// Attach dispatches an attach for the named device and returns the host
// boundary code: 0 on success, a negative errno otherwise.
func (b *Bus) Attach(ctx context.Context, name string) int {
	dev, ok := b.Get(name)
	if !ok {
		return errnoNoDevice
	}

	dev.dispatch.Lock()
	defer dev.dispatch.Unlock()

	if dev.State() == StateBound {
		b.logger.Warn("attach ignored, device already bound", "device", name, "driver", dev.Driver())
		return errnoBusy
	}

	drv := b.matchDriver(dev)
	if drv == nil {
		b.logger.Warn("no driver matches device", "device", name, "compatible", dev.Compatible())
		return errnoNoDevice
	}

	start := time.Now()
	err := drv.Attach(ctx, dev)
	duration := time.Since(start)

	if err != nil {
		errno := ErrnoOf(err)
		old := dev.setAttachFailed(errno)
		old.Release()

		b.logger.Error("attach failed",
			"device", name,
			"driver", drv.Name(),
			"errno", errno,
			"duration_ms", duration.Milliseconds(),
			"error", err,
		)
		b.notify(Notification{
			Action:   ActionAttachFailed,
			Device:   dev.Info(),
			Driver:   drv.Name(),
			Errno:    errno,
			Err:      err.Error(),
			Duration: duration,
		})
		return errno
	}

	dev.setBound(drv.Name())
	b.logger.Info("device bound",
		"device", name,
		"driver", drv.Name(),
		"duration_ms", duration.Milliseconds(),
	)
	b.notify(Notification{
		Action:   ActionAttached,
		Device:   dev.Info(),
		Driver:   drv.Name(),
		Duration: duration,
	})
	return 0
}

// Detach dispatches a detach for the named device. Per the host boundary
// convention it reports 0 regardless of what the driver's teardown does;
// only an unknown device name yields -ENODEV.
func (b *Bus) Detach(ctx context.Context, name string) int {
	dev, ok := b.Get(name)
	if !ok {
		return errnoNoDevice
	}

	dev.dispatch.Lock()
	defer dev.dispatch.Unlock()

	if dev.State() != StateBound {
		return 0
	}

	driverName := dev.Driver()
	b.mu.RLock()
	drv := b.byName[driverName]
	b.mu.RUnlock()

	start := time.Now()
	if drv != nil {
		if err := drv.Detach(ctx, dev); err != nil {
			b.logger.Warn("detach reported error", "device", name, "driver", driverName, "error", err)
		}
	}
	duration := time.Since(start)

	// The device handle is released from the driver's perspective, so the
	// device-scoped resources go with it.
	old := dev.setUnbound()
	old.Release()

	b.logger.Info("device unbound", "device", name, "driver", driverName)
	b.notify(Notification{
		Action:   ActionDetached,
		Device:   dev.Info(),
		Driver:   driverName,
		Duration: duration,
	})
	return 0
}

// RemoveDevice detaches the named device if bound and removes it from the
// bus.
func (b *Bus) RemoveDevice(ctx context.Context, name string) error {
	dev, ok := b.Get(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, name)
	}

	b.Detach(ctx, name)

	b.mu.Lock()
	delete(b.devices, name)
	for i, n := range b.order {
		if n == name {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	b.mu.Unlock()

	dev.setRemoved()
	b.logger.Info("device removed", "device", name)
	b.notify(Notification{Action: ActionRemoved, Device: dev.Info()})
	return nil
}

// Close removes all devices in reverse insertion order, detaching bound
// ones.
func (b *Bus) Close(ctx context.Context) {
	b.mu.RLock()
	names := append([]string(nil), b.order...)
	b.mu.RUnlock()

	for i := len(names) - 1; i >= 0; i-- {
		if err := b.RemoveDevice(ctx, names[i]); err != nil {
			b.logger.Warn("removing device during close", "device", names[i], "error", err)
		}
	}
}

// matchDriver returns the first registered driver whose compatible table
// matches the device.
func (b *Bus) matchDriver(dev *Device) Driver {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, d := range b.drivers {
		if dev.MatchCompatible(d.Compatible()) {
			return d
		}
	}
	return nil
}

// notify fans a notification out to registered notifiers.
func (b *Bus) notify(n Notification) {
	b.mu.RLock()
	notifiers := append([]Notifier(nil), b.notifiers...)
	b.mu.RUnlock()

	for _, fn := range notifiers {
		fn(n)
	}
}
