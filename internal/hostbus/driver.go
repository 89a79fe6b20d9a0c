package hostbus

import (
	"context"
	"time"

	"github.com/nerrad567/typec-core/internal/i2c"
)

// Driver is the contract a device driver presents to the bus.
//
// The bus calls Attach once per dispatch when a matching device should be
// brought up, and Detach when it is being taken down. Drivers never
// initiate their own lifecycle; they only react to these callbacks.
type Driver interface {
	// Name is the bus-unique driver name.
	Name() string

	// Compatible is the device-tree style compatible table this driver
	// matches against.
	Compatible() []string

	// RequiredFuncs is the adapter functionality the driver declares it
	// needs. Surfaced for diagnostics; the driver enforces it during
	// Attach.
	RequiredFuncs() i2c.Funcs

	// Attach brings the device up. A nil return binds the driver to the
	// device; an error leaves the device unbound and is converted to a
	// negative errno at the bus boundary.
	Attach(ctx context.Context, dev *Device) error

	// Detach tears the device down. Errors are logged by the bus and
	// otherwise ignored; detach always reports success at the boundary.
	Detach(ctx context.Context, dev *Device) error
}

// LifecycleAction identifies what a lifecycle notification reports.
type LifecycleAction string

// Lifecycle notification actions.
const (
	ActionAttached     LifecycleAction = "attached"
	ActionAttachFailed LifecycleAction = "attach_failed"
	ActionDetached     LifecycleAction = "detached"
	ActionRemoved      LifecycleAction = "removed"
)

// Notification reports one lifecycle transition on the bus.
type Notification struct {
	Action   LifecycleAction
	Device   DeviceInfo
	Driver   string
	Errno    int
	Err      string
	Duration time.Duration
}

// Notifier receives lifecycle notifications. Notifiers run synchronously
// on the dispatching goroutine and must not call back into the bus.
type Notifier func(Notification)
