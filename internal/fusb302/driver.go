package fusb302

import (
	"context"

	"github.com/nerrad567/typec-core/internal/hostbus"
	"github.com/nerrad567/typec-core/internal/i2c"
)

// Driver binds the controller to the host bus. The bus owns when attach
// and detach happen; the driver never initiates its own lifecycle.
type Driver struct {
	controller *Controller
}

// NewDriver wraps a controller for bus registration.
func NewDriver(controller *Controller) *Driver {
	return &Driver{controller: controller}
}

// Name implements hostbus.Driver.
func (d *Driver) Name() string { return DriverName }

// Compatible implements hostbus.Driver.
func (d *Driver) Compatible() []string {
	return append([]string(nil), Compatible...)
}

// RequiredFuncs implements hostbus.Driver.
func (d *Driver) RequiredFuncs() i2c.Funcs { return RequiredFuncs }

// Attach implements hostbus.Driver.
func (d *Driver) Attach(ctx context.Context, dev *hostbus.Device) error {
	_, err := d.controller.Attach(ctx, dev)
	return err
}

// Detach implements hostbus.Driver.
func (d *Driver) Detach(ctx context.Context, dev *hostbus.Device) error {
	return d.controller.Detach(ctx, dev)
}
