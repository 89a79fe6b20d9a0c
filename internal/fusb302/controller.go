package fusb302

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/typec-core/internal/hostbus"
)

// Logger defines the logging interface used by the controller and the
// default collaborators.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Deps holds the controller's collaborators. The collaborator fields are
// required; Registry defaults to a fresh registry and Logger to no
// logging.
type Deps struct {
	Registry    *ActiveRegistry
	Allocator   Allocator
	Prober      Prober
	Pins        Pins
	Workers     Workers
	Timer       Timer
	Diagnostics Diagnostics
	Core        Core
	Logger      Logger
}

// Controller drives the attach and detach lifecycle for FUSB302 chips.
// One controller serves the driver registration; per-device state lives
// on the Chip.
type Controller struct {
	logger   Logger
	registry *ActiveRegistry
	alloc    Allocator
	prober   Prober
	pins     Pins
	workers  Workers
	timer    Timer
	diag     Diagnostics
	core     Core
}

// NewController creates a controller from its collaborators.
func NewController(deps Deps) (*Controller, error) {
	if deps.Allocator == nil {
		return nil, fmt.Errorf("allocator is required")
	}
	if deps.Prober == nil {
		return nil, fmt.Errorf("prober is required")
	}
	if deps.Pins == nil {
		return nil, fmt.Errorf("pins are required")
	}
	if deps.Workers == nil {
		return nil, fmt.Errorf("workers are required")
	}
	if deps.Timer == nil {
		return nil, fmt.Errorf("timer is required")
	}
	if deps.Diagnostics == nil {
		return nil, fmt.Errorf("diagnostics are required")
	}
	if deps.Core == nil {
		return nil, fmt.Errorf("core is required")
	}

	logger := deps.Logger
	if logger == nil {
		logger = noopLogger{}
	}
	registry := deps.Registry
	if registry == nil {
		registry = NewActiveRegistry()
	}

	return &Controller{
		logger:   logger,
		registry: registry,
		alloc:    deps.Allocator,
		prober:   deps.Prober,
		pins:     deps.Pins,
		workers:  deps.Workers,
		timer:    deps.Timer,
		diag:     deps.Diagnostics,
		core:     deps.Core,
	}, nil
}

// Registry returns the controller's active-chip registry.
func (c *Controller) Registry() *ActiveRegistry { return c.registry }

// attachStep is one reversible unit of the attach sequence. A nil undo
// means the step leaves nothing to unwind.
type attachStep struct {
	name string
	run  func() error
	undo func()
}

// Attach brings up the chip on the given device. The steps run strictly
// in order and every one is a hard gate: on failure the completed steps
// are undone in reverse order and the error is returned.
func (c *Controller) Attach(ctx context.Context, dev *hostbus.Device) (*Chip, error) {
	start := time.Now()
	var chip *Chip

	steps := []attachStep{
		{
			name: "device check",
			run: func() error {
				if dev == nil {
					return ErrNilDevice
				}
				return nil
			},
		},
		{
			name: "compatibility check",
			run: func() error {
				if !dev.MatchCompatible(Compatible) {
					return fmt.Errorf("%w: device %q offers %v", ErrNotCompatible, dev.Name(), dev.Compatible())
				}
				return nil
			},
		},
		{
			name: "functionality check",
			run: func() error {
				funcs := dev.Adapter().Functionality()
				if missing := RequiredFuncs.Missing(funcs); missing != 0 {
					c.logger.Error("adapter functionality unsupported",
						"device", dev.Name(),
						"required", RequiredFuncs.String(),
						"supported", funcs.String(),
					)
					return fmt.Errorf("%w: missing %s", ErrAdapterFuncs, missing)
				}
				return nil
			},
		},
		{
			name: "context allocation",
			run: func() error {
				allocated, err := c.alloc.Allocate(dev)
				if err != nil {
					return fmt.Errorf("%w: %v", ErrNoMemory, err)
				}
				if allocated == nil {
					return ErrNoMemory
				}
				chip = allocated
				chip.dev = dev
				return nil
			},
		},
		{
			name: "registry publish",
			run: func() error {
				return c.registry.Publish(chip)
			},
			undo: func() {
				c.registry.Withdraw(chip)
			},
		},
		{
			name: "sync initialization",
			run: func() error {
				chip.initSync()
				return nil
			},
		},
		{
			name: "state initialization",
			run: func() error {
				c.core.InitState(chip)
				return nil
			},
		},
		{
			name: "driver data association",
			run: func() error {
				dev.SetDriverData(chip)
				return nil
			},
			undo: func() {
				dev.ClearDriverData()
			},
		},
		{
			name: "identity probe",
			run: func() error {
				return c.prober.Probe(ctx, chip)
			},
		},
		{
			name: "pin configuration",
			run: func() error {
				return c.pins.Configure(chip)
			},
			undo: func() {
				if err := c.pins.Release(chip); err != nil {
					c.logger.Warn("releasing pins during rollback", "device", dev.Name(), "error", err)
				}
			},
		},
		{
			name: "worker setup",
			run: func() error {
				c.workers.Setup(chip)
				return nil
			},
			undo: func() {
				if err := c.workers.Stop(ctx, chip); err != nil {
					c.logger.Warn("stopping workers during rollback", "device", dev.Name(), "error", err)
				}
			},
		},
		{
			name: "timer start",
			run: func() error {
				c.timer.Start(chip)
				return nil
			},
			undo: func() {
				if err := c.timer.Stop(ctx, chip); err != nil {
					c.logger.Warn("stopping timer during rollback", "device", dev.Name(), "error", err)
				}
			},
		},
		{
			name: "diagnostics exposure",
			run: func() error {
				c.diag.Expose(chip)
				return nil
			},
			undo: func() {
				c.diag.Withdraw(chip)
			},
		},
		{
			name: "core start",
			run: func() error {
				c.core.Start(chip)
				return nil
			},
		},
		{
			name: "worker activation",
			run: func() error {
				c.workers.Start(chip)
				return nil
			},
		},
	}

	for i, step := range steps {
		if err := step.run(); err != nil {
			c.logger.Error("attach step failed",
				"step", step.name,
				"device", deviceName(dev),
				"error", err,
			)
			c.rollback(steps[:i], dev)
			return nil, err
		}
		c.logger.Debug("attach step complete", "step", step.name, "device", dev.Name())
	}

	c.logger.Info("chip attached",
		"device", dev.Name(),
		"chip", chip.id,
		"version", versionString(chip.deviceID),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return chip, nil
}

// Detach tears down the driver binding. It never reports failure: every
// step is attempted regardless of earlier errors, which are only logged.
//
// Teardown is narrower than bring-up. The timer is stopped, the workers
// are stopped and joined, and the pins are released. The diagnostics
// provider, the protocol core and the registry entry are left in place;
// they go stale once the bus releases the device scope.
func (c *Controller) Detach(ctx context.Context, dev *hostbus.Device) error {
	if dev == nil {
		c.logger.Warn("detach called without device")
		return nil
	}

	chip, ok := dev.DriverData().(*Chip)
	if !ok || chip == nil {
		c.logger.Warn("detach without chip context", "device", dev.Name())
		return nil
	}

	if err := c.timer.Stop(ctx, chip); err != nil {
		c.logger.Warn("stopping timer", "device", dev.Name(), "error", err)
	}
	if err := c.workers.Stop(ctx, chip); err != nil {
		c.logger.Warn("stopping workers", "device", dev.Name(), "error", err)
	}
	if err := c.pins.Release(chip); err != nil {
		c.logger.Warn("releasing pins", "device", dev.Name(), "error", err)
	}

	c.logger.Info("chip detached", "device", dev.Name(), "chip", chip.id)
	return nil
}

// rollback unwinds the completed steps in reverse order.
func (c *Controller) rollback(completed []attachStep, dev *hostbus.Device) {
	for i := len(completed) - 1; i >= 0; i-- {
		if completed[i].undo == nil {
			continue
		}
		c.logger.Debug("rolling back step", "step", completed[i].name, "device", deviceName(dev))
		completed[i].undo()
	}
}

func deviceName(dev *hostbus.Device) string {
	if dev == nil {
		return "<nil>"
	}
	return dev.Name()
}
