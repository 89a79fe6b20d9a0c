package fusb302

import (
	"context"

	"github.com/nerrad567/typec-core/internal/hostbus"
)

// The controller drives its subsystems through these interfaces so tests
// can observe call order and inject failures. The package provides a
// default implementation of each.

// Allocator creates the per-device chip context.
type Allocator interface {
	// Allocate returns a zero-valued chip scoped to the device handle.
	Allocate(dev *hostbus.Device) (*Chip, error)
}

// Prober confirms the hardware is present and a supported revision.
type Prober interface {
	Probe(ctx context.Context, chip *Chip) error
}

// Pins configures and releases the chip's GPIO lines.
type Pins interface {
	// Configure claims and programs the lines. Errors propagate to the
	// caller unchanged.
	Configure(chip *Chip) error

	// Release returns the lines to a safe state.
	Release(chip *Chip) error
}

// Workers owns the interrupt and state workers.
type Workers interface {
	// Setup prepares the workers without starting them.
	Setup(chip *Chip)

	// Start runs the prepared workers and queues the first work item.
	Start(chip *Chip)

	// Stop halts the workers and joins them. Safe to call when the
	// workers were never set up or started.
	Stop(ctx context.Context, chip *Chip) error
}

// Timer owns the periodic tick source.
type Timer interface {
	// Start begins ticking.
	Start(chip *Chip)

	// Stop halts the tick source and joins it. Safe to call when the
	// timer was never started.
	Stop(ctx context.Context, chip *Chip) error
}

// Diagnostics exposes the chip's attribute provider.
type Diagnostics interface {
	// Expose registers the provider. A name collision is handled
	// internally and is not fatal.
	Expose(chip *Chip)

	// Withdraw removes the provider. Only attach rollback calls this;
	// detach leaves the provider in place.
	Withdraw(chip *Chip)
}

// Core owns the protocol state machine.
type Core interface {
	// InitState default-initializes the chip's protocol state blob.
	InitState(chip *Chip)

	// Start brings up the hardware-facing port and enables the state
	// machine. Detach does not undo this; the core outlives the driver
	// binding.
	Start(chip *Chip)
}
