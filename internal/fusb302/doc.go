// Package fusb302 implements the host-bus driver for FUSB302-family USB
// Type-C port controllers.
//
// The Controller owns the attach and detach lifecycle. Attach runs fifteen
// ordered steps, each a hard gate: device and compatibility checks, adapter
// capability check, context allocation, registry publication, lock and
// state initialization, identity probe, pin configuration, then worker,
// timer, diagnostics and protocol-core bring-up. A failing step unwinds
// the completed steps in reverse order before the error is returned.
//
// Detach is deliberately narrower than attach. It stops the timer, stops
// and joins the workers and releases the pins; each step is best-effort
// and failures are only logged. The diagnostics provider stays registered,
// the protocol core keeps its port enabled and the ActiveRegistry keeps
// its entry. Once the bus releases the device scope those leftovers go
// stale rather than away.
//
// The pieces the controller orchestrates are collaborator interfaces
// (Allocator, Prober, Pins, Workers, Timer, Diagnostics, Core), so tests
// can observe call order and inject failures. The package ships a default
// implementation for each.
//
// # Thread Safety
//
// The bus serialises attach and detach per device. After attach, workers,
// timer and protocol core run concurrently; shared chip state is guarded
// by the chip lock, which the controller creates before any of them start.
package fusb302
