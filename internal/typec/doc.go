// Package typec holds the protocol-core skeleton for USB Type-C ports.
//
// The package is hardware-agnostic. A port-controller driver implements the
// Port interface (register access stays on the driver side) and hands the
// engine a wake channel; the engine services wakes by asking the port for
// pending events and folding them into the port's state.
//
// # Event Priority
//
// Event is a bitmask. Several events can be pending at once; Pop drains
// them highest priority first, so a detach observed in the same batch as a
// stale attach wins.
//
// # Lifecycle
//
// The engine is created once at daemon startup and runs until Close. Ports
// are enabled by their driver during device attach. Driver detach does not
// disable a port: its workers stop feeding the wake channel, so the port
// loop goes quiet with its state intact.
//
// # Usage
//
//	engine := typec.NewEngine()
//	engine.SetLogger(log)
//	engine.AddSink(hub)
//
//	state := typec.NewPortState()
//	if err := engine.Enable("port0", port, wake, state); err != nil {
//	    return err
//	}
//
//	defer engine.Close()
package typec
