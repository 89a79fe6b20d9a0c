// Package bridge connects the typecd daemon to MQTT.
//
// It publishes port state, events and lifecycle transitions to the typecd
// topic tree and executes attach/detach commands received over it, so wall
// panels and automation can follow and drive ports without touching the
// REST API.
//
// # Architecture
//
// The bridge sits between the daemon's internals and the broker:
//
//	┌──────────────┐          ┌──────────────┐   MQTT
//	│   hostbus /  │ ◄──────► │    Bridge    │ ◄──────► dashboards,
//	│ typec engine │          │  (this pkg)  │          automation
//	└──────────────┘          └──────────────┘
//
// # Key Responsibilities
//
//   - Publish retained port state to typecd/port/{port}/state
//   - Publish port events to typecd/port/{port}/event
//   - Publish lifecycle transitions to typecd/port/{port}/lifecycle
//   - Execute attach/detach commands from typecd/port/{port}/command
//   - Acknowledge commands on typecd/port/{port}/ack
//   - Report service health on typecd/system/health
//
// The bridge is wired as a typec.Sink for state and events, and as a
// hostbus.Notifier for lifecycle transitions. Commands run against the
// bus through the PortController interface and report the host-boundary
// errno in their acknowledgment.
//
// # Thread Safety
//
// All exported types are safe for concurrent use from multiple goroutines.
package bridge
