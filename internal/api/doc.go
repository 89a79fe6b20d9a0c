// Package api implements the HTTP REST API and WebSocket server for typecd.
//
// This package provides:
//   - REST endpoints for port inventory, attach/detach control, the
//     lifecycle journal and diagnostic attributes
//   - WebSocket hub for real-time port state and lifecycle broadcasts
//   - JWT bearer authentication on the mutating routes
//   - Middleware stack (request ID, logging, recovery, CORS)
//   - TLS support for production deployments
//
// # Architecture
//
// The API server sits between operators (CLI tooling, dashboards) and the
// host bus + port engine. Attach and detach requests dispatch synchronously
// through the bus and report the host-boundary errno in the response. State
// reads come straight from the engine; the journal and history endpoints
// query SQLite through the journal repository.
//
// The WebSocket hub doubles as an engine sink: every applied port event is
// broadcast to clients subscribed to the port.state channel, and bus
// lifecycle transitions reach the port.lifecycle channel via Hub.Lifecycle.
//
// # Security
//
// Read endpoints are open; attach and detach require a bearer token issued
// by POST /api/v1/auth/token in exchange for the configured admin key. The
// WebSocket stream carries the same data as the read endpoints and needs no
// token.
//
// # Graceful Degradation
//
// The status endpoint reports MQTT and InfluxDB connectivity when those
// clients are wired in and simply omits live checks when they are not.
package api
