// Package telemetry feeds port state samples and lifecycle latency into
// InfluxDB.
//
// Sampler adapts the protocol engine's update stream and the host bus's
// lifecycle notifications to the InfluxDB writer. Unlike the journal it
// keeps the periodic ticks: they give the port_state series its regular
// cadence, with hardware events adding the edges in between. Writes are
// fire-and-forget; the InfluxDB client batches them and surfaces errors
// through its own callback.
package telemetry
