package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names written by typecd.
const (
	measurementPortState     = "port_state"
	measurementAttachLatency = "attach_latency"
)

// PortSample is one point of port state telemetry.
//
// Samples arrive on every engine update: periodic ticks give the series its
// regular cadence, hardware events add the edges in between.
type PortSample struct {
	Connection  string
	Orientation string
	Role        string
	CurrentMA   int
	VBus        bool
	Events      uint64
	Time        time.Time
}

// AttachSample is one timed lifecycle operation: an attach, a failed
// attach, or a detach.
type AttachSample struct {
	Driver   string
	Action   string
	Errno    int
	Duration time.Duration
	Time     time.Time
}

// WritePortSample records a port state sample.
//
// The write is non-blocking; data is batched and sent asynchronously.
//
// Example:
//
//	client.WritePortSample("port0", influxdb.PortSample{
//	    Connection: "attached",
//	    CurrentMA:  1500,
//	    VBus:       true,
//	})
func (c *Client) WritePortSample(port string, s PortSample) {
	if !c.IsConnected() {
		return
	}

	c.writeAPI.WritePoint(portSamplePoint(port, s))
}

// WriteAttachLatency records how long a lifecycle operation took and how it
// ended. Errno zero marks success.
func (c *Client) WriteAttachLatency(port string, s AttachSample) {
	if !c.IsConnected() {
		return
	}

	c.writeAPI.WritePoint(attachLatencyPoint(port, s))
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, time.Now()))
}

// portSamplePoint builds the port_state point for one sample.
func portSamplePoint(port string, s PortSample) *write.Point {
	ts := s.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	return write.NewPoint(
		measurementPortState,
		map[string]string{
			"port": port,
		},
		map[string]interface{}{
			"connection":  s.Connection,
			"orientation": s.Orientation,
			"role":        s.Role,
			"current_ma":  s.CurrentMA,
			"vbus":        s.VBus,
			"events":      int64(s.Events),
		},
		ts,
	)
}

// attachLatencyPoint builds the attach_latency point for one operation.
func attachLatencyPoint(port string, s AttachSample) *write.Point {
	ts := s.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	tags := map[string]string{
		"port":   port,
		"action": s.Action,
	}
	if s.Driver != "" {
		tags["driver"] = s.Driver
	}

	return write.NewPoint(
		measurementAttachLatency,
		tags,
		map[string]interface{}{
			"duration_ms": float64(s.Duration) / float64(time.Millisecond),
			"errno":       s.Errno,
			"success":     s.Errno == 0,
		},
		ts,
	)
}
