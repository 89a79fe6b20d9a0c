// Package influxdb provides InfluxDB connectivity for typecd telemetry.
//
// It wraps the official influxdb-client-go v2 library with connection
// management, non-blocking batched writes, and health monitoring.
//
// # Purpose
//
// This package handles time-series storage for:
//   - Port state samples (connection, orientation, advertised current, VBUS)
//   - Attach/detach latency per lifecycle operation
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.WritePortSample("port0", influxdb.PortSample{
//	    Connection: "attached",
//	    CurrentMA:  1500,
//	    VBus:       true,
//	})
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking; batch errors surface through the
// SetOnError callback. Connection and health check errors are returned
// directly.
package influxdb
