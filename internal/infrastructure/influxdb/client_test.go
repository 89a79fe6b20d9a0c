package influxdb

import (
	"errors"
	"testing"

	"github.com/nerrad567/typec-core/internal/infrastructure/config"
)

// testConfig returns a configuration for the local dev InfluxDB.
func testConfig() config.InfluxDBConfig {
	return config.InfluxDBConfig{
		Enabled:       true,
		URL:           "http://127.0.0.1:8086",
		Token:         "typecd-dev-token",
		Org:           "typecd",
		Bucket:        "telemetry",
		BatchSize:     100,
		FlushInterval: 1, // 1 second for faster test feedback
	}
}

// =============================================================================
// Connection Tests
// =============================================================================

func TestConnectDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false

	_, err := Connect(cfg)
	if err == nil {
		t.Fatal("Connect() expected error when disabled")
	}
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnectUnreachableServer(t *testing.T) {
	cfg := testConfig()
	cfg.URL = "http://127.0.0.1:59999" // nothing listens here

	_, err := Connect(cfg)
	if err == nil {
		t.Fatal("Connect() expected error for unreachable server")
	}
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

// =============================================================================
// Zero-Value Safety Tests
// =============================================================================

func TestCloseZeroValue(t *testing.T) {
	var c Client
	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestFlushZeroValue(t *testing.T) {
	var c Client
	c.Flush() // must not panic
}

func TestWritesDroppedWhenDisconnected(t *testing.T) {
	// Writes on a disconnected client are dropped, not queued.
	var c Client
	c.WritePortSample("port0", PortSample{Connection: "attached"})
	c.WriteAttachLatency("port0", AttachSample{Action: "attached"})
	c.WritePoint("custom", nil, map[string]interface{}{"value": 1.0})

	if c.IsConnected() {
		t.Error("IsConnected() = true for zero-value client")
	}
}
