package config

import (
	"os"
	"path/filepath"
	"testing"
)

// validJWTSecret meets the 32-character minimum requirement.
const validJWTSecret = "test-secret-key-at-least-32-chars!"

func TestLoad_ValidConfig(t *testing.T) {
	content := `
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
mqtt:
  enabled: true
  broker:
    host: "localhost"
    port: 1883
    client_id: "test-client"
  qos: 1
api:
  enabled: true
  host: "0.0.0.0"
  port: 8080
security:
  jwt:
    secret: "test-secret-key-at-least-32-chars!"
ports:
  - id: "port0"
    bus: "/dev/i2c-3"
    address: 0x22
    compatible: ["fcs,fusb302"]
    pins:
      vbus_gpio: 17
      int_gpio: 27
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}

	if cfg.MQTT.Broker.Host != "localhost" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "localhost")
	}

	if len(cfg.Ports) != 1 {
		t.Fatalf("len(Ports) = %d, want 1", len(cfg.Ports))
	}
	if cfg.Ports[0].Address != 0x22 {
		t.Errorf("Ports[0].Address = 0x%02x, want 0x22", cfg.Ports[0].Address)
	}
	if cfg.Ports[0].Pins.VBusGPIO != 17 {
		t.Errorf("Ports[0].Pins.VBusGPIO = %d, want 17", cfg.Ports[0].Pins.VBusGPIO)
	}

	// Defaults survive a partial file.
	if !cfg.Bus.AttachOnStart {
		t.Error("Bus.AttachOnStart default = false, want true")
	}
	if cfg.GPIO.SysfsPath != "/sys/class/gpio" {
		t.Errorf("GPIO.SysfsPath = %q, want default", cfg.GPIO.SysfsPath)
	}
}

func TestLoad_OmittedPinsUnwired(t *testing.T) {
	content := `
database:
  path: "/tmp/test.db"
api:
  enabled: false
ports:
  - id: "port0"
    bus: "/dev/i2c-3"
    address: 0x22
    compatible: ["fcs,fusb302"]
  - id: "port1"
    bus: "/dev/i2c-3"
    address: 0x23
    compatible: ["fcs,fusb302"]
    pins:
      int_gpio: 27
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Ports[0].Pins.VBusGPIO != -1 || cfg.Ports[0].Pins.IntGPIO != -1 {
		t.Errorf("Ports[0].Pins = %+v, want both lines -1", cfg.Ports[0].Pins)
	}
	if cfg.Ports[1].Pins.VBusGPIO != -1 {
		t.Errorf("Ports[1].Pins.VBusGPIO = %d, want -1", cfg.Ports[1].Pins.VBusGPIO)
	}
	if cfg.Ports[1].Pins.IntGPIO != 27 {
		t.Errorf("Ports[1].Pins.IntGPIO = %d, want 27", cfg.Ports[1].Pins.IntGPIO)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("invalid: [yaml: content"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
database:
  path: ""
api:
  enabled: true
  port: 8080
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected validation error for empty database.path, got nil")
	}
}

// baseConfig returns a config that passes validation, for per-field mutation.
func baseConfig() *Config {
	cfg := defaultConfig()
	cfg.Security.JWT.Secret = validJWTSecret
	cfg.Ports = []PortConfig{
		{ID: "port0", Bus: "/dev/i2c-3", Address: 0x22, Compatible: []string{"fcs,fusb302"}},
	}
	return cfg
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "missing database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: true,
		},
		{
			name:    "invalid QoS",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: true,
		},
		{
			name:    "invalid port low",
			mutate:  func(c *Config) { c.API.Port = 0 },
			wantErr: true,
		},
		{
			name:    "invalid port high",
			mutate:  func(c *Config) { c.API.Port = 70000 },
			wantErr: true,
		},
		{
			name:    "missing JWT secret",
			mutate:  func(c *Config) { c.Security.JWT.Secret = "" },
			wantErr: true,
		},
		{
			name:    "JWT secret too short",
			mutate:  func(c *Config) { c.Security.JWT.Secret = "short" },
			wantErr: true,
		},
		{
			name:    "JWT secret not needed when API disabled",
			mutate:  func(c *Config) { c.API.Enabled = false; c.Security.JWT.Secret = "" },
			wantErr: false,
		},
		{
			name:    "missing port id",
			mutate:  func(c *Config) { c.Ports[0].ID = "" },
			wantErr: true,
		},
		{
			name: "duplicate port id",
			mutate: func(c *Config) {
				c.Ports = append(c.Ports, c.Ports[0])
			},
			wantErr: true,
		},
		{
			name:    "missing port bus",
			mutate:  func(c *Config) { c.Ports[0].Bus = "" },
			wantErr: true,
		},
		{
			name:    "address out of 7-bit range",
			mutate:  func(c *Config) { c.Ports[0].Address = 0x80 },
			wantErr: true,
		},
		{
			name:    "missing compatible",
			mutate:  func(c *Config) { c.Ports[0].Compatible = nil },
			wantErr: true,
		},
		{
			name:    "zero attach timeout",
			mutate:  func(c *Config) { c.Bus.AttachTimeout = 0 },
			wantErr: true,
		},
		{
			name:    "zero sample interval",
			mutate:  func(c *Config) { c.Telemetry.SampleInterval = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_GetTimeouts(t *testing.T) {
	cfg := &Config{
		API: APIConfig{
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 45,
				Idle:  60,
			},
		},
		Bus:       BusConfig{AttachTimeout: 10},
		Telemetry: TelemetryConfig{SampleInterval: 15},
	}

	if got := cfg.GetReadTimeout().Seconds(); got != 30 {
		t.Errorf("GetReadTimeout() = %v, want 30", got)
	}

	if got := cfg.GetWriteTimeout().Seconds(); got != 45 {
		t.Errorf("GetWriteTimeout() = %v, want 45", got)
	}

	if got := cfg.GetIdleTimeout().Seconds(); got != 60 {
		t.Errorf("GetIdleTimeout() = %v, want 60", got)
	}

	if got := cfg.AttachTimeout().Seconds(); got != 10 {
		t.Errorf("AttachTimeout() = %v, want 10", got)
	}

	if got := cfg.SampleInterval().Seconds(); got != 15 {
		t.Errorf("SampleInterval() = %v, want 15", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("TYPECD_DATABASE_PATH", "/custom/path.db")
	t.Setenv("TYPECD_LOG_LEVEL", "debug")
	t.Setenv("TYPECD_MQTT_HOST", "mqtt.example.com")
	t.Setenv("TYPECD_MQTT_USERNAME", "testuser")
	t.Setenv("TYPECD_MQTT_PASSWORD", "testpass")
	t.Setenv("TYPECD_API_HOST", "192.168.1.1")
	t.Setenv("TYPECD_INFLUXDB_TOKEN", "secret-token")
	t.Setenv("TYPECD_JWT_SECRET", "jwt-secret")
	t.Setenv("TYPECD_ADMIN_KEY", "admin-key")

	applyEnvOverrides(cfg)

	if cfg.Database.Path != "/custom/path.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/custom/path.db")
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}

	if cfg.MQTT.Broker.Host != "mqtt.example.com" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "mqtt.example.com")
	}

	if cfg.MQTT.Auth.Username != "testuser" {
		t.Errorf("MQTT.Auth.Username = %q, want %q", cfg.MQTT.Auth.Username, "testuser")
	}

	if cfg.MQTT.Auth.Password != "testpass" {
		t.Errorf("MQTT.Auth.Password = %q, want %q", cfg.MQTT.Auth.Password, "testpass")
	}

	if cfg.API.Host != "192.168.1.1" {
		t.Errorf("API.Host = %q, want %q", cfg.API.Host, "192.168.1.1")
	}

	if cfg.InfluxDB.Token != "secret-token" {
		t.Errorf("InfluxDB.Token = %q, want %q", cfg.InfluxDB.Token, "secret-token")
	}

	if cfg.Security.JWT.Secret != "jwt-secret" {
		t.Errorf("Security.JWT.Secret = %q, want %q", cfg.Security.JWT.Secret, "jwt-secret")
	}

	if cfg.Security.AdminKey != "admin-key" {
		t.Errorf("Security.AdminKey = %q, want %q", cfg.Security.AdminKey, "admin-key")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Database.Path == "" {
		t.Error("defaultConfig should have non-empty Database.Path")
	}

	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("defaultConfig MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}

	if cfg.API.Port != 8080 {
		t.Errorf("defaultConfig API.Port = %d, want 8080", cfg.API.Port)
	}

	if cfg.Bus.AttachTimeout != 10 {
		t.Errorf("defaultConfig Bus.AttachTimeout = %d, want 10", cfg.Bus.AttachTimeout)
	}
}
