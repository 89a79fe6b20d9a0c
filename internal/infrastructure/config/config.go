package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for typecd.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
	Security  SecurityConfig  `yaml:"security"`
	Bus       BusConfig       `yaml:"bus"`
	GPIO      GPIOConfig      `yaml:"gpio"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Ports     []PortConfig    `yaml:"ports"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	TLS      TLSConfig        `yaml:"tls"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// TLSConfig contains TLS certificate settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// SecurityConfig contains security settings.
type SecurityConfig struct {
	JWT      JWTConfig `yaml:"jwt"`
	AdminKey string    `yaml:"admin_key"`
}

// JWTConfig contains JWT token settings.
type JWTConfig struct {
	Secret         string `yaml:"secret"`
	AccessTokenTTL int    `yaml:"access_token_ttl"`
}

// BusConfig contains host-bus behaviour settings.
type BusConfig struct {
	// Simulate replaces every configured adapter with an in-memory
	// register device. Useful on development machines without the chip.
	Simulate bool `yaml:"simulate"`

	// AttachOnStart attaches all configured ports during startup.
	// When false, ports stay registered until attached via the API or MQTT.
	AttachOnStart bool `yaml:"attach_on_start"`

	// AttachTimeout bounds a single attach dispatch, in seconds.
	AttachTimeout int `yaml:"attach_timeout"`
}

// GPIOConfig contains GPIO access settings.
type GPIOConfig struct {
	// SysfsPath is the root of the GPIO sysfs interface.
	SysfsPath string `yaml:"sysfs_path"`
}

// TelemetryConfig contains port telemetry settings.
type TelemetryConfig struct {
	// SampleInterval is the port state sampling period in seconds.
	SampleInterval int `yaml:"sample_interval"`
}

// PortConfig describes one Type-C port controller device.
type PortConfig struct {
	// ID is the port name used in the API, MQTT topics, and the journal.
	ID string `yaml:"id"`

	// Bus is the I2C adapter device node (e.g. /dev/i2c-3).
	Bus string `yaml:"bus"`

	// Address is the chip's 7-bit I2C address (FUSB302 family: 0x22-0x25).
	Address int `yaml:"address"`

	// Compatible lists the device-tree style identifiers for driver matching.
	Compatible []string `yaml:"compatible"`

	// Pins describes the GPIO lines wired to the chip. A value of -1 (or
	// omitting the line) means the line is not wired on this board.
	Pins PortPinsConfig `yaml:"pins"`
}

// PortPinsConfig contains the GPIO line numbers for one port.
type PortPinsConfig struct {
	VBusGPIO int `yaml:"vbus_gpio"`
	IntGPIO  int `yaml:"int_gpio"`
}

// UnmarshalYAML decodes a port entry with unwired pins as the default.
// GPIO line 0 is a valid number on most SoCs, so omitted lines must not
// decode to it.
func (p *PortConfig) UnmarshalYAML(value *yaml.Node) error {
	type rawPort PortConfig
	out := rawPort{Pins: PortPinsConfig{VBusGPIO: -1, IntGPIO: -1}}
	if err := value.Decode(&out); err != nil {
		return err
	}
	*p = PortConfig(out)
	return nil
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: TYPECD_SECTION_KEY
// For example: TYPECD_DATABASE_PATH, TYPECD_MQTT_HOST
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:        "./data/typecd.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "typecd",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		API: APIConfig{
			Enabled: true,
			Host:    "0.0.0.0",
			Port:    8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Security: SecurityConfig{
			JWT: JWTConfig{
				AccessTokenTTL: 60,
			},
		},
		Bus: BusConfig{
			AttachOnStart: true,
			AttachTimeout: 10,
		},
		GPIO: GPIOConfig{
			SysfsPath: "/sys/class/gpio",
		},
		Telemetry: TelemetryConfig{
			SampleInterval: 30,
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: TYPECD_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Database
	if v := os.Getenv("TYPECD_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// Logging
	if v := os.Getenv("TYPECD_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	// MQTT
	if v := os.Getenv("TYPECD_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("TYPECD_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("TYPECD_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// API
	if v := os.Getenv("TYPECD_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	// InfluxDB
	if v := os.Getenv("TYPECD_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Security (always override in production)
	if v := os.Getenv("TYPECD_JWT_SECRET"); v != "" {
		cfg.Security.JWT.Secret = v
	}
	if v := os.Getenv("TYPECD_ADMIN_KEY"); v != "" {
		cfg.Security.AdminKey = v
	}
}

// Validate checks the configuration for errors and security issues.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.API.Enabled {
		if c.API.Port < 1 || c.API.Port > 65535 {
			errs = append(errs, "api.port must be between 1 and 65535")
		}

		// The API exposes attach/detach control over physical hardware.
		// Empty or weak secrets would allow forged tokens to drive VBUS.
		const minJWTSecretLength = 32
		if c.Security.JWT.Secret == "" {
			errs = append(errs, "security.jwt.secret is required (set TYPECD_JWT_SECRET environment variable)")
		} else if len(c.Security.JWT.Secret) < minJWTSecretLength {
			errs = append(errs, "security.jwt.secret must be at least 32 characters")
		}
	}

	if c.Bus.AttachTimeout <= 0 {
		errs = append(errs, "bus.attach_timeout must be positive")
	}

	if c.Telemetry.SampleInterval <= 0 {
		errs = append(errs, "telemetry.sample_interval must be positive")
	}

	seen := make(map[string]bool, len(c.Ports))
	for i, p := range c.Ports {
		prefix := fmt.Sprintf("ports[%d]", i)
		switch {
		case p.ID == "":
			errs = append(errs, prefix+".id is required")
		case seen[p.ID]:
			errs = append(errs, prefix+".id duplicates "+p.ID)
		default:
			seen[p.ID] = true
		}
		if p.Bus == "" {
			errs = append(errs, prefix+".bus is required")
		}
		if p.Address < 0x03 || p.Address > 0x77 {
			errs = append(errs, prefix+".address must be a 7-bit address between 0x03 and 0x77")
		}
		if len(p.Compatible) == 0 {
			errs = append(errs, prefix+".compatible is required")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}

// AttachTimeout returns the bus attach timeout as a Duration.
func (c *Config) AttachTimeout() time.Duration {
	return time.Duration(c.Bus.AttachTimeout) * time.Second
}

// SampleInterval returns the telemetry sampling period as a Duration.
func (c *Config) SampleInterval() time.Duration {
	return time.Duration(c.Telemetry.SampleInterval) * time.Second
}
