// typecd - Type-C port controller daemon
//
// typecd manages FUSB302 Type-C port controllers over I2C: it registers
// the configured ports on a host bus, drives the attach/detach lifecycle,
// folds chip interrupts into per-port protocol state, and exposes the
// result over a REST/WebSocket API and an MQTT bridge. Lifecycle
// transitions and state changes are journalled to SQLite; port telemetry
// goes to InfluxDB when configured.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/nerrad567/typec-core/migrations"

	"github.com/nerrad567/typec-core/internal/api"
	"github.com/nerrad567/typec-core/internal/auth"
	"github.com/nerrad567/typec-core/internal/bridge"
	"github.com/nerrad567/typec-core/internal/diag"
	"github.com/nerrad567/typec-core/internal/fusb302"
	"github.com/nerrad567/typec-core/internal/gpio"
	"github.com/nerrad567/typec-core/internal/hostbus"
	"github.com/nerrad567/typec-core/internal/i2c"
	"github.com/nerrad567/typec-core/internal/infrastructure/config"
	"github.com/nerrad567/typec-core/internal/infrastructure/database"
	"github.com/nerrad567/typec-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/typec-core/internal/infrastructure/logging"
	"github.com/nerrad567/typec-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/typec-core/internal/journal"
	"github.com/nerrad567/typec-core/internal/telemetry"
	"github.com/nerrad567/typec-core/internal/typec"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// busCloseTimeout bounds the detach dispatches during shutdown.
const busCloseTimeout = 30 * time.Second

// Simulated adapters need the identity register seeded or the probe
// rejects them. 0x90 reads as a revision B part.
const (
	simIdentityReg = 0x01
	simIdentityVal = 0x90
)

func main() {
	hashKey := flag.String("hash-key", "", "print an Argon2id hash of the given admin key and exit")
	flag.Parse()

	if *hashKey != "" {
		hash, err := auth.HashKey(*hashKey)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual daemon logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting typecd",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath, "ports", len(cfg.Ports))

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)

	// Open journal database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database ready", "path", cfg.Database.Path)

	repo := journal.NewSQLiteRepository(db.DB)

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	diagRegistry := diag.NewRegistry()

	// The engine outlives the drivers: its Close runs after the bus has
	// detached everything, so ports idle out rather than losing state
	// mid-teardown.
	engine := typec.NewEngine()
	engine.SetLogger(log)
	defer engine.Close()

	bus := hostbus.New(log)
	var adapters []io.Closer
	defer func() {
		tctx, tcancel := context.WithTimeout(context.Background(), busCloseTimeout)
		defer tcancel()
		bus.Close(tctx)
		for _, a := range adapters {
			if closeErr := a.Close(); closeErr != nil {
				log.Warn("closing adapter", "error", closeErr)
			}
		}
	}()

	adapters, err = setupPorts(cfg, bus, engine, diagRegistry, log)
	if err != nil {
		return fmt.Errorf("setting up ports: %w", err)
	}

	// Journal sink: lifecycle rows plus per-event state history
	recorder := journal.NewRecorder(repo, log)
	engine.AddSink(recorder)
	bus.OnLifecycle(recorder.Lifecycle())

	// Telemetry sink (only when InfluxDB is wired)
	if influxClient != nil {
		sampler := telemetry.NewSampler(influxClient, cfg.SampleInterval())
		engine.AddSink(sampler)
		bus.OnLifecycle(sampler.Lifecycle())
	}

	// MQTT bridge: publishes state/events/lifecycle, executes commands
	if mqttClient != nil {
		br, bridgeErr := startBridge(ctx, cfg, bus, mqttClient, log)
		if bridgeErr != nil {
			return fmt.Errorf("starting MQTT bridge: %w", bridgeErr)
		}
		defer func() {
			log.Info("stopping MQTT bridge")
			br.Stop()
		}()
		engine.AddSink(br)
		bus.OnLifecycle(br.Lifecycle())
	}

	// API server with its WebSocket hub fed directly by the engine
	var apiServer *api.Server
	if cfg.API.Enabled {
		hub := api.NewHub(cfg.WebSocket, log)
		go hub.Run(ctx)
		engine.AddSink(hub)
		bus.OnLifecycle(hub.Lifecycle())

		deps := api.Deps{
			Config:      cfg.API,
			WS:          cfg.WebSocket,
			Security:    cfg.Security,
			Logger:      log,
			Bus:         bus,
			Engine:      engine,
			Journal:     repo,
			Diag:        diagRegistry,
			ExternalHub: hub,
			Version:     version,
		}
		// A nil concrete client inside a non-nil interface would pass the
		// status handler's nil check, so only assign wired clients.
		if mqttClient != nil {
			deps.MQTT = mqttClient
		}
		if influxClient != nil {
			deps.Influx = influxClient
		}

		apiServer, err = api.New(deps)
		if err != nil {
			return fmt.Errorf("creating API server: %w", err)
		}
		if err := apiServer.Start(ctx); err != nil {
			return fmt.Errorf("starting API server: %w", err)
		}
		defer func() {
			if closeErr := apiServer.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
		log.Info("API server listening", "host", cfg.API.Host, "port", cfg.API.Port)
	} else {
		log.Info("API disabled")
	}

	if cfg.Bus.AttachOnStart {
		attachConfiguredPorts(ctx, cfg, bus, log)
	}

	if err := healthCheck(ctx, db, mqttClient, influxClient, apiServer); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// API server, bridge, bus (detach all, close adapters), engine,
	// InfluxDB, MQTT, database.

	log.Info("typecd stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses TYPECD_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("TYPECD_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// setupPorts assembles the FUSB302 driver, registers it on the bus and
// adds one device per configured port. It returns the adapters it opened
// so the caller can close them after the bus detaches everything.
func setupPorts(cfg *config.Config, bus *hostbus.Bus, engine *typec.Engine, registry *diag.Registry, log *logging.Logger) ([]io.Closer, error) {
	core := fusb302.NewEngineCore(engine)
	core.SetLogger(log)
	prober := fusb302.NewDeviceProber()
	prober.SetLogger(log)
	pins := fusb302.NewPortPins()
	workers := fusb302.NewChipWorkers(0)
	workers.SetLogger(log)
	diagnostics := fusb302.NewRegistryDiagnostics(registry)
	diagnostics.SetLogger(log)

	controller, err := fusb302.NewController(fusb302.Deps{
		Allocator:   fusb302.DevresAllocator{},
		Prober:      prober,
		Pins:        pins,
		Workers:     workers,
		Timer:       fusb302.NewTickTimer(0),
		Diagnostics: diagnostics,
		Core:        core,
		Logger:      log,
	})
	if err != nil {
		return nil, fmt.Errorf("creating fusb302 controller: %w", err)
	}
	if err := bus.RegisterDriver(fusb302.NewDriver(controller)); err != nil {
		return nil, fmt.Errorf("registering fusb302 driver: %w", err)
	}

	var closers []io.Closer
	shared := make(map[string]i2c.Adapter)
	for _, p := range cfg.Ports {
		adapter, err := portAdapter(cfg, p, shared, &closers)
		if err != nil {
			return closers, err
		}

		// #nosec G115 -- address validated to the 7-bit range by config
		if _, err := bus.AddDevice(hostbus.DeviceDesc{
			Name:       p.ID,
			Addr:       uint16(p.Address),
			Compatible: p.Compatible,
			Adapter:    adapter,
		}); err != nil {
			return closers, fmt.Errorf("adding device %q: %w", p.ID, err)
		}

		// GPIO lines need sysfs; simulated setups run timer-driven only.
		if !cfg.Bus.Simulate && (p.Pins.VBusGPIO >= 0 || p.Pins.IntGPIO >= 0) {
			set := gpio.NewPins(cfg.GPIO.SysfsPath, p.Pins.VBusGPIO, p.Pins.IntGPIO)
			pins.Add(p.ID, set)
			workers.AddPoller(p.ID, set)
		}
	}

	return closers, nil
}

// portAdapter returns the adapter for one port: a per-port register
// simulator in simulate mode, otherwise the shared device node for the
// port's bus path.
func portAdapter(cfg *config.Config, p config.PortConfig, shared map[string]i2c.Adapter, closers *[]io.Closer) (i2c.Adapter, error) {
	if cfg.Bus.Simulate {
		sim := i2c.NewSim(p.Bus)
		sim.Load(simIdentityReg, simIdentityVal)
		*closers = append(*closers, sim)
		return sim, nil
	}

	if adapter, ok := shared[p.Bus]; ok {
		return adapter, nil
	}
	dev, err := i2c.Open(p.Bus)
	if err != nil {
		return nil, fmt.Errorf("opening adapter %s: %w", p.Bus, err)
	}
	shared[p.Bus] = dev
	*closers = append(*closers, dev)
	return dev, nil
}

// startBridge creates and starts the MQTT bridge.
func startBridge(ctx context.Context, cfg *config.Config, bus *hostbus.Bus, mqttClient *mqtt.Client, log *logging.Logger) (*bridge.Bridge, error) {
	br, err := bridge.New(bridge.Options{
		Service:    "typecd",
		Version:    version,
		Ports:      len(cfg.Ports),
		MQTTClient: &mqttBridgeAdapter{client: mqttClient},
		Controller: bus,
		Logger:     log,
	})
	if err != nil {
		return nil, fmt.Errorf("creating bridge: %w", err)
	}
	if err := br.Start(ctx); err != nil {
		return nil, fmt.Errorf("starting bridge: %w", err)
	}
	log.Info("MQTT bridge started", "ports", len(cfg.Ports))
	return br, nil
}

// attachConfiguredPorts attaches every configured port. A failed attach
// leaves the port registered; it can be retried over the API or MQTT.
func attachConfiguredPorts(ctx context.Context, cfg *config.Config, bus *hostbus.Bus, log *logging.Logger) {
	for _, p := range cfg.Ports {
		actx, cancel := context.WithTimeout(ctx, cfg.AttachTimeout())
		errno := bus.Attach(actx, p.ID)
		cancel()
		if errno != 0 {
			log.Warn("startup attach failed", "port", p.ID, "errno", errno)
		}
	}
}

// healthCheck verifies all wired infrastructure connections are healthy.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client, apiServer *api.Server) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	if apiServer != nil {
		if err := apiServer.HealthCheck(ctx); err != nil {
			return fmt.Errorf("api: %w", err)
		}
	}
	return nil
}

// mqttBridgeAdapter adapts the infrastructure MQTT client to the bridge's
// MQTTClient interface. The infrastructure Subscribe handler returns an
// error; the bridge's does not.
type mqttBridgeAdapter struct {
	client *mqtt.Client
}

// Publish implements bridge.MQTTClient.
func (a *mqttBridgeAdapter) Publish(topic string, payload []byte, qos byte, retained bool) error {
	return a.client.Publish(topic, payload, qos, retained)
}

// Subscribe implements bridge.MQTTClient.
func (a *mqttBridgeAdapter) Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error {
	return a.client.Subscribe(topic, qos, func(t string, p []byte) error {
		handler(t, p)
		return nil
	})
}

// IsConnected implements bridge.MQTTClient.
func (a *mqttBridgeAdapter) IsConnected() bool {
	return a.client.IsConnected()
}
