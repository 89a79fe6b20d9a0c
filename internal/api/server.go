package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/typec-core/internal/diag"
	"github.com/nerrad567/typec-core/internal/hostbus"
	"github.com/nerrad567/typec-core/internal/infrastructure/config"
	"github.com/nerrad567/typec-core/internal/infrastructure/logging"
	"github.com/nerrad567/typec-core/internal/journal"
	"github.com/nerrad567/typec-core/internal/typec"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Bus is the host-bus surface the API drives: lifecycle dispatch plus the
// device inventory. Satisfied by *hostbus.Bus.
type Bus interface {
	// Attach dispatches an attach for the named port and returns the
	// host-boundary code: 0 on success, a negative errno otherwise.
	Attach(ctx context.Context, name string) int

	// Detach dispatches a detach for the named port. Reports 0 unless the
	// port is unknown.
	Detach(ctx context.Context, name string) int

	// Devices returns snapshots of all registered devices.
	Devices() []hostbus.DeviceInfo
}

// StateSource reads protocol state from the port engine. Satisfied by
// *typec.Engine.
type StateSource interface {
	State(id string) (typec.Snapshot, bool)
	Ports() []string
}

// ConnChecker reports subsystem connectivity for the status endpoint.
// Satisfied by the MQTT and InfluxDB clients.
type ConnChecker interface {
	IsConnected() bool
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	WS       config.WebSocketConfig
	Security config.SecurityConfig
	Logger   *logging.Logger
	Bus      Bus
	Engine   StateSource
	Journal  journal.Repository
	Diag     *diag.Registry
	MQTT     ConnChecker // optional: connectivity shown on /api/v1/status
	Influx   ConnChecker // optional: connectivity shown on /api/v1/status

	// ExternalHub, when set, replaces the server-owned hub. The daemon
	// injects one so the engine can feed it before the server starts; the
	// caller then owns running it.
	ExternalHub *Hub

	Version string
}

// Server is the HTTP API server for typecd.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg     config.APIConfig
	wsCfg   config.WebSocketConfig
	secCfg  config.SecurityConfig
	logger  *logging.Logger
	bus     Bus
	engine  StateSource
	journal journal.Repository
	diag    *diag.Registry
	mqtt    ConnChecker
	influx  ConnChecker

	version   string
	startTime time.Time

	server      *http.Server
	hub         *Hub
	externalHub bool               // true if hub was injected externally
	cancel      context.CancelFunc // cancels background goroutines on Close()
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Bus == nil {
		return nil, fmt.Errorf("host bus is required")
	}
	if deps.Engine == nil {
		return nil, fmt.Errorf("port engine is required")
	}
	if deps.Journal == nil {
		return nil, fmt.Errorf("journal repository is required")
	}
	if deps.Diag == nil {
		return nil, fmt.Errorf("diagnostics registry is required")
	}

	s := &Server{
		cfg:       deps.Config,
		wsCfg:     deps.WS,
		secCfg:    deps.Security,
		logger:    deps.Logger,
		bus:       deps.Bus,
		engine:    deps.Engine,
		journal:   deps.Journal,
		diag:      deps.Diag,
		mqtt:      deps.MQTT,
		influx:    deps.Influx,
		version:   deps.Version,
		startTime: time.Now(),
	}

	// Use an externally-provided hub when the engine needs to feed it
	// before the server starts.
	if deps.ExternalHub != nil {
		s.hub = deps.ExternalHub
		s.externalHub = true
	}

	return s, nil
}

// Start begins listening for HTTP connections.
//
// It builds the router, starts the WebSocket hub (unless one was injected)
// and launches the HTTP listener in a background goroutine. The server is
// stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	// Internal context so Close() can stop background goroutines
	// independently of the parent context.
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	if s.hub == nil {
		s.hub = NewHub(s.wsCfg, s.logger)
		go s.hub.Run(srvCtx)
	}

	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	// Stop the server-owned hub. An injected hub is the caller's.
	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and responsive.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
