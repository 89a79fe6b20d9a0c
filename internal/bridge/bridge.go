package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/typec-core/internal/hostbus"
	"github.com/nerrad567/typec-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/typec-core/internal/typec"
)

// Bridge operation constants.
const (
	// commandTopicParts is the number of parts in a command topic
	// (typecd/port/{port}/command).
	commandTopicParts = 4

	// commandTimeout bounds a single attach or detach dispatch.
	commandTimeout = 5 * time.Second
)

// topics builds the typecd topic tree.
var topics mqtt.Topics

// The bridge doubles as an engine sink, and the bus is the controller it
// dispatches commands to.
var (
	_ typec.Sink     = (*Bridge)(nil)
	_ PortController = (*hostbus.Bus)(nil)
)

// Bridge translates between the daemon's internals and MQTT. It publishes
// state, events and lifecycle transitions, and executes attach/detach
// commands received over the command topics.
//
// Wire it with Engine.AddSink for state/events and Bus.OnLifecycle for
// lifecycle transitions.
//
// Thread Safety: All methods are safe for concurrent use.
type Bridge struct {
	service string
	version string
	ports   int
	mqtt    MQTTClient
	ctl     PortController
	health  *HealthReporter

	// Operational counters, surfaced in health messages
	eventsPublished atomic.Uint64
	commandsHandled atomic.Uint64
	commandsFailed  atomic.Uint64

	// Shutdown coordination
	stopOnce  sync.Once
	ctx       context.Context    // Bridge-level context, cancelled on Stop()
	ctxCancel context.CancelFunc

	logger   Logger
	loggerMu sync.RWMutex
}

// MQTTClient is the interface for MQTT operations.
// This allows mocking in tests and flexibility in implementation.
type MQTTClient interface {
	// Publish sends a message to a topic.
	Publish(topic string, payload []byte, qos byte, retained bool) error

	// Subscribe registers a handler for a topic pattern.
	Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error

	// IsConnected returns true if connected to the broker.
	IsConnected() bool
}

// PortController executes lifecycle commands at the host boundary.
// Satisfied by *hostbus.Bus.
type PortController interface {
	// Attach dispatches an attach for the named port and returns the
	// host-boundary code: 0 on success, a negative errno otherwise.
	Attach(ctx context.Context, name string) int

	// Detach dispatches a detach for the named port. Reports 0 unless the
	// port is unknown.
	Detach(ctx context.Context, name string) int
}

// Logger interface for optional logging.
type Logger interface {
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Options holds configuration for creating a bridge.
type Options struct {
	// Service is the service identifier for health messages.
	// Default: "typecd".
	Service string

	// Version is the daemon version reported in health messages.
	Version string

	// Ports is the number of configured ports, reported in health
	// messages.
	Ports int

	// MQTTClient is the MQTT client implementation.
	MQTTClient MQTTClient

	// Controller executes attach/detach commands.
	Controller PortController

	// HealthInterval is how often to publish health status.
	// Default: 30 seconds.
	HealthInterval time.Duration

	// Logger is optional structured logging.
	Logger Logger
}

// New creates a bridge. Call Start to begin operation.
func New(opts Options) (*Bridge, error) {
	if opts.MQTTClient == nil {
		return nil, fmt.Errorf("MQTT client is required")
	}
	if opts.Controller == nil {
		return nil, fmt.Errorf("port controller is required")
	}

	service := opts.Service
	if service == "" {
		service = "typecd"
	}

	// Bridge-level context so in-flight commands abort on shutdown
	ctx, ctxCancel := context.WithCancel(context.Background())

	b := &Bridge{
		service:   service,
		version:   opts.Version,
		ports:     opts.Ports,
		mqtt:      opts.MQTTClient,
		ctl:       opts.Controller,
		ctx:       ctx,
		ctxCancel: ctxCancel,
		logger:    opts.Logger,
	}

	b.health = NewHealthReporter(HealthReporterConfig{
		Service:   service,
		Version:   opts.Version,
		Interval:  opts.HealthInterval,
		Publisher: opts.MQTTClient,
		Stats:     b,
	})
	b.health.SetPortCount(opts.Ports)
	if opts.Logger != nil {
		b.health.SetLogger(opts.Logger)
	}

	return b, nil
}

// Start subscribes to the command topics and begins health reporting.
func (b *Bridge) Start(ctx context.Context) error {
	if err := b.health.PublishStarting(); err != nil {
		b.logError("publishing starting status", err)
	}

	commandTopic := topics.AllPortCommands()
	if err := b.mqtt.Subscribe(commandTopic, 1, b.handleCommandMessage); err != nil {
		return fmt.Errorf("subscribing to commands: %w", err)
	}
	b.logInfo("subscribed to commands", "topic", commandTopic)

	b.health.Start(ctx)
	if err := b.health.PublishNow(); err != nil {
		b.logError("publishing health status", err)
	}

	b.logInfo("bridge started", "service", b.service, "ports", b.ports)
	return nil
}

// Stop gracefully shuts down the bridge. Safe to call multiple times.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		// Abort in-flight commands before the final health publish
		b.ctxCancel()
		b.health.Stop()
		b.logInfo("bridge stopped")
	})
}

// PortUpdate implements typec.Sink, publishing retained state and the
// applied event for every update. Ticks only confirm liveness and are not
// republished.
func (b *Bridge) PortUpdate(u typec.Update) {
	if u.Event == typec.EventTick.String() {
		return
	}
	b.publishState(u)
	b.publishEvent(u)
}

// Lifecycle returns a bus notifier publishing lifecycle transitions.
func (b *Bridge) Lifecycle() hostbus.Notifier {
	return func(n hostbus.Notification) {
		payload, err := json.Marshal(NewLifecycleMessage(n))
		if err != nil {
			b.logError("marshalling lifecycle message", err)
			return
		}
		if err := b.mqtt.Publish(topics.PortLifecycle(n.Device.Name), payload, 1, false); err != nil {
			b.logError("publishing lifecycle message", err)
		}
	}
}

// BridgeStats implements StatsProvider for health reporting.
func (b *Bridge) BridgeStats() Stats {
	return Stats{
		EventsPublished: b.eventsPublished.Load(),
		CommandsHandled: b.commandsHandled.Load(),
		CommandsFailed:  b.commandsFailed.Load(),
	}
}

// publishState publishes the full snapshot, retained so late subscribers
// see the current state without waiting for the next event.
func (b *Bridge) publishState(u typec.Update) {
	payload, err := json.Marshal(NewStateMessage(u))
	if err != nil {
		b.logError("marshalling state message", err)
		return
	}
	if err := b.mqtt.Publish(topics.PortState(u.PortID), payload, 1, true); err != nil {
		b.logError("publishing state message", err)
	}
}

// publishEvent publishes the applied event, fire-and-forget.
func (b *Bridge) publishEvent(u typec.Update) {
	payload, err := json.Marshal(NewEventMessage(u))
	if err != nil {
		b.logError("marshalling event message", err)
		return
	}
	if err := b.mqtt.Publish(topics.PortEvent(u.PortID), payload, 1, false); err != nil {
		b.logError("publishing event message", err)
		return
	}
	b.eventsPublished.Add(1)
}

// handleCommandMessage parses the port out of the command topic and runs
// the command. Runs on the MQTT client's handler goroutine; commands
// execute synchronously, so a slow attach delays later commands.
func (b *Bridge) handleCommandMessage(topic string, payload []byte) {
	parts := strings.Split(topic, "/")
	if len(parts) != commandTopicParts || parts[commandTopicParts-1] != "command" {
		b.logWarn("command on unexpected topic", "topic", topic)
		return
	}
	port := parts[2]

	var cmd CommandMessage
	if err := json.Unmarshal(payload, &cmd); err != nil {
		b.commandsFailed.Add(1)
		b.logError("parsing command", err)
		b.publishAckError(CommandMessage{}, port, 0, ErrCodeInvalidPayload, "command payload is not valid JSON")
		return
	}

	b.handleCommand(port, cmd)
}

// handleCommand executes a parsed command and publishes its ack.
func (b *Bridge) handleCommand(port string, cmd CommandMessage) {
	b.commandsHandled.Add(1)
	b.logInfo("received command",
		"command_id", cmd.ID,
		"port", port,
		"action", cmd.Action,
		"source", cmd.Source)

	// Derive timeout from bridge context so commands abort on shutdown
	ctx, cancel := context.WithTimeout(b.ctx, commandTimeout)
	defer cancel()

	var errno int
	switch cmd.Action {
	case CommandAttach:
		errno = b.ctl.Attach(ctx, port)
	case CommandDetach:
		errno = b.ctl.Detach(ctx, port)
	default:
		b.commandsFailed.Add(1)
		b.publishAckError(cmd, port, 0, ErrCodeInvalidCommand,
			fmt.Sprintf("unknown action: %s", cmd.Action))
		return
	}

	if errno != 0 {
		b.commandsFailed.Add(1)
		code, message := errnoAck(errno)
		b.publishAckError(cmd, port, errno, code, message)
		b.logWarn("command failed",
			"command_id", cmd.ID,
			"port", port,
			"action", cmd.Action,
			"errno", errno)
		return
	}

	b.publishAck(cmd, port, AckAccepted)
}

// publishAck publishes a command acknowledgment.
func (b *Bridge) publishAck(cmd CommandMessage, port string, status AckStatus) {
	ack := NewAckMessage(cmd, port, status)

	payload, err := json.Marshal(ack)
	if err != nil {
		b.logError("marshalling ack", err)
		return
	}
	if err := b.mqtt.Publish(topics.PortAck(port), payload, 1, false); err != nil {
		b.logError("publishing ack", err)
	}
}

// publishAckError publishes a failed command acknowledgment.
func (b *Bridge) publishAckError(cmd CommandMessage, port string, errno int, code, message string) {
	ack := NewAckError(cmd, port, errno, code, message)

	payload, err := json.Marshal(ack)
	if err != nil {
		b.logError("marshalling ack error", err)
		return
	}
	if err := b.mqtt.Publish(topics.PortAck(port), payload, 1, false); err != nil {
		b.logError("publishing ack error", err)
	}
}

// SetLogger sets the logger for the bridge.
func (b *Bridge) SetLogger(logger Logger) {
	b.loggerMu.Lock()
	b.logger = logger
	b.loggerMu.Unlock()

	if b.health != nil {
		b.health.SetLogger(logger)
	}
}

// logInfo logs an info message if logger is set.
func (b *Bridge) logInfo(msg string, keysAndValues ...any) {
	b.loggerMu.RLock()
	logger := b.logger
	b.loggerMu.RUnlock()

	if logger != nil {
		logger.Info(msg, keysAndValues...)
	}
}

// logWarn logs a warning if logger is set.
func (b *Bridge) logWarn(msg string, keysAndValues ...any) {
	b.loggerMu.RLock()
	logger := b.logger
	b.loggerMu.RUnlock()

	if logger != nil {
		logger.Warn(msg, keysAndValues...)
	}
}

// logError logs an error message if logger is set.
func (b *Bridge) logError(msg string, err error) {
	b.loggerMu.RLock()
	logger := b.logger
	b.loggerMu.RUnlock()

	if logger != nil {
		logger.Error(msg, "error", err)
	}
}
