package bridge

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"

	"github.com/nerrad567/typec-core/internal/hostbus"
	"github.com/nerrad567/typec-core/internal/typec"
)

// MQTT message types exchanged on the typecd topic tree. Timestamps are
// UTC and serialise as RFC3339.

// Command actions accepted on the command topic.
const (
	CommandAttach = "attach"
	CommandDetach = "detach"
)

// CommandMessage is received on typecd/port/{port}/command to drive a
// port's lifecycle. The target port comes from the topic, not the payload.
type CommandMessage struct {
	// ID uniquely identifies this command for correlation with its ack.
	ID string `json:"id"`

	// Timestamp is when the command was issued.
	Timestamp time.Time `json:"timestamp"`

	// Action is the lifecycle action, "attach" or "detach".
	Action string `json:"action"`

	// Source indicates where the command originated (e.g. "panel",
	// "automation").
	Source string `json:"source,omitempty"`
}

// AckStatus represents the acknowledgment status of a command.
type AckStatus string

const (
	// AckAccepted indicates the command was executed at the bus boundary.
	AckAccepted AckStatus = "accepted"

	// AckFailed indicates the command could not be executed.
	AckFailed AckStatus = "failed"
)

// Error codes for command failures.
const (
	ErrCodeNoDevice       = "NO_DEVICE"
	ErrCodePortBusy       = "PORT_BUSY"
	ErrCodeAttachFailed   = "ATTACH_FAILED"
	ErrCodeInvalidCommand = "INVALID_COMMAND"
	ErrCodeInvalidPayload = "INVALID_PAYLOAD"
)

// AckMessage is published on typecd/port/{port}/ack in response to a
// command. Errno carries the host-boundary code: 0 on success, negative
// otherwise.
type AckMessage struct {
	// CommandID is the ID from the original command.
	CommandID string `json:"command_id"`

	// Timestamp is when the acknowledgment was sent.
	Timestamp time.Time `json:"timestamp"`

	// Port is the port the command targeted.
	Port string `json:"port"`

	// Action is the action from the original command.
	Action string `json:"action"`

	// Status indicates whether the command was executed.
	Status AckStatus `json:"status"`

	// Errno is the host-boundary result code.
	Errno int `json:"errno"`

	// Error contains details if status is "failed".
	Error *AckError `json:"error,omitempty"`
}

// AckError contains error details for failed commands.
type AckError struct {
	// Code is the error code (e.g. "PORT_BUSY", "NO_DEVICE").
	Code string `json:"code"`

	// Message is a human-readable error description.
	Message string `json:"message"`
}

// StateMessage is published on typecd/port/{port}/state after every
// applied event.
// QoS: 1, Retained: Yes
type StateMessage struct {
	// Port is the port identifier.
	Port string `json:"port"`

	// Timestamp is when the state was observed.
	Timestamp time.Time `json:"timestamp"`

	// State is the full port snapshot.
	State typec.Snapshot `json:"state"`
}

// EventMessage is published on typecd/port/{port}/event for every applied
// event.
// QoS: 1, Retained: No
type EventMessage struct {
	// Port is the port identifier.
	Port string `json:"port"`

	// Event is the event name (e.g. "attached", "vbus_on").
	Event string `json:"event"`

	// Timestamp is when the event was applied.
	Timestamp time.Time `json:"timestamp"`
}

// LifecycleMessage is published on typecd/port/{port}/lifecycle for every
// bus lifecycle transition.
// QoS: 1, Retained: No
type LifecycleMessage struct {
	// Port is the device name on the bus.
	Port string `json:"port"`

	// Action is the transition ("attached", "attach_failed", "detached",
	// "removed").
	Action string `json:"action"`

	// Driver is the driver involved, empty for removals.
	Driver string `json:"driver,omitempty"`

	// Errno is the host-boundary code, non-zero only for failures.
	Errno int `json:"errno"`

	// Error describes the failure, empty on success.
	Error string `json:"error,omitempty"`

	// DurationMS is how long the dispatch took.
	DurationMS int64 `json:"duration_ms"`

	// Timestamp is when the transition was reported.
	Timestamp time.Time `json:"timestamp"`
}

// HealthStatus represents the operational status of the service.
type HealthStatus string

const (
	// HealthHealthy indicates the service is operating normally.
	HealthHealthy HealthStatus = "healthy"

	// HealthDegraded indicates the service is operating with issues.
	HealthDegraded HealthStatus = "degraded"

	// HealthStarting indicates the service is starting up.
	HealthStarting HealthStatus = "starting"

	// HealthStopping indicates the service is shutting down.
	HealthStopping HealthStatus = "stopping"
)

// HealthMessage is published on typecd/system/health to report
// operational status.
// QoS: 1, Retained: Yes
type HealthMessage struct {
	// Service is the service identifier (e.g. "typecd").
	Service string `json:"service"`

	// Timestamp is when the health status was generated.
	Timestamp time.Time `json:"timestamp"`

	// Status indicates the current operational status.
	Status HealthStatus `json:"status"`

	// Version is the daemon version.
	Version string `json:"version"`

	// UptimeSeconds is how long the service has been running.
	UptimeSeconds int64 `json:"uptime_seconds"`

	// Ports is the number of configured ports.
	Ports int `json:"ports"`

	// Statistics contains operational counters.
	Statistics *Statistics `json:"statistics,omitempty"`

	// Reason explains the status for degraded/stopping.
	Reason string `json:"reason,omitempty"`
}

// Statistics contains the bridge's operational counters.
type Statistics struct {
	// EventsPublished is the number of port events published.
	EventsPublished uint64 `json:"events_published"`

	// CommandsHandled is the number of commands processed.
	CommandsHandled uint64 `json:"commands_handled"`

	// CommandsFailed is the number of commands that failed.
	CommandsFailed uint64 `json:"commands_failed"`
}

// NewAckMessage creates an acknowledgment for an executed command.
func NewAckMessage(cmd CommandMessage, port string, status AckStatus) AckMessage {
	return AckMessage{
		CommandID: cmd.ID,
		Timestamp: time.Now().UTC(),
		Port:      port,
		Action:    cmd.Action,
		Status:    status,
	}
}

// NewAckError creates a failed acknowledgment with error details.
func NewAckError(cmd CommandMessage, port string, errno int, code, message string) AckMessage {
	return AckMessage{
		CommandID: cmd.ID,
		Timestamp: time.Now().UTC(),
		Port:      port,
		Action:    cmd.Action,
		Status:    AckFailed,
		Errno:     errno,
		Error: &AckError{
			Code:    code,
			Message: message,
		},
	}
}

// NewStateMessage creates a state message from an engine update.
func NewStateMessage(u typec.Update) StateMessage {
	return StateMessage{
		Port:      u.PortID,
		Timestamp: u.Time,
		State:     u.State,
	}
}

// NewEventMessage creates an event message from an engine update.
func NewEventMessage(u typec.Update) EventMessage {
	return EventMessage{
		Port:      u.PortID,
		Event:     u.Event,
		Timestamp: u.Time,
	}
}

// NewLifecycleMessage creates a lifecycle message from a bus notification.
func NewLifecycleMessage(n hostbus.Notification) LifecycleMessage {
	return LifecycleMessage{
		Port:       n.Device.Name,
		Action:     string(n.Action),
		Driver:     n.Driver,
		Errno:      n.Errno,
		Error:      n.Err,
		DurationMS: n.Duration.Milliseconds(),
		Timestamp:  time.Now().UTC(),
	}
}

// NewHealthMessage creates a health status message.
func NewHealthMessage(service, version string, status HealthStatus, stats Stats, ports int, startTime time.Time) HealthMessage {
	return HealthMessage{
		Service:       service,
		Timestamp:     time.Now().UTC(),
		Status:        status,
		Version:       version,
		UptimeSeconds: int64(time.Since(startTime).Seconds()),
		Ports:         ports,
		Statistics: &Statistics{
			EventsPublished: stats.EventsPublished,
			CommandsHandled: stats.CommandsHandled,
			CommandsFailed:  stats.CommandsFailed,
		},
	}
}

// errnoAck maps a host-boundary errno to an ack error code and message.
// Detach only ever reports -ENODEV; the remaining codes come from attach.
func errnoAck(errno int) (code, message string) {
	switch errno {
	case -int(unix.ENODEV):
		return ErrCodeNoDevice, "no such port or no matching driver"
	case -int(unix.EBUSY):
		return ErrCodePortBusy, "port already attached"
	default:
		return ErrCodeAttachFailed, fmt.Sprintf("attach failed with errno %d", errno)
	}
}
