package mqtt

import "fmt"

// Topic prefixes for the typecd topic tree.
//
// Port topics follow the scheme: typecd/port/{port}/{channel}
// where {port} is the configured port name (e.g. "port0").
const (
	// TopicPrefix is the base for all typecd topics.
	TopicPrefix = "typecd"

	// TopicPrefixPort is the base for per-port topics.
	TopicPrefixPort = "typecd/port"

	// TopicPrefixSystem is the base for daemon-level topics.
	TopicPrefixSystem = "typecd/system"
)

// Topics provides builders for typecd MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	stateTopic := topics.PortState("port0")
//	// Returns: "typecd/port/port0/state"
type Topics struct{}

// =============================================================================
// Port Topics
// =============================================================================

// PortState returns the retained state topic for a port.
// Carries the latest snapshot; new subscribers see it immediately.
//
// Example: typecd/port/port0/state
func (Topics) PortState(port string) string {
	return fmt.Sprintf("%s/%s/state", TopicPrefixPort, port)
}

// PortEvent returns the event topic for a port.
// Carries individual connector events (attached, vbus_on, ...), not retained.
//
// Example: typecd/port/port0/event
func (Topics) PortEvent(port string) string {
	return fmt.Sprintf("%s/%s/event", TopicPrefixPort, port)
}

// PortLifecycle returns the lifecycle topic for a port.
// Carries attach/detach transitions with errno on failure.
//
// Example: typecd/port/port0/lifecycle
func (Topics) PortLifecycle(port string) string {
	return fmt.Sprintf("%s/%s/lifecycle", TopicPrefixPort, port)
}

// PortCommand returns the inbound command topic for a port.
//
// Example: typecd/port/port0/command
func (Topics) PortCommand(port string) string {
	return fmt.Sprintf("%s/%s/command", TopicPrefixPort, port)
}

// PortAck returns the command acknowledgement topic for a port.
//
// Example: typecd/port/port0/ack
func (Topics) PortAck(port string) string {
	return fmt.Sprintf("%s/%s/ack", TopicPrefixPort, port)
}

// =============================================================================
// System Topics
// =============================================================================

// SystemStatus returns the daemon availability topic.
// Written retained on connect, on graceful shutdown and by the broker's
// Last Will on unexpected disconnect.
//
// Example: typecd/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// SystemHealth returns the periodic daemon health topic.
//
// Example: typecd/system/health
func (Topics) SystemHealth() string {
	return fmt.Sprintf("%s/health", TopicPrefixSystem)
}

// =============================================================================
// Wildcard Patterns for Subscriptions
// =============================================================================

// AllPortStates returns a pattern matching every port's state topic.
//
// Pattern: typecd/port/+/state
func (Topics) AllPortStates() string {
	return fmt.Sprintf("%s/+/state", TopicPrefixPort)
}

// AllPortEvents returns a pattern matching every port's event topic.
//
// Pattern: typecd/port/+/event
func (Topics) AllPortEvents() string {
	return fmt.Sprintf("%s/+/event", TopicPrefixPort)
}

// AllPortLifecycle returns a pattern matching every port's lifecycle topic.
//
// Pattern: typecd/port/+/lifecycle
func (Topics) AllPortLifecycle() string {
	return fmt.Sprintf("%s/+/lifecycle", TopicPrefixPort)
}

// AllPortCommands returns a pattern matching every port's command topic.
//
// Pattern: typecd/port/+/command
func (Topics) AllPortCommands() string {
	return fmt.Sprintf("%s/+/command", TopicPrefixPort)
}

// AllTopics returns a pattern matching all typecd topics.
// Use with caution - this receives ALL traffic.
//
// Pattern: typecd/#
func (Topics) AllTopics() string {
	return "typecd/#"
}
