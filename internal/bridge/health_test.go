package bridge

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"
)

// mockPublisher implements HealthPublisher for testing.
type mockPublisher struct {
	mu        sync.Mutex
	connected bool
	messages  []publishedMessage
}

type publishedMessage struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

func newMockPublisher(connected bool) *mockPublisher {
	return &mockPublisher{connected: connected}
}

func (m *mockPublisher) Publish(topic string, payload []byte, qos byte, retained bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, publishedMessage{
		topic:    topic,
		payload:  payload,
		qos:      qos,
		retained: retained,
	})
	return nil
}

func (m *mockPublisher) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *mockPublisher) getMessages() []publishedMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]publishedMessage, len(m.messages))
	copy(result, m.messages)
	return result
}

// fixedStats implements StatsProvider with fixed counters.
type fixedStats struct {
	stats Stats
}

func (f fixedStats) BridgeStats() Stats { return f.stats }

func TestNewHealthReporter(t *testing.T) {
	hr := NewHealthReporter(HealthReporterConfig{
		Service:   "typecd",
		Version:   "1.0.0",
		Interval:  5 * time.Second,
		Publisher: newMockPublisher(true),
	})

	if hr.service != "typecd" {
		t.Errorf("service = %q, want typecd", hr.service)
	}
	if hr.version != "1.0.0" {
		t.Errorf("version = %q, want 1.0.0", hr.version)
	}
	if hr.interval != 5*time.Second {
		t.Errorf("interval = %v, want 5s", hr.interval)
	}
}

func TestHealthReporterDefaultInterval(t *testing.T) {
	hr := NewHealthReporter(HealthReporterConfig{Service: "typecd"})

	if hr.interval != 30*time.Second {
		t.Errorf("default interval = %v, want 30s", hr.interval)
	}
}

func TestHealthReporterPublishNow(t *testing.T) {
	pub := newMockPublisher(true)

	hr := NewHealthReporter(HealthReporterConfig{
		Service:   "typecd",
		Version:   "2.0.0",
		Publisher: pub,
		Stats: fixedStats{Stats{
			EventsPublished: 12,
			CommandsHandled: 4,
			CommandsFailed:  1,
		}},
	})
	hr.SetPortCount(2)

	if err := hr.PublishNow(); err != nil {
		t.Fatalf("PublishNow failed: %v", err)
	}

	messages := pub.getMessages()
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}

	msg := messages[0]
	if msg.topic != "typecd/system/health" {
		t.Errorf("topic = %q, want typecd/system/health", msg.topic)
	}
	if msg.qos != 1 {
		t.Errorf("qos = %d, want 1", msg.qos)
	}
	if !msg.retained {
		t.Error("message should be retained")
	}

	var health HealthMessage
	if err := json.Unmarshal(msg.payload, &health); err != nil {
		t.Fatalf("unmarshalling health message: %v", err)
	}

	if health.Service != "typecd" {
		t.Errorf("Service = %q, want typecd", health.Service)
	}
	if health.Status != HealthHealthy {
		t.Errorf("Status = %q, want %q", health.Status, HealthHealthy)
	}
	if health.Version != "2.0.0" {
		t.Errorf("Version = %q, want 2.0.0", health.Version)
	}
	if health.Ports != 2 {
		t.Errorf("Ports = %d, want 2", health.Ports)
	}
	if health.Statistics == nil {
		t.Fatal("Statistics missing")
	}
	if health.Statistics.EventsPublished != 12 {
		t.Errorf("EventsPublished = %d, want 12", health.Statistics.EventsPublished)
	}
	if health.Statistics.CommandsFailed != 1 {
		t.Errorf("CommandsFailed = %d, want 1", health.Statistics.CommandsFailed)
	}
}

func TestHealthReporterDegradedWhenDisconnected(t *testing.T) {
	hr := NewHealthReporter(HealthReporterConfig{
		Service:   "typecd",
		Publisher: newMockPublisher(false),
	})

	status, reason := hr.determineStatus()

	if status != HealthDegraded {
		t.Errorf("Status = %q, want %q", status, HealthDegraded)
	}
	if reason != "MQTT disconnected" {
		t.Errorf("Reason = %q, want 'MQTT disconnected'", reason)
	}
}

func TestHealthReporterPublishStarting(t *testing.T) {
	pub := newMockPublisher(true)

	hr := NewHealthReporter(HealthReporterConfig{
		Service:   "typecd",
		Publisher: pub,
	})
	if err := hr.PublishStarting(); err != nil {
		t.Fatalf("PublishStarting failed: %v", err)
	}

	messages := pub.getMessages()
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}

	var health HealthMessage
	if err := json.Unmarshal(messages[0].payload, &health); err != nil {
		t.Fatalf("unmarshalling health message: %v", err)
	}

	if health.Status != HealthStarting {
		t.Errorf("Status = %q, want %q", health.Status, HealthStarting)
	}
}

func TestHealthReporterSetPortCount(t *testing.T) {
	pub := newMockPublisher(true)

	hr := NewHealthReporter(HealthReporterConfig{
		Service:   "typecd",
		Publisher: pub,
	})

	hr.SetPortCount(1)
	hr.PublishNow()

	hr.SetPortCount(2)
	hr.PublishNow()

	messages := pub.getMessages()
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}

	var first, second HealthMessage
	json.Unmarshal(messages[0].payload, &first)
	json.Unmarshal(messages[1].payload, &second)

	if first.Ports != 1 {
		t.Errorf("first Ports = %d, want 1", first.Ports)
	}
	if second.Ports != 2 {
		t.Errorf("second Ports = %d, want 2", second.Ports)
	}
}

func TestHealthReporterStartStop(t *testing.T) {
	pub := newMockPublisher(true)

	hr := NewHealthReporter(HealthReporterConfig{
		Service:   "typecd",
		Interval:  50 * time.Millisecond, // Short interval for testing
		Publisher: pub,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hr.Start(ctx)

	// Wait for at least 2 periodic reports
	time.Sleep(150 * time.Millisecond)

	hr.Stop()

	messages := pub.getMessages()
	// Should have: initial + at least 2 periodic + stopping
	if len(messages) < 3 {
		t.Errorf("expected at least 3 messages, got %d", len(messages))
	}

	var last HealthMessage
	json.Unmarshal(messages[len(messages)-1].payload, &last)
	if last.Status != HealthStopping {
		t.Errorf("last Status = %q, want %q", last.Status, HealthStopping)
	}
}

func TestHealthReporterWithNoPublisher(t *testing.T) {
	hr := NewHealthReporter(HealthReporterConfig{Service: "typecd"})

	// Should not panic or error
	if err := hr.PublishNow(); err != nil {
		t.Errorf("PublishNow with nil publisher should not error: %v", err)
	}
}
