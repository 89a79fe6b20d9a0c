// Package mqtt provides MQTT client connectivity for typecd.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// MQTT gives embedded dashboards and other services a live view of port
// state without polling the REST API. The daemon publishes retained state
// per port, fires events as they happen, and accepts attach/detach
// commands over the command topics (see internal/bridge).
//
//	typecd ↔ MQTT Broker ↔ dashboards / automation
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//   - Message payloads are not encrypted beyond TLS transport
//
// # Performance Characteristics
//
//   - Connection: <1 second to local broker
//   - Publish latency: <10ms for QoS 1 to local broker
//   - Reconnect: Exponential backoff 1s-60s with jitter
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Subscribe to all port commands
//	err = client.Subscribe(mqtt.Topics{}.AllPortCommands(), 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
//
//	// Publish a port event
//	topic := mqtt.Topics{}.PortEvent("port0")
//	client.Publish(topic, []byte(`{"event":"attached"}`), 1, false)
package mqtt
