package mqtt

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/fcc-lol/cyberdeck-25-firmware/internal/logic"
)

// backlogCapacity bounds the number of messages buffered while the broker
// is unreachable.
const backlogCapacity = 512

// RealPublisher publishes to an actual MQTT broker. While disconnected it
// buffers messages and replays them on reconnect.
type RealPublisher struct {
	client paho.Client
	logger *slog.Logger

	mu      sync.Mutex
	pending *backlog
}

// NewRealPublisher creates a publisher connected to the given broker. The
// paho client reconnects on its own; publishing while disconnected goes to
// the backlog instead of failing.
func NewRealPublisher(broker, clientID string, logger *slog.Logger) (*RealPublisher, error) {
	p := &RealPublisher{
		logger:  logger.With("component", "mqtt"),
		pending: newBacklog(backlogCapacity),
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(func(paho.Client) {
			p.replayBacklog()
		}).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			p.logger.Warn("broker connection lost", "error", err)
		})

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	p.client = client
	return p, nil
}

// Publish sends an input change event to the broker, or buffers it while
// disconnected.
func (p *RealPublisher) Publish(event logic.Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	// QoS 0 (at-most-once): input events are high-rate and self-healing.
	return p.send(Topic, payload, 0, false)
}

// PublishSystem sends a daemon lifecycle event to the broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	// QoS 1 (at-least-once): lifecycle events are rare and worth delivering.
	return p.send(TopicSystem, payload, 1, event.Retained)
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client != nil && p.client.IsConnected()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}

func (p *RealPublisher) send(topic string, payload []byte, qos byte, retained bool) error {
	if !p.client.IsConnected() {
		p.mu.Lock()
		p.pending.push(pendingMsg{topic: topic, payload: payload, qos: qos, retained: retained})
		n := p.pending.len()
		p.mu.Unlock()
		p.logger.Debug("broker down, message buffered", "topic", topic, "pending", n)
		return nil
	}

	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// replayBacklog publishes everything buffered while disconnected.
func (p *RealPublisher) replayBacklog() {
	p.mu.Lock()
	msgs, dropped := p.pending.drainAll()
	p.mu.Unlock()

	if dropped > 0 {
		p.logger.Warn("backlog overflowed while disconnected", "dropped", dropped)
	}
	if len(msgs) == 0 {
		p.logger.Info("connected to broker")
		return
	}

	p.logger.Info("connected to broker, replaying backlog", "messages", len(msgs))
	for _, m := range msgs {
		token := p.client.Publish(m.topic, m.qos, m.retained, m.payload)
		if !token.WaitTimeout(5 * time.Second) {
			p.logger.Warn("backlog replay timeout", "topic", m.topic)
			return
		}
		if err := token.Error(); err != nil {
			p.logger.Warn("backlog replay failed", "topic", m.topic, "error", err)
			return
		}
	}
}
