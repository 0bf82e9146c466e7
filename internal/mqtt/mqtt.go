// Package mqtt publishes input events to an MQTT broker, with abstraction
// for testing. MQTT is a secondary sink beside the WebSocket hub: other
// machines on the network subscribe to the panel without holding a socket
// to the daemon.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/fcc-lol/cyberdeck-25-firmware/internal/logic"
)

// Topic is the MQTT topic for input change events.
const Topic = "cyberdeck/inputs/events"

// TopicSystem is the MQTT topic for daemon lifecycle events.
const TopicSystem = "cyberdeck/inputs/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends an input change event to the broker.
	// Returns error if publishing fails (must not crash the process).
	Publish(event logic.Event) error

	// PublishSystem sends a daemon lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a daemon lifecycle event (startup, shutdown,
// heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g. "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g. "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the broker should retain the message
}

// Payload is the MQTT message envelope for input events.
type Payload struct {
	Input InputPayload `json:"input"`
}

// InputPayload carries one input change. Optional fields appear only for
// the event kinds that use them, mirroring the WebSocket frames.
type InputPayload struct {
	Event     string  `json:"event"`
	Timestamp float64 `json:"timestamp"`
	Switch    string  `json:"switch,omitempty"`
	Active    *bool   `json:"active,omitempty"`
	EncoderID *int    `json:"encoder_id,omitempty"`
	Value     *int    `json:"value,omitempty"`
	Direction string  `json:"direction,omitempty"`
}

// FormatPayload creates the JSON payload for an input event.
func FormatPayload(event logic.Event) ([]byte, error) {
	p := InputPayload{
		Event:     string(event.Kind),
		Timestamp: logic.Timestamp(event.Time),
	}

	active := event.Active
	encoderID := event.Encoder
	value := event.Value

	switch event.Kind {
	case logic.EventKeyChange:
		p.Active = &active
	case logic.EventSwitchChange:
		p.Switch = event.Switch
		p.Active = &active
	case logic.EventEncoderChange:
		p.EncoderID = &encoderID
		p.Value = &value
		p.Direction = string(event.Direction)
	case logic.EventEncoderButton:
		p.EncoderID = &encoderID
	}

	return json.Marshal(Payload{Input: p})
}

// SystemPayload is the MQTT message envelope for simple system events that
// do not carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status
// snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
