package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string      `json:"event,omitempty"`
	Reason        string      `json:"reason,omitempty"`
	Inputs        InputsJSON  `json:"inputs"`
	UptimeSeconds int64       `json:"uptime_seconds"`
	StartTime     string      `json:"start_time"`
	Timestamp     string      `json:"timestamp"`
	MQTT          MQTTStatus  `json:"mqtt"`
	WebSocket     WSStatus    `json:"websocket"`
	Counts        CountsJSON  `json:"event_counts"`
	DroppedEvents uint64      `json:"dropped_events"`
	Config        ConfigJSON  `json:"config"`
}

// InputsJSON is the JSON representation of the current input state.
type InputsJSON struct {
	Buttons  map[string]bool `json:"buttons"`
	Switches map[string]bool `json:"switches"`
	Encoders map[int]int     `json:"encoders"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker,omitempty"`
}

// WSStatus reports WebSocket subscriber state.
type WSStatus struct {
	Clients int `json:"clients"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	KeyChanges     int `json:"key_changes"`
	SwitchChanges  int `json:"switch_changes"`
	EncoderSteps   int `json:"encoder_steps"`
	EncoderButtons int `json:"encoder_buttons"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollUS                  int    `json:"poll_us"`
	DebounceMS              int    `json:"debounce_ms"`
	EncoderDebounceUS       int    `json:"encoder_debounce_us"`
	EncoderButtonDebounceMS int    `json:"encoder_button_debounce_ms"`
	Broker                  string `json:"broker,omitempty"`
	HTTPAddr                string `json:"http_addr"`
}

func buildInner(snap Snapshot) StatusInner {
	return StatusInner{
		Inputs: InputsJSON{
			Buttons:  snap.Inputs.Buttons,
			Switches: snap.Inputs.Switches,
			Encoders: snap.Inputs.Encoders,
		},
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		WebSocket:     WSStatus{Clients: snap.WSClients},
		Counts: CountsJSON{
			KeyChanges:     snap.Counts.Keys,
			SwitchChanges:  snap.Counts.Switches,
			EncoderSteps:   snap.Counts.EncoderSteps,
			EncoderButtons: snap.Counts.EncoderButtons,
		},
		DroppedEvents: snap.DroppedEvents,
		Config: ConfigJSON{
			PollUS:                  snap.Config.PollUS,
			DebounceMS:              snap.Config.DebounceMS,
			EncoderDebounceUS:       snap.Config.EncoderDebounceUS,
			EncoderButtonDebounceMS: snap.Config.EncoderButtonDebounceMS,
			Broker:                  snap.Config.Broker,
			HTTPAddr:                snap.Config.HTTPAddr,
		},
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
