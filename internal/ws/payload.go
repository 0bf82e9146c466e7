package ws

import (
	"encoding/json"
	"fmt"

	"github.com/fcc-lol/cyberdeck-25-firmware/internal/logic"
)

// message is the wire envelope: every frame names its event and carries the
// event-specific data object.
type message struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type keyChangeData struct {
	Active    bool    `json:"active"`
	Timestamp float64 `json:"timestamp"`
}

type switchChangeData struct {
	Switch    string  `json:"switch"`
	Active    bool    `json:"active"`
	Timestamp float64 `json:"timestamp"`
}

type encoderChangeData struct {
	EncoderID int     `json:"encoder_id"`
	Value     int     `json:"value"`
	Direction string  `json:"direction"`
	Timestamp float64 `json:"timestamp"`
}

type encoderButtonData struct {
	EncoderID int     `json:"encoder_id"`
	Timestamp float64 `json:"timestamp"`
}

type activeState struct {
	Active bool `json:"active"`
}

type initialStateData struct {
	Buttons   map[string]activeState `json:"buttons"`
	Switches  map[string]activeState `json:"switches"`
	Encoders  map[int]int            `json:"encoders"`
	Timestamp float64                `json:"timestamp"`
}

// marshalEvent encodes a change event as a wire frame.
func marshalEvent(ev logic.Event) ([]byte, error) {
	ts := logic.Timestamp(ev.Time)

	var data any
	switch ev.Kind {
	case logic.EventKeyChange:
		data = keyChangeData{Active: ev.Active, Timestamp: ts}
	case logic.EventSwitchChange:
		data = switchChangeData{Switch: ev.Switch, Active: ev.Active, Timestamp: ts}
	case logic.EventEncoderChange:
		data = encoderChangeData{
			EncoderID: ev.Encoder,
			Value:     ev.Value,
			Direction: string(ev.Direction),
			Timestamp: ts,
		}
	case logic.EventEncoderButton:
		data = encoderButtonData{EncoderID: ev.Encoder, Timestamp: ts}
	default:
		return nil, fmt.Errorf("unknown event kind %q", ev.Kind)
	}

	return json.Marshal(message{Event: string(ev.Kind), Data: data})
}

// marshalInitialState encodes the full-state frame sent to every client on
// connect.
func marshalInitialState(snap logic.Snapshot) ([]byte, error) {
	data := initialStateData{
		Buttons:   make(map[string]activeState, len(snap.Buttons)),
		Switches:  make(map[string]activeState, len(snap.Switches)),
		Encoders:  snap.Encoders,
		Timestamp: logic.Timestamp(snap.Time),
	}
	for id, active := range snap.Buttons {
		data.Buttons[id] = activeState{Active: active}
	}
	for id, active := range snap.Switches {
		data.Switches[id] = activeState{Active: active}
	}

	return json.Marshal(message{Event: "initial_state", Data: data})
}
