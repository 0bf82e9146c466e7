// Package logic contains pure decoding logic for the input engine.
// This package has NO external dependencies (no GPIO, websockets, OS, or
// time.Sleep). Time is always injectable via time.Time parameters.
package logic

import "time"

// Level is the logical state of an input line. Polarity is normalized at the
// gpio boundary, so Asserted always means "physically actuated" regardless of
// electrical wiring.
type Level bool

const (
	Released Level = false
	Asserted Level = true
)

// String returns a log-friendly representation.
func (l Level) String() string {
	if l == Asserted {
		return "ASSERTED"
	}
	return "RELEASED"
}

// Direction labels the rotation sense of an encoder step.
type Direction string

const (
	DirRight Direction = "right" // clockwise, position increasing
	DirLeft  Direction = "left"  // counter-clockwise, position decreasing
)

// DirectionOf maps a position delta to its direction label.
func DirectionOf(delta int) Direction {
	if delta < 0 {
		return DirLeft
	}
	return DirRight
}

// EventKind identifies the type of a change event. The values are the wire
// event names understood by connected clients.
type EventKind string

const (
	EventKeyChange     EventKind = "key_change"
	EventSwitchChange  EventKind = "switch_change"
	EventEncoderChange EventKind = "encoder_change"
	EventEncoderButton EventKind = "encoder_button_press"
)

// Event is a single decoded input change. Which fields are meaningful depends
// on Kind: key_change uses Active; switch_change uses Switch and Active;
// encoder_change uses Encoder, Value and Direction; encoder_button_press uses
// Encoder only.
type Event struct {
	Kind      EventKind
	Button    string
	Switch    string
	Encoder   int
	Active    bool
	Value     int
	Direction Direction
	Time      time.Time
}

// Snapshot is the complete logical state of every configured input at one
// tick boundary. It is a value type; Clone before sharing across goroutines.
type Snapshot struct {
	Buttons  map[string]bool
	Switches map[string]bool
	Encoders map[int]int
	Time     time.Time
}

// NewSnapshot allocates an empty snapshot.
func NewSnapshot() Snapshot {
	return Snapshot{
		Buttons:  make(map[string]bool),
		Switches: make(map[string]bool),
		Encoders: make(map[int]int),
	}
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	c := Snapshot{
		Buttons:  make(map[string]bool, len(s.Buttons)),
		Switches: make(map[string]bool, len(s.Switches)),
		Encoders: make(map[int]int, len(s.Encoders)),
		Time:     s.Time,
	}
	for k, v := range s.Buttons {
		c.Buttons[k] = v
	}
	for k, v := range s.Switches {
		c.Switches[k] = v
	}
	for k, v := range s.Encoders {
		c.Encoders[k] = v
	}
	return c
}

// Timestamp converts a time to seconds since epoch with sub-second precision,
// the representation used on the wire.
func Timestamp(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
