// Package status provides a thread-safe status tracker for the firmware
// daemon. It is read by HTTP handlers and serialized into MQTT system
// events.
package status

import (
	"sync"
	"time"

	"github.com/fcc-lol/cyberdeck-25-firmware/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	PollUS                  int
	DebounceMS              int
	EncoderDebounceUS       int
	EncoderButtonDebounceMS int
	Broker                  string
	HTTPAddr                string
}

// Counts tracks emitted events per kind since startup.
type Counts struct {
	Keys           int
	Switches       int
	EncoderSteps   int
	EncoderButtons int
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	Inputs        logic.Snapshot
	Counts        Counts
	DroppedEvents uint64
	WSClients     int
	MQTTConnected bool
	StartTime     time.Time
	Now           time.Time
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex. It is written by
// the event dispatcher, never by the sampling loop.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
			Inputs:    logic.NewSnapshot(),
		},
	}
}

// RecordEvent counts a dispatched event and remembers its effect on the
// displayed input state.
func (t *Tracker) RecordEvent(ev logic.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch ev.Kind {
	case logic.EventKeyChange:
		t.snap.Counts.Keys++
		t.snap.Inputs.Buttons[ev.Button] = ev.Active
	case logic.EventSwitchChange:
		t.snap.Counts.Switches++
		t.snap.Inputs.Switches[ev.Switch] = ev.Active
	case logic.EventEncoderChange:
		t.snap.Counts.EncoderSteps++
		t.snap.Inputs.Encoders[ev.Encoder] = ev.Value
	case logic.EventEncoderButton:
		t.snap.Counts.EncoderButtons++
	}
	t.snap.Inputs.Time = ev.Time
}

// UpdateInputs replaces the displayed input state wholesale, used at startup
// and on snapshot refreshes.
func (t *Tracker) UpdateInputs(inputs logic.Snapshot) {
	t.mu.Lock()
	t.snap.Inputs = inputs
	t.mu.Unlock()
}

// SetDropped records the engine's dropped-event counter.
func (t *Tracker) SetDropped(n uint64) {
	t.mu.Lock()
	t.snap.DroppedEvents = n
	t.mu.Unlock()
}

// SetWSClients records the number of connected WebSocket clients.
func (t *Tracker) SetWSClients(n int) {
	t.mu.Lock()
	t.snap.WSClients = n
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	s.Inputs = t.snap.Inputs.Clone()
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
