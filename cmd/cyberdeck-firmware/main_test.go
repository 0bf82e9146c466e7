package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/fcc-lol/cyberdeck-25-firmware/internal/logic"
	"github.com/fcc-lol/cyberdeck-25-firmware/internal/mqtt"
	"github.com/fcc-lol/cyberdeck-25-firmware/internal/status"
	"github.com/fcc-lol/cyberdeck-25-firmware/internal/ws"
)

func TestSignalName(t *testing.T) {
	tests := []struct {
		sig  os.Signal
		want string
	}{
		{syscall.SIGINT, "SIGINT"},
		{syscall.SIGTERM, "SIGTERM"},
		{syscall.SIGHUP, "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := signalName(tt.sig); got != tt.want {
			t.Errorf("signalName(%v): got %q, want %q", tt.sig, got, tt.want)
		}
	}
}

// --- runLoop tests ---

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeClock returns a function that yields start, start+step, start+2*step, ...
// on successive calls.
func fakeClock(start time.Time, step time.Duration) func() time.Time {
	n := 0
	return func() time.Time {
		t := start.Add(time.Duration(n) * step)
		n++
		return t
	}
}

func testTracker() *status.Tracker {
	return status.NewTracker(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), status.Config{
		PollUS:     500,
		DebounceMS: 25,
		Broker:     "tcp://localhost:1883",
		HTTPAddr:   ":5000",
	})
}

type loopHarness struct {
	events  chan logic.Event
	sig     chan os.Signal
	hb      chan time.Time
	pub     *mqtt.FakePublisher
	hub     *ws.Hub
	tracker *status.Tracker
	errCh   chan error
}

// startLoop runs runLoop in a goroutine and returns channels to drive it.
func startLoop(t *testing.T, pub *mqtt.FakePublisher) *loopHarness {
	t.Helper()

	h := &loopHarness{
		events:  make(chan logic.Event),
		sig:     make(chan os.Signal, 1),
		hb:      make(chan time.Time),
		pub:     pub,
		hub:     ws.NewHub(quietLogger(), logic.NewSnapshot),
		tracker: testTracker(),
		errCh:   make(chan error, 1),
	}
	t.Cleanup(func() { h.hub.Close() })

	var publisher mqtt.Publisher
	var connStatus mqtt.ConnectionStatus
	if pub != nil {
		publisher = pub
		connStatus = pub
	}

	clock := fakeClock(time.Date(2026, 1, 1, 0, 0, 1, 0, time.UTC), 100*time.Millisecond)
	go func() {
		h.errCh <- runLoop(h.events, h.hub, publisher, connStatus, h.tracker, func() uint64 { return 3 }, h.hb, clock, h.sig, quietLogger())
	}()
	return h
}

// stop sends the signal and waits for runLoop to return.
func (h *loopHarness) stop(t *testing.T, sig os.Signal) {
	t.Helper()
	h.sig <- sig
	select {
	case err := <-h.errCh:
		if err != nil {
			t.Fatalf("runLoop returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("runLoop did not return after signal")
	}
}

func TestRunLoopDispatchesEvents(t *testing.T) {
	pub := mqtt.NewFakePublisher()
	pub.Connected = true
	h := startLoop(t, pub)

	now := time.Date(2026, 1, 1, 0, 0, 2, 0, time.UTC)
	h.events <- logic.Event{Kind: logic.EventSwitchChange, Switch: "green", Active: true, Time: now}
	h.events <- logic.Event{Kind: logic.EventEncoderChange, Encoder: 2, Value: 5, Direction: logic.DirRight, Time: now}
	h.events <- logic.Event{Kind: logic.EventKeyChange, Active: false, Time: now}

	h.stop(t, syscall.SIGTERM)

	if len(pub.Events) != 3 {
		t.Fatalf("expected 3 published events, got %d", len(pub.Events))
	}
	wantKinds := []logic.EventKind{logic.EventSwitchChange, logic.EventEncoderChange, logic.EventKeyChange}
	for i, want := range wantKinds {
		if pub.Events[i].Kind != want {
			t.Errorf("event %d: got %s, want %s", i, pub.Events[i].Kind, want)
		}
	}

	snap := h.tracker.Snapshot()
	if snap.Counts.Switches != 1 {
		t.Errorf("Counts.Switches: got %d, want 1", snap.Counts.Switches)
	}
	if snap.Counts.EncoderSteps != 1 {
		t.Errorf("Counts.EncoderSteps: got %d, want 1", snap.Counts.EncoderSteps)
	}
	if snap.Counts.Keys != 1 {
		t.Errorf("Counts.Keys: got %d, want 1", snap.Counts.Keys)
	}
	if snap.DroppedEvents != 3 {
		t.Errorf("DroppedEvents: got %d, want 3", snap.DroppedEvents)
	}
	if !snap.MQTTConnected {
		t.Error("expected MQTTConnected after dispatching events")
	}
	if got := snap.Inputs.Switches["green"]; !got {
		t.Error("expected green switch active in tracker inputs")
	}
	if got := snap.Inputs.Encoders[2]; got != 5 {
		t.Errorf("encoder 2 value: got %d, want 5", got)
	}
}

func TestRunLoopShutdownEvent(t *testing.T) {
	pub := mqtt.NewFakePublisher()
	h := startLoop(t, pub)
	h.stop(t, syscall.SIGINT)

	if len(pub.SystemEvents) != 1 {
		t.Fatalf("expected 1 system event, got %d", len(pub.SystemEvents))
	}
	se := pub.SystemEvents[0]
	if se.Event != "SHUTDOWN" {
		t.Errorf("expected SHUTDOWN, got %q", se.Event)
	}
	if se.Reason != "SIGINT" {
		t.Errorf("expected reason SIGINT, got %q", se.Reason)
	}
	if !se.Retained {
		t.Error("expected Retained=true for SHUTDOWN")
	}
	if len(se.RawPayload) == 0 {
		t.Error("expected SHUTDOWN to carry a status payload")
	}
}

func TestRunLoopHeartbeat(t *testing.T) {
	pub := mqtt.NewFakePublisher()
	h := startLoop(t, pub)

	h.hb <- time.Date(2026, 1, 1, 0, 15, 0, 0, time.UTC)
	h.stop(t, syscall.SIGTERM)

	var heartbeats int
	for _, se := range pub.SystemEvents {
		if se.Event == "HEARTBEAT" {
			heartbeats++
			if len(se.RawPayload) == 0 {
				t.Error("expected HEARTBEAT to carry a status payload")
			}
			if se.Retained {
				t.Error("expected Retained=false for HEARTBEAT")
			}
		}
	}
	if heartbeats != 1 {
		t.Errorf("expected 1 HEARTBEAT event, got %d", heartbeats)
	}
}

func TestRunLoopPublishError(t *testing.T) {
	pub := mqtt.NewFakePublisher()
	pub.PublishError = fmt.Errorf("broker unavailable")
	h := startLoop(t, pub)

	h.events <- logic.Event{Kind: logic.EventSwitchChange, Switch: "red", Active: true, Time: time.Now()}
	h.stop(t, syscall.SIGTERM)

	// Publish failed so nothing was recorded, but the loop kept going and
	// the tracker still counted the event.
	if len(pub.Events) != 0 {
		t.Errorf("expected 0 recorded events, got %d", len(pub.Events))
	}
	if got := h.tracker.Snapshot().Counts.Switches; got != 1 {
		t.Errorf("Counts.Switches: got %d, want 1", got)
	}

	found := false
	for _, se := range pub.SystemEvents {
		if se.Event == "SHUTDOWN" {
			found = true
		}
	}
	if !found {
		t.Error("expected SHUTDOWN system event despite publish errors")
	}
}

func TestRunLoopNilPublisher(t *testing.T) {
	h := startLoop(t, nil)

	h.events <- logic.Event{Kind: logic.EventKeyChange, Active: true, Time: time.Now()}
	h.hb <- time.Now()
	h.stop(t, syscall.SIGTERM)

	if got := h.tracker.Snapshot().Counts.Keys; got != 1 {
		t.Errorf("Counts.Keys: got %d, want 1", got)
	}
}

func TestRunLoopStopsOnChannelClose(t *testing.T) {
	pub := mqtt.NewFakePublisher()
	h := startLoop(t, pub)

	close(h.events)
	select {
	case err := <-h.errCh:
		if err != nil {
			t.Fatalf("runLoop returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("runLoop did not return after channel close")
	}

	// No signal arrived, so no SHUTDOWN event.
	if len(pub.SystemEvents) != 0 {
		t.Errorf("expected 0 system events, got %d", len(pub.SystemEvents))
	}
}
