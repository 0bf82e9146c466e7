// Package engine drives the sampling loop: it reads every configured line
// each tick, runs the debounce and quadrature state machines, diffs the
// resulting logical state against the previous tick, and emits one event per
// actual change on a bounded, non-blocking channel.
package engine

import (
	"context"
	"log/slog"
	"sort"
	"sync/atomic"
	"time"

	"github.com/fcc-lol/cyberdeck-25-firmware/internal/config"
	"github.com/fcc-lol/cyberdeck-25-firmware/internal/gpio"
	"github.com/fcc-lol/cyberdeck-25-firmware/internal/logic"
)

// lineInput is a debounced single-line input (key button or toggle switch).
type lineInput struct {
	id  string
	pin int
	raw logic.Level // last successfully read raw level
	deb *logic.Debouncer
}

// encoderInput is a quadrature encoder with an optional push button.
type encoderInput struct {
	id        int
	pinA      int
	pinB      int
	buttonPin int // -1 when the encoder has no button

	rawA      logic.Level
	rawB      logic.Level
	rawButton logic.Level

	debA      *logic.Debouncer
	debB      *logic.Debouncer
	debButton *logic.Debouncer
	dec       *logic.QuadratureDecoder
}

// Engine owns all decoder state and the snapshot pair. Tick and Run must only
// be called from a single goroutine; Snapshot and Events are safe from any.
type Engine struct {
	reader gpio.Reader
	logger *slog.Logger

	buttons  []*lineInput
	switches []*lineInput
	encoders []*encoderInput

	snap   logic.Snapshot
	shared atomic.Pointer[logic.Snapshot]

	events  chan logic.Event
	dropped atomic.Uint64
	pending []logic.Event
}

// New builds the engine from the configured topology. Initial line levels are
// read immediately so the first tick starts from the true physical state; a
// line that cannot be read at startup is assumed released.
func New(cfg config.Config, reader gpio.Reader, logger *slog.Logger) *Engine {
	e := &Engine{
		reader: reader,
		logger: logger.With("component", "engine"),
		snap:   logic.NewSnapshot(),
		events: make(chan logic.Event, cfg.Events.QueueSize),
	}

	readInitial := func(pin int) logic.Level {
		level, err := reader.Read(pin)
		if err != nil {
			e.logger.Warn("initial read failed, assuming released", "line", pin, "error", err)
			return logic.Released
		}
		return logic.Level(level)
	}

	for _, b := range cfg.Buttons {
		level := readInitial(b.Pin)
		e.buttons = append(e.buttons, &lineInput{
			id:  b.ID,
			pin: b.Pin,
			raw: level,
			deb: logic.NewDebouncer(cfg.Timing.Debounce(), level),
		})
		e.snap.Buttons[b.ID] = bool(level)
	}
	for _, s := range cfg.Switches {
		level := readInitial(s.Pin)
		e.switches = append(e.switches, &lineInput{
			id:  s.ID,
			pin: s.Pin,
			raw: level,
			deb: logic.NewDebouncer(cfg.Timing.Debounce(), level),
		})
		e.snap.Switches[s.ID] = bool(level)
	}
	for _, enc := range cfg.Encoders {
		a := readInitial(enc.PinA)
		b := readInitial(enc.PinB)
		in := &encoderInput{
			id:        enc.ID,
			pinA:      enc.PinA,
			pinB:      enc.PinB,
			buttonPin: -1,
			rawA:      a,
			rawB:      b,
			debA:      logic.NewDebouncer(cfg.Timing.EncoderDebounce(), a),
			debB:      logic.NewDebouncer(cfg.Timing.EncoderDebounce(), b),
			dec:       logic.NewQuadratureDecoder(a, b),
		}
		if enc.ButtonPin != nil {
			in.buttonPin = *enc.ButtonPin
			in.rawButton = readInitial(in.buttonPin)
			in.debButton = logic.NewDebouncer(cfg.Timing.EncoderButtonDebounce(), in.rawButton)
		}
		e.encoders = append(e.encoders, in)
		e.snap.Encoders[enc.ID] = 0
	}

	// Emission order within a tick is buttons, switches, encoders, each by
	// configured id, so event streams are reproducible.
	sort.Slice(e.buttons, func(i, j int) bool { return e.buttons[i].id < e.buttons[j].id })
	sort.Slice(e.switches, func(i, j int) bool { return e.switches[i].id < e.switches[j].id })
	sort.Slice(e.encoders, func(i, j int) bool { return e.encoders[i].id < e.encoders[j].id })

	e.publishSnapshot()
	return e
}

// Events returns the channel of emitted change events. The channel is closed
// when Run returns. The engine never blocks on it: when the queue is full the
// oldest event is dropped and the next snapshot self-heals consumers.
func (e *Engine) Events() <-chan logic.Event {
	return e.events
}

// Snapshot returns the logical state of every input as of the last completed
// tick.
func (e *Engine) Snapshot() logic.Snapshot {
	return e.shared.Load().Clone()
}

// Dropped returns the number of events discarded due to queue overflow.
func (e *Engine) Dropped() uint64 {
	return e.dropped.Load()
}

// Run executes the tick loop until the context is cancelled, then closes the
// event channel. The tick channel supplies the cadence; time.Ticker keeps it
// anchored to the monotonic clock so the loop does not drift.
func (e *Engine) Run(ctx context.Context, tick <-chan time.Time) {
	defer close(e.events)
	for {
		select {
		case <-ctx.Done():
			e.logger.Info("sampling loop stopped")
			return
		case now := <-tick:
			e.Tick(now)
		}
	}
}

// Tick runs one complete sampling pass at the given time. All decoding for
// the tick is sequenced before any event is emitted.
func (e *Engine) Tick(now time.Time) {
	e.pending = e.pending[:0]

	for _, b := range e.buttons {
		level, changed := e.sampleLine(b, now)
		if changed {
			e.snap.Buttons[b.id] = bool(level)
			e.pending = append(e.pending, logic.Event{
				Kind:   logic.EventKeyChange,
				Button: b.id,
				Active: bool(level),
				Time:   now,
			})
		}
	}

	for _, s := range e.switches {
		level, changed := e.sampleLine(s, now)
		if changed {
			e.snap.Switches[s.id] = bool(level)
			e.pending = append(e.pending, logic.Event{
				Kind:   logic.EventSwitchChange,
				Switch: s.id,
				Active: bool(level),
				Time:   now,
			})
		}
	}

	for _, enc := range e.encoders {
		e.sampleEncoder(enc, now)
	}

	e.snap.Time = now
	e.publishSnapshot()

	for _, ev := range e.pending {
		e.emit(ev)
	}
}

// sampleLine reads one line and runs its debouncer. A read failure holds the
// last known raw level for this tick so one faulty line cannot disturb the
// decoding of the others.
func (e *Engine) sampleLine(in *lineInput, now time.Time) (logic.Level, bool) {
	raw, err := e.reader.Read(in.pin)
	if err != nil {
		e.logger.Warn("line read failed, holding state", "line", in.pin, "input", in.id, "error", err)
	} else {
		in.raw = logic.Level(raw)
	}
	return in.deb.Sample(in.raw, now)
}

func (e *Engine) sampleEncoder(enc *encoderInput, now time.Time) {
	if raw, err := e.reader.Read(enc.pinA); err != nil {
		e.logger.Warn("line read failed, holding state", "line", enc.pinA, "encoder", enc.id, "error", err)
	} else {
		enc.rawA = logic.Level(raw)
	}
	if raw, err := e.reader.Read(enc.pinB); err != nil {
		e.logger.Warn("line read failed, holding state", "line", enc.pinB, "encoder", enc.id, "error", err)
	} else {
		enc.rawB = logic.Level(raw)
	}

	a, _ := enc.debA.Sample(enc.rawA, now)
	b, _ := enc.debB.Sample(enc.rawB, now)
	delta := enc.dec.Sample(a, b)

	pressed := false
	if enc.debButton != nil {
		if raw, err := e.reader.Read(enc.buttonPin); err != nil {
			e.logger.Warn("line read failed, holding state", "line", enc.buttonPin, "encoder", enc.id, "error", err)
		} else {
			enc.rawButton = logic.Level(raw)
		}
		level, changed := enc.debButton.Sample(enc.rawButton, now)
		if changed && level == logic.Asserted {
			// Reset is atomic with the press event: both happen inside this
			// tick, before any event for the tick is emitted.
			pressed = true
			enc.dec.Reset()
		}
	}

	if pos := enc.dec.Position(); pos != e.snap.Encoders[enc.id] {
		diff := pos - e.snap.Encoders[enc.id]
		dir := logic.DirectionOf(diff)
		if delta != 0 && !pressed {
			dir = logic.DirectionOf(delta)
		}
		e.snap.Encoders[enc.id] = pos
		e.pending = append(e.pending, logic.Event{
			Kind:      logic.EventEncoderChange,
			Encoder:   enc.id,
			Value:     pos,
			Direction: dir,
			Time:      now,
		})
	}

	if pressed {
		e.pending = append(e.pending, logic.Event{
			Kind:    logic.EventEncoderButton,
			Encoder: enc.id,
			Time:    now,
		})
	}
}

func (e *Engine) publishSnapshot() {
	snap := e.snap.Clone()
	e.shared.Store(&snap)
}

// emit enqueues without ever blocking the tick loop. On overflow the oldest
// queued event is dropped; internal state stays correct, so downstream
// consumers recover from the next events or snapshot.
func (e *Engine) emit(ev logic.Event) {
	select {
	case e.events <- ev:
		return
	default:
	}

	select {
	case <-e.events:
		e.dropped.Add(1)
	default:
	}

	select {
	case e.events <- ev:
	default:
		e.dropped.Add(1)
	}
}
