// Package config loads and validates the daemon configuration.
// All configuration is YAML; the built-in defaults reproduce the wiring of
// the cyberdeck control panel, so the daemon runs with no config file at all.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	Chip     string          `yaml:"chip"`
	Buttons  []ButtonConfig  `yaml:"buttons"`
	Switches []SwitchConfig  `yaml:"switches"`
	Encoders []EncoderConfig `yaml:"encoders"`
	Timing   TimingConfig    `yaml:"timing"`
	Events   EventsConfig    `yaml:"events"`
	HTTP     HTTPConfig      `yaml:"http"`
	MQTT     MQTTConfig      `yaml:"mqtt"`
	Logging  LoggingConfig   `yaml:"logging"`
}

// ButtonConfig describes a standalone momentary button.
type ButtonConfig struct {
	ID  string `yaml:"id"`
	Pin int    `yaml:"pin"`
}

// SwitchConfig describes a toggle switch. Engine-side it behaves exactly
// like a button; only consumers interpret it as a latched state.
type SwitchConfig struct {
	ID  string `yaml:"id"`
	Pin int    `yaml:"pin"`
}

// EncoderConfig describes a quadrature rotary encoder. ButtonPin is nil for
// encoders without a push button; those never reset their position.
type EncoderConfig struct {
	ID        int  `yaml:"id"`
	PinA      int  `yaml:"pin_a"`
	PinB      int  `yaml:"pin_b"`
	ButtonPin *int `yaml:"button_pin"`
}

// TimingConfig contains sampling and debounce timings. Units are in the
// field names; zero values fall back to defaults at load time.
type TimingConfig struct {
	PollUS                  int `yaml:"poll_us"`
	DebounceMS              int `yaml:"debounce_ms"`
	EncoderDebounceUS       int `yaml:"encoder_debounce_us"`
	EncoderButtonDebounceMS int `yaml:"encoder_button_debounce_ms"`
}

// Poll returns the sampling interval.
func (t TimingConfig) Poll() time.Duration {
	return time.Duration(t.PollUS) * time.Microsecond
}

// Debounce returns the window for switches and standalone buttons.
func (t TimingConfig) Debounce() time.Duration {
	return time.Duration(t.DebounceMS) * time.Millisecond
}

// EncoderDebounce returns the window for encoder phase lines. It is much
// shorter than the switch window; a long window would swallow fast rotation.
func (t TimingConfig) EncoderDebounce() time.Duration {
	return time.Duration(t.EncoderDebounceUS) * time.Microsecond
}

// EncoderButtonDebounce returns the window for encoder push buttons.
func (t TimingConfig) EncoderButtonDebounce() time.Duration {
	return time.Duration(t.EncoderButtonDebounceMS) * time.Millisecond
}

// EventsConfig contains event delivery settings.
type EventsConfig struct {
	// QueueSize bounds the engine's outbound event queue. On overflow the
	// oldest event is dropped; the next snapshot self-heals consumers.
	QueueSize int `yaml:"queue_size"`
}

// HTTPConfig contains the HTTP/WebSocket server settings.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// MQTTConfig contains MQTT broker settings. An empty broker disables MQTT.
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Default returns the configuration for the control panel wiring:
// one key button, three colored toggle switches, four rotary encoders
// (the fourth has no push button).
func Default() Config {
	btn := func(pin int) *int { return &pin }
	return Config{
		Chip: "gpiochip0",
		Buttons: []ButtonConfig{
			{ID: "key", Pin: 2},
		},
		Switches: []SwitchConfig{
			{ID: "green", Pin: 18},
			{ID: "blue", Pin: 20},
			{ID: "red", Pin: 21},
		},
		Encoders: []EncoderConfig{
			{ID: 1, PinA: 5, PinB: 6, ButtonPin: btn(26)},
			{ID: 2, PinA: 27, PinB: 22, ButtonPin: btn(13)},
			{ID: 3, PinA: 4, PinB: 17, ButtonPin: btn(19)},
			{ID: 4, PinA: 23, PinB: 24},
		},
		Timing: TimingConfig{
			PollUS:                  500,
			DebounceMS:              25,
			EncoderDebounceUS:       1000,
			EncoderButtonDebounceMS: 200,
		},
		Events: EventsConfig{QueueSize: 256},
		HTTP:   HTTPConfig{Addr: ":5000"},
		MQTT:   MQTTConfig{ClientID: "cyberdeck-firmware"},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// Load reads the configuration from path, layered over the defaults. An
// empty path returns the defaults unchanged. The result is validated; an
// invalid topology is a startup failure, never a runtime one.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks the topology and timings for consistency.
func (c Config) Validate() error {
	if c.Chip == "" {
		return fmt.Errorf("chip must be set")
	}

	buttonIDs := make(map[string]bool)
	for _, b := range c.Buttons {
		if b.ID == "" {
			return fmt.Errorf("button with empty id")
		}
		if buttonIDs[b.ID] {
			return fmt.Errorf("duplicate button id %q", b.ID)
		}
		buttonIDs[b.ID] = true
	}

	switchIDs := make(map[string]bool)
	for _, s := range c.Switches {
		if s.ID == "" {
			return fmt.Errorf("switch with empty id")
		}
		if switchIDs[s.ID] {
			return fmt.Errorf("duplicate switch id %q", s.ID)
		}
		switchIDs[s.ID] = true
	}

	encoderIDs := make(map[int]bool)
	for _, e := range c.Encoders {
		if encoderIDs[e.ID] {
			return fmt.Errorf("duplicate encoder id %d", e.ID)
		}
		encoderIDs[e.ID] = true
	}

	pins := make(map[int]string)
	claim := func(pin int, owner string) error {
		if prev, taken := pins[pin]; taken {
			return fmt.Errorf("pin %d assigned to both %s and %s", pin, prev, owner)
		}
		pins[pin] = owner
		return nil
	}
	for _, b := range c.Buttons {
		if err := claim(b.Pin, fmt.Sprintf("button %q", b.ID)); err != nil {
			return err
		}
	}
	for _, s := range c.Switches {
		if err := claim(s.Pin, fmt.Sprintf("switch %q", s.ID)); err != nil {
			return err
		}
	}
	for _, e := range c.Encoders {
		owner := fmt.Sprintf("encoder %d", e.ID)
		if err := claim(e.PinA, owner); err != nil {
			return err
		}
		if err := claim(e.PinB, owner); err != nil {
			return err
		}
		if e.ButtonPin != nil {
			if err := claim(*e.ButtonPin, owner); err != nil {
				return err
			}
		}
	}

	if c.Timing.PollUS <= 0 {
		return fmt.Errorf("timing.poll_us must be positive")
	}
	if c.Timing.DebounceMS <= 0 {
		return fmt.Errorf("timing.debounce_ms must be positive")
	}
	if c.Timing.EncoderDebounceUS <= 0 {
		return fmt.Errorf("timing.encoder_debounce_us must be positive")
	}
	if c.Timing.EncoderButtonDebounceMS <= 0 {
		return fmt.Errorf("timing.encoder_button_debounce_ms must be positive")
	}
	if c.Events.QueueSize <= 0 {
		return fmt.Errorf("events.queue_size must be positive")
	}

	return nil
}

// Pins returns every configured line offset, for requesting from the chip.
func (c Config) Pins() []int {
	var pins []int
	for _, b := range c.Buttons {
		pins = append(pins, b.Pin)
	}
	for _, s := range c.Switches {
		pins = append(pins, s.Pin)
	}
	for _, e := range c.Encoders {
		pins = append(pins, e.PinA, e.PinB)
		if e.ButtonPin != nil {
			pins = append(pins, *e.ButtonPin)
		}
	}
	return pins
}
