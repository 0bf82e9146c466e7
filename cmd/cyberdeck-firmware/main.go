// Command cyberdeck-firmware samples the control panel's GPIO inputs and
// publishes change events to WebSocket subscribers and MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/fcc-lol/cyberdeck-25-firmware/internal/config"
	"github.com/fcc-lol/cyberdeck-25-firmware/internal/engine"
	"github.com/fcc-lol/cyberdeck-25-firmware/internal/gpio"
	"github.com/fcc-lol/cyberdeck-25-firmware/internal/logging"
	"github.com/fcc-lol/cyberdeck-25-firmware/internal/logic"
	"github.com/fcc-lol/cyberdeck-25-firmware/internal/mqtt"
	"github.com/fcc-lol/cyberdeck-25-firmware/internal/status"
	"github.com/fcc-lol/cyberdeck-25-firmware/internal/web"
	"github.com/fcc-lol/cyberdeck-25-firmware/internal/ws"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config (empty uses the built-in panel topology)")
	httpAddr := flag.String("http", "", "HTTP/WebSocket listen address (overrides config)")
	broker := flag.String("broker", "", "MQTT broker address (overrides config; empty in both disables MQTT)")
	heartbeat := flag.Duration("heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
	printState := flag.Bool("print-state", false, "Print current input state and exit")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
	if *httpAddr != "" {
		cfg.HTTP.Addr = *httpAddr
	}
	if *broker != "" {
		cfg.MQTT.Broker = *broker
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	logger := logging.New(cfg.Logging)

	if err := run(cfg, *heartbeat, *printState, logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, heartbeat time.Duration, printState bool, logger *slog.Logger) error {
	reader, err := gpio.NewRealReader(cfg.Chip, cfg.Pins())
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer reader.Close()

	if printState {
		return printCurrentState(cfg, reader)
	}

	eng := engine.New(cfg, reader, logger)

	tracker := status.NewTracker(time.Now(), status.Config{
		PollUS:                  cfg.Timing.PollUS,
		DebounceMS:              cfg.Timing.DebounceMS,
		EncoderDebounceUS:       cfg.Timing.EncoderDebounceUS,
		EncoderButtonDebounceMS: cfg.Timing.EncoderButtonDebounceMS,
		Broker:                  cfg.MQTT.Broker,
		HTTPAddr:                cfg.HTTP.Addr,
	})
	tracker.UpdateInputs(eng.Snapshot())

	var publisher mqtt.Publisher
	var mqttStatus mqtt.ConnectionStatus
	if cfg.MQTT.Broker != "" {
		real, err := mqtt.NewRealPublisher(cfg.MQTT.Broker, cfg.MQTT.ClientID, logger)
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		defer real.Close()
		publisher = real
		mqttStatus = real
	}

	hub := ws.NewHub(logger, eng.Snapshot)
	defer hub.Close()

	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker, hub)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("http server error", "error", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		logger.Info("http server listening", "addr", cfg.HTTP.Addr)
	}

	if publisher != nil {
		snap := tracker.Snapshot()
		startup := mqtt.SystemEvent{
			Timestamp:  snap.Now,
			Event:      "STARTUP",
			Retained:   true,
			RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
		}
		if err := publisher.PublishSystem(startup); err != nil {
			logger.Warn("failed to publish startup event", "error", err)
		}
	}

	logger.Info("started",
		"poll", cfg.Timing.Poll(),
		"debounce", cfg.Timing.Debounce(),
		"broker", cfg.MQTT.Broker,
		"heartbeat", heartbeat,
		"inputs", len(cfg.Buttons)+len(cfg.Switches)+len(cfg.Encoders))

	ticker := time.NewTicker(cfg.Timing.Poll())
	defer ticker.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go eng.Run(ctx, ticker.C)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var hbC <-chan time.Time
	if heartbeat > 0 {
		hb := time.NewTicker(heartbeat)
		defer hb.Stop()
		hbC = hb.C
	}

	return runLoop(eng.Events(), hub, publisher, mqttStatus, tracker, eng.Dropped, hbC, time.Now, sigCh, logger)
}

// runLoop dispatches engine events to the sinks until a shutdown signal
// arrives or the event channel closes. The sampling loop itself runs
// elsewhere; nothing here can stall it.
func runLoop(events <-chan logic.Event, hub *ws.Hub, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, dropped func() uint64, hbC <-chan time.Time, now func() time.Time, sig <-chan os.Signal, logger *slog.Logger) error {
	for {
		select {
		case s := <-sig:
			logger.Info("shutting down", "signal", s)
			if publisher != nil {
				name := signalName(s)
				refreshTracker(tracker, hub, mqttStatus, dropped)
				snap := tracker.Snapshot()
				event := mqtt.SystemEvent{
					Timestamp:  now(),
					Event:      "SHUTDOWN",
					Reason:     name,
					Retained:   true,
					RawPayload: status.FormatStatusEvent(snap, "SHUTDOWN", name),
				}
				if err := publisher.PublishSystem(event); err != nil {
					logger.Warn("failed to publish shutdown event", "error", err)
				}
			}
			return nil

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			logger.Debug("event", "kind", ev.Kind, "switch", ev.Switch, "encoder", ev.Encoder, "value", ev.Value, "active", ev.Active)

			hub.Broadcast(ev)
			if publisher != nil {
				if err := publisher.Publish(ev); err != nil {
					logger.Warn("publish error", "error", err)
				}
			}
			tracker.RecordEvent(ev)
			refreshTracker(tracker, hub, mqttStatus, dropped)

		case <-hbC:
			refreshTracker(tracker, hub, mqttStatus, dropped)
			snap := tracker.Snapshot()
			logger.Info("heartbeat",
				"uptime", snap.Uptime().Truncate(time.Second),
				"keys", snap.Counts.Keys,
				"switches", snap.Counts.Switches,
				"encoder_steps", snap.Counts.EncoderSteps,
				"dropped", snap.DroppedEvents,
				"ws_clients", snap.WSClients)
			if publisher != nil {
				event := mqtt.SystemEvent{
					Timestamp:  snap.Now,
					Event:      "HEARTBEAT",
					RawPayload: status.FormatStatusEvent(snap, "HEARTBEAT", ""),
				}
				if err := publisher.PublishSystem(event); err != nil {
					logger.Warn("heartbeat publish error", "error", err)
				}
			}
		}
	}
}

func refreshTracker(tracker *status.Tracker, hub *ws.Hub, mqttStatus mqtt.ConnectionStatus, dropped func() uint64) {
	tracker.SetDropped(dropped())
	tracker.SetWSClients(hub.ClientCount())
	if mqttStatus != nil {
		tracker.SetMQTTConnected(mqttStatus.IsConnected())
	}
}

func printCurrentState(cfg config.Config, reader gpio.Reader) error {
	readLevel := func(pin int) string {
		level, err := reader.Read(pin)
		if err != nil {
			return "ERROR"
		}
		if level {
			return "PRESSED"
		}
		return "RELEASED"
	}

	for _, b := range cfg.Buttons {
		fmt.Printf("button %s: %s\n", b.ID, readLevel(b.Pin))
	}
	for _, s := range cfg.Switches {
		fmt.Printf("switch %s: %s\n", s.ID, readLevel(s.Pin))
	}
	encoders := append([]config.EncoderConfig(nil), cfg.Encoders...)
	sort.Slice(encoders, func(i, j int) bool { return encoders[i].ID < encoders[j].ID })
	for _, e := range encoders {
		fmt.Printf("encoder %d: A=%s B=%s\n", e.ID, readLevel(e.PinA), readLevel(e.PinB))
	}
	return nil
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	default:
		return "UNKNOWN"
	}
}
