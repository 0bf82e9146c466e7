package logging

import (
	"log/slog"
	"testing"

	"github.com/fcc-lol/cyberdeck-25-firmware/internal/config"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"", slog.LevelInfo},
		{"nonsense", slog.LevelInfo},
	}
	for _, c := range cases {
		if got := parseLevel(c.in); got != c.want {
			t.Errorf("parseLevel(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestNewRespectsLevel(t *testing.T) {
	logger := New(config.LoggingConfig{Level: "warn", Format: "text", Output: "stderr"})
	if logger.Enabled(nil, slog.LevelInfo) {
		t.Error("info should be filtered at warn level")
	}
	if !logger.Enabled(nil, slog.LevelWarn) {
		t.Error("warn should be enabled at warn level")
	}
}
