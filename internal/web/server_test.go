package web

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fcc-lol/cyberdeck-25-firmware/internal/logic"
	"github.com/fcc-lol/cyberdeck-25-firmware/internal/status"
	"github.com/fcc-lol/cyberdeck-25-firmware/internal/ws"
)

func testServer() *Server {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tracker := status.NewTracker(start, status.Config{HTTPAddr: ":5000", PollUS: 500})

	inputs := logic.NewSnapshot()
	inputs.Buttons["key"] = false
	inputs.Switches["green"] = true
	inputs.Encoders[1] = 3
	tracker.UpdateInputs(inputs)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := ws.NewHub(logger, func() logic.Snapshot { return inputs.Clone() })
	return New(":0", tracker, hub)
}

func TestIndexPage(t *testing.T) {
	srv := testServer()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "green") {
		t.Error("page missing switch row")
	}
	if !strings.Contains(body, "Rotary Encoders") {
		t.Error("page missing encoder section")
	}
	if !strings.Contains(rec.Header().Get("Content-Type"), "text/html") {
		t.Errorf("content type %q", rec.Header().Get("Content-Type"))
	}
}

func TestIndexNotFoundForOtherPaths(t *testing.T) {
	srv := testServer()
	req := httptest.NewRequest(http.MethodGet, "/nothing", nil)
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestJSONEndpoint(t *testing.T) {
	srv := testServer()
	req := httptest.NewRequest(http.MethodGet, "/index.json", nil)
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}

	var out struct {
		Status struct {
			Inputs struct {
				Switches map[string]bool `json:"switches"`
				Encoders map[string]int  `json:"encoders"`
			} `json:"inputs"`
		} `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !out.Status.Inputs.Switches["green"] {
		t.Error("switch state missing from JSON")
	}
	if out.Status.Inputs.Encoders["1"] != 3 {
		t.Error("encoder state missing from JSON")
	}
}

func TestWebSocketRoute(t *testing.T) {
	srv := testServer()
	ts := httptest.NewServer(srv.httpServer.Handler)
	defer ts.Close()

	// A plain GET to /ws must be rejected as a failed upgrade, proving the
	// route is wired.
	resp, err := http.Get(ts.URL + "/ws")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for non-websocket request, got %d", resp.StatusCode)
	}
}
