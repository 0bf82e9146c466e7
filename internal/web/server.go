// Package web provides the HTTP surface of the firmware daemon: a live
// monitor page, a JSON status endpoint, and the WebSocket upgrade path.
package web

import (
	"context"
	"net"
	"net/http"

	"github.com/fcc-lol/cyberdeck-25-firmware/internal/status"
	"github.com/fcc-lol/cyberdeck-25-firmware/internal/ws"
)

// Server serves the monitor page, status JSON, and WebSocket endpoint.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	hub        *ws.Hub
}

// New creates a Server reading state from the tracker and upgrading /ws
// connections into the hub.
func New(addr string, tracker *status.Tracker, hub *ws.Hub) *Server {
	s := &Server{tracker: tracker, hub: hub}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/index.json", s.handleJSON)
	mux.HandleFunc("/ws", hub.HandleWS)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, snap)
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}
