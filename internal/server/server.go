// Package server exposes assessment sessions over WebSocket and serves the
// browser client's static files.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"golang.org/x/net/websocket"

	"github.com/abhisek/mathprobe/internal/assessment"
	"github.com/abhisek/mathprobe/internal/rules"
	"github.com/abhisek/mathprobe/internal/store"
)

// maxFrameBytes caps a single inbound WebSocket frame.
const maxFrameBytes = 64 << 10

// Options configures a Server.
type Options struct {
	Loader rules.Loader

	// Events receives session activity. Nil disables the event log.
	Events store.EventRepo

	Logger *slog.Logger

	// StaticDir is served under /static/. Empty disables static files.
	StaticDir string

	// DefaultTask is used when the first frame carries no task_id.
	DefaultTask string

	// DrawingProbe overrides the probe asked on drawing evidence.
	DrawingProbe string

	// MaxDecodeErrors is how many consecutive non-JSON frames are
	// tolerated before the connection is closed. Zero means 5.
	MaxDecodeErrors int
}

// Server owns the connection registry and the HTTP routes.
type Server struct {
	opts     Options
	logger   *slog.Logger
	registry *registry
	recorder recorder
}

// New returns a Server for opts.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.MaxDecodeErrors <= 0 {
		opts.MaxDecodeErrors = 5
	}
	if opts.DrawingProbe == "" {
		opts.DrawingProbe = assessment.DefaultDrawingProbe
	}
	logger := opts.Logger.With("component", "server")
	return &Server{
		opts:     opts,
		logger:   logger,
		registry: newRegistry(),
		recorder: recorder{repo: opts.Events, logger: logger},
	}
}

// NewHandler is a shorthand for New(opts).Handler().
func NewHandler(opts Options) http.Handler {
	return New(opts).Handler()
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/up", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	mux.HandleFunc("GET /sessions", s.handleSessions)

	wsHandler := websocket.Handler(s.serveConn)
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		wsHandler.ServeHTTP(w, r)
	})

	if s.opts.StaticDir != "" {
		mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(s.opts.StaticDir))))
	}
	mux.HandleFunc("GET /{$}", s.handleIndex)
	return mux
}

// ActiveSessions returns the number of connections that own a session.
func (s *Server) ActiveSessions() int {
	return s.registry.len()
}

// CloseConnections closes every connection that owns a session. Each
// connection's goroutine then tears its session down.
func (s *Server) CloseConnections() {
	for _, c := range s.registry.conns() {
		_ = c.Close()
	}
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{"active_sessions": s.registry.len()})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.opts.StaticDir != "" {
		index := filepath.Join(s.opts.StaticDir, "index.html")
		if _, err := os.Stat(index); err == nil {
			http.ServeFile(w, r, index)
			return
		}
	}
	s.logger.Error("index.html not found", "static_dir", s.opts.StaticDir)
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "Frontend file not found."})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
