// Package server provides the HTTP dashboard for mudra.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/ayusman/mudra/internal/server/api"
	"github.com/ayusman/mudra/internal/store"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Session is what the dashboard needs from the running session.
type Session interface {
	api.Controller
	FrameSource
}

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Session   Session
	Store     *store.Store
	Hub       *Hub
	// ControlRate and ControlBurst throttle control POSTs per client.
	ControlRate  rate.Limit
	ControlBurst int
	Log          *logrus.Entry
}

// Server is the dashboard HTTP handler.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
	http   *http.Server
}

// New creates a Server with the given configuration.
func New(config Config) *Server {
	if config.Log == nil {
		config.Log = logrus.NewEntry(logrus.StandardLogger())
	}
	if config.ControlRate == 0 {
		config.ControlRate = rate.Every(100 * time.Millisecond)
	}
	if config.ControlBurst <= 0 {
		config.ControlBurst = 5
	}

	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.http = &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Session != nil {
		control := api.NewControlHandler(s.config.Session)
		limiter := newRateLimiter(s.config.ControlRate, s.config.ControlBurst, s.config.Log)

		s.mux.HandleFunc("/api/state", control.State)
		s.mux.Handle("/api/session/start", limiter.wrap(http.HandlerFunc(control.Start)))
		s.mux.Handle("/api/session/stop", limiter.wrap(http.HandlerFunc(control.Stop)))
		s.mux.Handle("/api/mouse/toggle", limiter.wrap(http.HandlerFunc(control.ToggleMouse)))
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Session))
	}

	if s.config.Store != nil {
		s.mux.Handle("/api/history", api.NewHistoryHandler(s.config.Store))
	}

	if s.config.Hub != nil {
		s.mux.Handle("/api/events", s.config.Hub)
	}

	if s.config.StaticDir != "" {
		s.mux.Handle("/", http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logRequests(s.config.Log, s.mux).ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// ListenAndServe serves on addr until Shutdown is called.
func (s *Server) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown is called.
func (s *Server) Serve(ln net.Listener) error {
	s.config.Log.WithField("addr", ln.Addr().String()).Info("dashboard listening")

	if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the listener and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
