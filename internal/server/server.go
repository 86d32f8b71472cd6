// Package server provides the HTTP API and event streams of the dashboard.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/grovetools/teamboard/internal/broadcast"
	"github.com/grovetools/teamboard/internal/metrics"
	"github.com/grovetools/teamboard/pkg/team"
)

// RunningConfig is the active configuration reported by /api/status.
type RunningConfig struct {
	TeamsPath         string        `json:"teams_path"`
	Addr              string        `json:"addr"`
	MaxClients        int           `json:"max_clients"`
	HeartbeatInterval time.Duration `json:"heartbeat_interval"`
	ReapInterval      time.Duration `json:"reap_interval"`
	StartedAt         time.Time     `json:"started_at"`
}

// Server serves the team API, the event streams and health endpoints.
type Server struct {
	logger    *logrus.Entry
	loader    *team.Loader
	registry  *broadcast.Registry
	metrics   *metrics.Metrics
	staticDir string
	upgrader  websocket.Upgrader
	now       func() time.Time

	mu            sync.Mutex
	server        *http.Server
	runningConfig *RunningConfig
}

// New creates a server reading teams through loader and registering stream
// clients with registry.
func New(loader *team.Loader, registry *broadcast.Registry, logger *logrus.Entry) *Server {
	return &Server{
		logger:   logger,
		loader:   loader,
		registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Any origin may connect, matching the CORS policy.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		now: time.Now,
	}
}

// SetMetrics enables request metrics and the /metrics endpoint.
func (s *Server) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

// SetStaticDir serves a built frontend from dir at /.
func (s *Server) SetStaticDir(dir string) {
	s.staticDir = dir
}

// SetRunningConfig sets the configuration reported by /api/status.
func (s *Server) SetRunningConfig(cfg *RunningConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runningConfig = cfg
}

// Handler builds the complete handler chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /api/status", s.handleStatus)

	mux.HandleFunc("GET /api/teams", s.handleListTeams)
	mux.HandleFunc("GET /api/teams/{id}", s.handleGetTeam)
	mux.HandleFunc("GET /api/teams/{id}/messages", s.handleGetMessages)

	mux.HandleFunc("GET /api/events", s.handleEvents)
	mux.HandleFunc("GET /api/ws", s.handleWebSocket)

	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
	if s.staticDir != "" {
		mux.Handle("GET /", staticHandler(s.staticDir))
	}

	return withCORS(s.withLogging(mux))
}

// ListenAndServe listens on the TCP address addr and serves until Shutdown.
func (s *Server) ListenAndServe(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(listener)
}

// Serve accepts connections on l until Shutdown. HTTP/2 is accepted in
// cleartext alongside HTTP/1.1.
func (s *Server) Serve(l net.Listener) error {
	srv := &http.Server{
		Handler:           h2c.NewHandler(s.Handler(), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.server = srv
	s.mu.Unlock()

	s.logger.WithField("addr", l.Addr().String()).Info("Server listening")
	if err := srv.Serve(l); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server. Stream clients should be closed
// through the registry first, or Shutdown waits for them until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()

	s.logger.Info("Shutting down server...")
	if srv != nil {
		return srv.Shutdown(ctx)
	}
	return nil
}
