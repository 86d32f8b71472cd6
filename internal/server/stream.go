package server

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/teamboard/errors"
	"github.com/grovetools/teamboard/internal/broadcast"
)

// handleEvents streams events over SSE. The handler returns only once the
// request context ends or the registry closes the client.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	client, err := broadcast.NewSSEClient(w, 0)
	if err != nil {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	// Queued before registration so it is the first frame on the wire.
	_ = client.Send(broadcast.NewConnectedEvent(client.ID(), s.now()))
	if err := s.registry.Register(client); err != nil {
		s.writeError(w, r, "Too many connections", err)
		return
	}
	defer s.registry.Unregister(client)

	client.WriteHeaders(w)
	logger := s.logger.WithFields(logrus.Fields{"client_id": client.ID(), "transport": "sse"})
	logger.Debug("Stream client connected")

	err = client.Serve(r.Context())
	logger.WithField("reason", err).Debug("Stream client disconnected")
}

// handleWebSocket is the WebSocket variant of handleEvents.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.registry.Len() >= s.registry.MaxClients() {
		s.writeError(w, r, "Too many connections", errors.CapacityReached(s.registry.MaxClients()))
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied.
		s.logger.WithError(err).Debug("WebSocket upgrade failed")
		return
	}

	client := broadcast.NewWSClient(conn, 0)
	_ = client.Send(broadcast.NewConnectedEvent(client.ID(), s.now()))
	if err := s.registry.Register(client); err != nil {
		// Lost the race for the last slot after upgrading.
		client.Close()
		_ = client.Serve(r.Context())
		return
	}
	defer s.registry.Unregister(client)

	logger := s.logger.WithFields(logrus.Fields{"client_id": client.ID(), "transport": "websocket"})
	logger.Debug("Stream client connected")

	err = client.Serve(r.Context())
	logger.WithField("reason", err).Debug("Stream client disconnected")
}
