// Package client talks to a teamboard server, or reads the teams directory
// directly when no server is running.
package client

import (
	"context"
	"encoding/json"
	stderrors "errors"

	"github.com/grovetools/teamboard/pkg/team"
)

// ErrStreamUnavailable is returned by Events when there is no server to
// stream from.
var ErrStreamUnavailable = stderrors.New("event stream requires a running server")

// Client is the read API shared by the remote and local implementations.
type Client interface {
	// ListTeams returns every team snapshot.
	ListTeams(ctx context.Context) ([]*team.Team, error)

	// GetTeam returns one snapshot. A missing team is a NOT_FOUND error.
	GetTeam(ctx context.Context, id string) (*team.Team, error)

	// GetMessages returns a team's aggregated messages, newest first.
	GetMessages(ctx context.Context, id string, q team.Query) ([]team.Message, error)

	// Events subscribes to the live event stream. The channel closes when
	// ctx ends or the connection drops.
	Events(ctx context.Context) (<-chan Event, error)

	// IsRunning reports whether a server is answering.
	IsRunning() bool

	// Close releases idle connections.
	Close() error
}

// Event is one event received from the stream.
type Event struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data"`
}
