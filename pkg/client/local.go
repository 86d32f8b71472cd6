package client

import (
	"context"

	"github.com/grovetools/teamboard/errors"
	"github.com/grovetools/teamboard/pkg/paths"
	"github.com/grovetools/teamboard/pkg/team"
)

// LocalClient implements Client by reading the teams directory directly.
type LocalClient struct {
	loader *team.Loader
}

// NewLocalClient wraps loader.
func NewLocalClient(loader *team.Loader) *LocalClient {
	return &LocalClient{loader: loader}
}

// ListTeams loads every snapshot from disk.
func (c *LocalClient) ListTeams(ctx context.Context) ([]*team.Team, error) {
	return c.loader.LoadAll(ctx)
}

// GetTeam loads one snapshot from disk.
func (c *LocalClient) GetTeam(ctx context.Context, id string) (*team.Team, error) {
	if err := paths.ValidateTeamID(id); err != nil {
		return nil, err
	}
	t, err := c.loader.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, errors.TeamNotFound(id)
	}
	return t, nil
}

// GetMessages loads a team's messages from disk.
func (c *LocalClient) GetMessages(ctx context.Context, id string, q team.Query) ([]team.Message, error) {
	if err := paths.ValidateTeamID(id); err != nil {
		return nil, err
	}
	return c.loader.LoadMessages(ctx, id, q)
}

// Events is not available without a server.
func (c *LocalClient) Events(ctx context.Context) (<-chan Event, error) {
	return nil, ErrStreamUnavailable
}

// IsRunning always returns false.
func (c *LocalClient) IsRunning() bool {
	return false
}

// Close is a no-op.
func (c *LocalClient) Close() error {
	return nil
}

var _ Client = (*LocalClient)(nil)
