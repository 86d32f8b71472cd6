package team

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sort"

	"github.com/grovetools/teamboard/errors"
	"github.com/grovetools/teamboard/internal/jsonfile"
	"github.com/grovetools/teamboard/pkg/paths"
	"github.com/sirupsen/logrus"
)

// Loader reads team snapshots and messages from disk.
type Loader struct {
	resolver *paths.Resolver
	reader   *jsonfile.Reader
	logger   *logrus.Entry
}

// NewLoader creates a Loader over resolver's root.
func NewLoader(resolver *paths.Resolver, reader *jsonfile.Reader, logger *logrus.Entry) *Loader {
	return &Loader{
		resolver: resolver,
		reader:   reader,
		logger:   logger,
	}
}

// Resolver returns the path resolver the loader reads through.
func (l *Loader) Resolver() *paths.Resolver {
	return l.resolver
}

// LoadAll returns a snapshot for every team directory under the root.
// Teams without a config are skipped, as are teams whose config is corrupt.
// A missing root yields an empty list.
func (l *Loader) LoadAll(ctx context.Context) ([]*Team, error) {
	ids, err := jsonfile.ListSubdirectories(l.resolver.Root())
	if err != nil {
		return nil, err
	}

	teams := make([]*Team, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !paths.ValidTeamID(id) {
			continue
		}
		t, err := l.Load(ctx, id)
		if err != nil {
			if errors.Is(err, errors.ErrCodeParseError) {
				l.logger.WithError(err).WithField("teamId", id).Warn("Skipping team with corrupt config")
				continue
			}
			return nil, err
		}
		if t != nil {
			teams = append(teams, t)
		}
	}
	return teams, nil
}

// Load returns the snapshot for id. It returns (nil, nil) when the team has
// no config file and a PARSE_ERROR coded error when the config is corrupt.
func (l *Loader) Load(ctx context.Context, id string) (*Team, error) {
	var cfg Config
	if err := l.reader.ReadJSON(ctx, l.resolver.ConfigPath(id), &cfg); err != nil {
		if errors.Is(err, errors.ErrCodeNotFound) {
			return nil, nil
		}
		return nil, err
	}

	lastActivity, err := l.LastActivity(ctx, id)
	if err != nil {
		return nil, err
	}

	name := cfg.Name
	if name == "" {
		name = id
	}
	members := cfg.Members
	if members == nil {
		members = []json.RawMessage{}
	}

	return &Team{
		ID:           id,
		Name:         name,
		MemberCount:  len(members),
		Members:      members,
		LeadAgentID:  cfg.LeadAgentID,
		LastActivity: lastActivity,
		Path:         l.resolver.TeamPath(id),
		HasInboxes:   jsonfile.Exists(l.resolver.InboxesPath(id)),
	}, nil
}

// LastActivity returns the newest message timestamp for id, or nil.
func (l *Loader) LastActivity(ctx context.Context, id string) (*string, error) {
	messages, err := l.LoadMessages(ctx, id, Query{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(messages) == 0 || messages[0].Timestamp == "" {
		return nil, nil
	}
	ts := messages[0].Timestamp
	return &ts, nil
}

// LoadMessages aggregates every inbox file of id, newest first.
// Inbox files that vanish mid-read or hold something other than a JSON array
// are skipped.
func (l *Loader) LoadMessages(ctx context.Context, id string, q Query) ([]Message, error) {
	dir := l.resolver.InboxesPath(id)
	files, err := jsonfile.ListFiles(dir, ".json")
	if err != nil {
		return nil, err
	}

	all := make([]Message, 0)
	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := filepath.Join(dir, name)
		var inbox []Message
		if err := l.reader.ReadJSON(ctx, path, &inbox); err != nil {
			switch errors.GetCode(err) {
			case errors.ErrCodeNotFound:
				continue
			case errors.ErrCodeParseError:
				l.logger.WithError(err).WithField("path", path).Warn("Skipping unreadable inbox")
				continue
			}
			return nil, err
		}
		all = append(all, inbox...)
	}

	return Select(all, q), nil
}

// Select sorts messages newest first, then applies q.Before and q.Limit.
// Messages without a parseable timestamp sort last and never pass a Before
// filter.
func Select(messages []Message, q Query) []Message {
	sort.SliceStable(messages, func(i, j int) bool {
		ti, oki := messages[i].Time()
		tj, okj := messages[j].Time()
		if oki != okj {
			return oki
		}
		return ti.After(tj)
	})

	if q.Before != nil {
		filtered := messages[:0]
		for _, m := range messages {
			if t, ok := m.Time(); ok && t.Before(*q.Before) {
				filtered = append(filtered, m)
			}
		}
		messages = filtered
	}

	if q.Limit > 0 && len(messages) > q.Limit {
		messages = messages[:q.Limit]
	}
	return messages
}
