// Package team assembles team snapshots and message histories from the
// on-disk teams tree. Nothing is cached; every call re-reads the files.
package team

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Team is the point-in-time snapshot of one team directory.
type Team struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	MemberCount int               `json:"memberCount"`
	Members     []json.RawMessage `json:"members"`
	LeadAgentID json.RawMessage   `json:"leadAgentId,omitempty"`
	// LastActivity is the newest message timestamp, or null without messages.
	LastActivity *string `json:"lastActivity"`
	Path         string  `json:"path"`
	HasInboxes   bool    `json:"hasInboxes"`
}

// Config mirrors <root>/<id>/config.json. Members are kept raw so entries of
// any shape survive the round trip.
type Config struct {
	Name        string            `json:"name"`
	Members     []json.RawMessage `json:"members"`
	LeadAgentID json.RawMessage   `json:"leadAgentId,omitempty"`
}

// Message is one inbox entry. Only the timestamp is interpreted; the original
// JSON value is written back out unchanged.
type Message struct {
	Timestamp string

	raw json.RawMessage
	at  time.Time
	ok  bool
}

// NewMessage builds a Message from a raw JSON value.
func NewMessage(raw []byte) (Message, error) {
	var m Message
	err := m.UnmarshalJSON(raw)
	return m, err
}

// UnmarshalJSON keeps the raw value and extracts its timestamp. Any JSON
// value is accepted; only objects can carry a timestamp.
func (m *Message) UnmarshalJSON(data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("invalid message JSON")
	}
	m.raw = append(m.raw[:0], data...)
	m.Timestamp = ""
	m.at, m.ok = time.Time{}, false

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}
	var fields struct {
		Timestamp interface{} `json:"timestamp"`
	}
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return err
	}
	if s, isString := fields.Timestamp.(string); isString {
		m.Timestamp = s
		m.at, m.ok = parseTimestamp(s)
	}
	return nil
}

// MarshalJSON returns the original object.
func (m Message) MarshalJSON() ([]byte, error) {
	if len(bytes.TrimSpace(m.raw)) == 0 {
		return []byte("null"), nil
	}
	return m.raw, nil
}

// Time returns the parsed timestamp and whether it was valid.
func (m Message) Time() (time.Time, bool) {
	return m.at, m.ok
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses the ISO-8601 forms used in inbox files and query strings.
func ParseTimestamp(s string) (time.Time, bool) {
	return parseTimestamp(s)
}

func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Query narrows LoadMessages. Before is applied first, then Limit.
type Query struct {
	// Limit keeps at most this many messages when positive.
	Limit int
	// Before keeps only messages strictly older than this instant.
	Before *time.Time
}
