// Package broadcast owns the set of open streaming connections and fans
// named events out to all of them.
package broadcast

import (
	"bytes"
	"encoding/json"
	"time"
)

// Event names emitted to streaming clients.
const (
	EventConnected   = "connected"
	EventTeamUpdated = "team:updated"
	EventTeamDeleted = "team:deleted"
	EventMessageNew  = "message:new"
)

// HeartbeatFrame is the SSE comment written on every heartbeat tick.
// Clients ignore comment lines.
var HeartbeatFrame = []byte(": heartbeat\n\n")

// Event is a named event with its payload already encoded as JSON.
type Event struct {
	Name string
	Data json.RawMessage
}

// NewEvent encodes payload as the event data.
func NewEvent(name string, payload interface{}) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Name: name, Data: data}, nil
}

// FormatEvent renders an event as one SSE frame:
//
//	event: <name>
//	data: <json>
//	<blank line>
func FormatEvent(ev Event) []byte {
	var b bytes.Buffer
	b.Grow(len(ev.Name) + len(ev.Data) + 16)
	b.WriteString("event: ")
	b.WriteString(ev.Name)
	b.WriteString("\ndata: ")
	b.Write(ev.Data)
	b.WriteString("\n\n")
	return b.Bytes()
}

// ConnectedPayload is the body of the connected event.
type ConnectedPayload struct {
	ClientID  string `json:"clientId"`
	Timestamp string `json:"timestamp"`
}

// TeamUpdatedPayload is the body of team:updated.
type TeamUpdatedPayload struct {
	TeamID string      `json:"teamId"`
	Team   interface{} `json:"team"`
}

// TeamDeletedPayload is the body of team:deleted.
type TeamDeletedPayload struct {
	TeamID string `json:"teamId"`
}

// MessageNewPayload is the body of message:new.
type MessageNewPayload struct {
	TeamID   string      `json:"teamId"`
	Messages interface{} `json:"messages"`
}

// NewConnectedEvent builds the greeting sent to a freshly registered client.
func NewConnectedEvent(clientID string, now time.Time) Event {
	ev, _ := NewEvent(EventConnected, ConnectedPayload{
		ClientID:  clientID,
		Timestamp: now.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	})
	return ev
}
