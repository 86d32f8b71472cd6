package broadcast

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsWriteWait  = 10 * time.Second
	wsMaxMessage = 4096
)

// wsEnvelope is the WebSocket framing of an event.
type wsEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// WSClient streams events over a WebSocket connection as JSON text messages.
type WSClient struct {
	*outbox
	conn *websocket.Conn
}

// NewWSClient wraps an upgraded connection.
func NewWSClient(conn *websocket.Conn, queueSize int) *WSClient {
	return &WSClient{
		outbox: newOutbox(queueSize),
		conn:   conn,
	}
}

// Serve writes queued frames until ctx ends, the peer goes away, or the
// client is closed. The connection is closed on return.
func (c *WSClient) Serve(ctx context.Context) error {
	go c.readPump()
	err := c.drain(ctx, c.write)

	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
		time.Now().Add(wsWriteWait))
	_ = c.conn.Close()
	return err
}

// readPump discards inbound messages; its only job is noticing the peer
// closing so the client can be marked closed.
func (c *WSClient) readPump() {
	c.conn.SetReadLimit(wsMaxMessage)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			c.Close()
			return
		}
	}
}

func (c *WSClient) write(f frame) error {
	deadline := time.Now().Add(wsWriteWait)
	if f.kind == frameHeartbeat {
		return c.conn.WriteControl(websocket.PingMessage, nil, deadline)
	}
	_ = c.conn.SetWriteDeadline(deadline)
	return c.conn.WriteJSON(wsEnvelope{Event: f.event.Name, Data: f.event.Data})
}
