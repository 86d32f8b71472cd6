package broadcast

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// SSEClient streams Server-Sent Events over an HTTP response writer.
type SSEClient struct {
	*outbox

	mu      sync.Mutex
	writer  io.Writer
	flusher http.Flusher
	last    time.Time
}

// NewSSEClient wraps w. It fails when w cannot flush, since buffered SSE
// frames would never reach the browser.
func NewSSEClient(w http.ResponseWriter, queueSize int) (*SSEClient, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported by response writer")
	}
	return &SSEClient{
		outbox:  newOutbox(queueSize),
		writer:  w,
		flusher: flusher,
		last:    time.Now().UTC(),
	}, nil
}

// WriteHeaders sends the streaming response headers.
func (c *SSEClient) WriteHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache, no-transform")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	c.flusher.Flush()
}

// Serve writes queued frames until ctx ends or the client is closed. It is
// called from the HTTP handler goroutine, which owns the response writer.
func (c *SSEClient) Serve(ctx context.Context) error {
	return c.drain(ctx, c.write)
}

func (c *SSEClient) write(f frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var payload []byte
	switch f.kind {
	case frameHeartbeat:
		payload = HeartbeatFrame
	default:
		payload = FormatEvent(f.event)
	}
	if _, err := c.writer.Write(payload); err != nil {
		return err
	}
	c.flusher.Flush()
	c.last = time.Now().UTC()
	return nil
}

// LastActivity reports the timestamp of the most recent successful write.
func (c *SSEClient) LastActivity() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}
