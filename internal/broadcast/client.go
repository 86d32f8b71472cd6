package broadcast

import (
	"context"
	stderrors "errors"
	"sync"

	"github.com/google/uuid"
)

// Client is one streaming connection. Implementations must be safe for
// concurrent use: Send and Heartbeat are called from broadcast and ticker
// goroutines while the connection's own goroutine drains it.
type Client interface {
	ID() string
	// Send queues ev for delivery. An error means the client is unusable.
	Send(ev Event) error
	// Heartbeat queues a keepalive. An error means the client is unusable.
	Heartbeat() error
	// Closed reports whether the transport has ended.
	Closed() bool
	// Close ends the stream; the connection goroutine returns soon after.
	Close()
}

var (
	// ErrClosed is returned when writing to a client that has ended.
	ErrClosed = stderrors.New("client closed")
	// ErrSlowClient is returned when a client's outbound queue is full.
	ErrSlowClient = stderrors.New("client outbound queue full")
)

// DefaultQueueSize is the number of frames a client may lag behind before it
// is dropped.
const DefaultQueueSize = 64

type frameKind int

const (
	frameEvent frameKind = iota
	frameHeartbeat
)

type frame struct {
	kind  frameKind
	event Event
}

// outbox is the queue shared by the transport-specific clients. Producers
// never block: a full queue closes the client.
type outbox struct {
	id     string
	frames chan frame
	done   chan struct{}

	mu     sync.Mutex
	closed bool
}

func newOutbox(size int) *outbox {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &outbox{
		id:     uuid.New().String(),
		frames: make(chan frame, size),
		done:   make(chan struct{}),
	}
}

func (o *outbox) ID() string {
	return o.id
}

func (o *outbox) Send(ev Event) error {
	return o.push(frame{kind: frameEvent, event: ev})
}

func (o *outbox) Heartbeat() error {
	return o.push(frame{kind: frameHeartbeat})
}

func (o *outbox) push(f frame) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return ErrClosed
	}
	select {
	case o.frames <- f:
		return nil
	default:
		o.closeLocked()
		return ErrSlowClient
	}
}

func (o *outbox) Closed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closed
}

func (o *outbox) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closeLocked()
}

func (o *outbox) closeLocked() {
	if !o.closed {
		o.closed = true
		close(o.done)
	}
}

// Done is closed once the client has been closed.
func (o *outbox) Done() <-chan struct{} {
	return o.done
}

// drain runs write for every queued frame until ctx ends, the client is
// closed, or write fails. No frame is written once the client is closed.
// The frames channel is never closed; done signals the end instead.
func (o *outbox) drain(ctx context.Context, write func(frame) error) error {
	for {
		select {
		case <-ctx.Done():
			o.Close()
			return ctx.Err()
		case <-o.done:
			return ErrClosed
		case f := <-o.frames:
			// select picks among ready cases at random, so a closed client
			// may still have frames queued. They are discarded.
			if o.Closed() {
				return ErrClosed
			}
			if err := write(f); err != nil {
				o.Close()
				return err
			}
		}
	}
}
