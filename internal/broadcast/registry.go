package broadcast

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/teamboard/errors"
	"github.com/grovetools/teamboard/logging"
)

// Defaults used when Options leaves a field zero.
const (
	DefaultMaxClients        = 100
	DefaultHeartbeatInterval = 30 * time.Second
	DefaultReapInterval      = 60 * time.Second
)

// Removal reasons reported to the Observer.
const (
	ReasonUnregistered    = "unregistered"
	ReasonSendFailed      = "send_failed"
	ReasonHeartbeatFailed = "heartbeat_failed"
	ReasonReaped          = "reaped"
	ReasonShutdown        = "shutdown"
)

// Observer receives registry activity, typically to export metrics.
type Observer interface {
	ClientsChanged(n int)
	EventBroadcast(event string, delivered, failed int)
	ClientRemoved(reason string)
}

type nopObserver struct{}

func (nopObserver) ClientsChanged(int)               {}
func (nopObserver) EventBroadcast(string, int, int) {}
func (nopObserver) ClientRemoved(string)             {}

// Options configures a Registry.
type Options struct {
	MaxClients        int
	HeartbeatInterval time.Duration
	ReapInterval      time.Duration
	Observer          Observer
	Logger            *logrus.Entry
}

// Registry is the set of live streaming clients. All methods are safe for
// concurrent use; every pass over the set works on a snapshot taken under
// the lock so sends never hold it.
type Registry struct {
	opts   Options
	logger *logrus.Entry

	mu       sync.Mutex
	clients  map[string]Client
	started  bool
	shutdown bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewRegistry creates an empty registry. Tickers start with Start.
func NewRegistry(opts Options) *Registry {
	if opts.MaxClients <= 0 {
		opts.MaxClients = DefaultMaxClients
	}
	if opts.HeartbeatInterval <= 0 {
		opts.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if opts.ReapInterval <= 0 {
		opts.ReapInterval = DefaultReapInterval
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewLogger("broadcast")
	}
	return &Registry{
		opts:    opts,
		logger:  logger,
		clients: make(map[string]Client),
	}
}

// MaxClients returns the configured capacity.
func (r *Registry) MaxClients() int {
	return r.opts.MaxClients
}

// Start launches the heartbeat and reaper loops. They run until ctx is done
// or Shutdown is called. Calling Start more than once is a no-op.
func (r *Registry) Start(ctx context.Context) {
	r.mu.Lock()
	if r.started || r.shutdown {
		r.mu.Unlock()
		return
	}
	r.started = true
	ctx, r.cancel = context.WithCancel(ctx)
	r.mu.Unlock()

	r.wg.Add(2)
	go r.loop(ctx, r.opts.HeartbeatInterval, func() { r.Heartbeat() })
	go r.loop(ctx, r.opts.ReapInterval, func() { r.Reap() })
}

func (r *Registry) loop(ctx context.Context, interval time.Duration, tick func()) {
	defer r.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tick()
		}
	}
}

// Register adds c. It fails with a CAPACITY error once MaxClients clients
// are registered or after Shutdown.
func (r *Registry) Register(c Client) error {
	r.mu.Lock()
	if r.shutdown {
		r.mu.Unlock()
		return errors.New(errors.ErrCodeCapacity, "event stream is shutting down")
	}
	if len(r.clients) >= r.opts.MaxClients {
		r.mu.Unlock()
		r.logger.WithField("max_clients", r.opts.MaxClients).Warn("Rejecting stream client, capacity reached")
		return errors.CapacityReached(r.opts.MaxClients)
	}
	r.clients[c.ID()] = c
	n := len(r.clients)
	r.mu.Unlock()

	r.opts.Observer.ClientsChanged(n)
	r.logger.WithFields(logrus.Fields{"client_id": c.ID(), "clients": n}).Debug("Stream client registered")
	return nil
}

// Unregister removes c and closes it. Removing an unknown client only
// closes it.
func (r *Registry) Unregister(c Client) {
	r.remove(c, ReasonUnregistered)
}

func (r *Registry) remove(c Client, reason string) {
	r.mu.Lock()
	existing, ok := r.clients[c.ID()]
	if ok && existing == c {
		delete(r.clients, c.ID())
	} else {
		ok = false
	}
	n := len(r.clients)
	r.mu.Unlock()

	c.Close()
	if !ok {
		return
	}
	r.opts.Observer.ClientRemoved(reason)
	r.opts.Observer.ClientsChanged(n)
	r.logger.WithFields(logrus.Fields{
		"client_id": c.ID(),
		"reason":    reason,
		"clients":   n,
	}).Debug("Stream client removed")
}

// Broadcast sends the named event to every client and returns the number of
// clients it was delivered to. Clients whose send fails are removed; the
// rest still receive the event.
func (r *Registry) Broadcast(event string, payload interface{}) int {
	ev, err := NewEvent(event, payload)
	if err != nil {
		r.logger.WithError(err).WithField("event", event).Error("Failed to encode event payload")
		return 0
	}

	delivered, failed := 0, 0
	for _, c := range r.snapshot() {
		if err := c.Send(ev); err != nil {
			failed++
			r.logger.WithError(err).WithField("client_id", c.ID()).Debug("Send failed, dropping client")
			r.remove(c, ReasonSendFailed)
			continue
		}
		delivered++
	}
	r.opts.Observer.EventBroadcast(event, delivered, failed)
	return delivered
}

// Heartbeat sends a keepalive to every client and drops those that fail.
// It returns the number of clients dropped.
func (r *Registry) Heartbeat() int {
	dropped := 0
	for _, c := range r.snapshot() {
		if err := c.Heartbeat(); err != nil {
			dropped++
			r.remove(c, ReasonHeartbeatFailed)
		}
	}
	return dropped
}

// Reap drops clients whose transport has already ended and returns how
// many were dropped.
func (r *Registry) Reap() int {
	dropped := 0
	for _, c := range r.snapshot() {
		if c.Closed() {
			dropped++
			r.remove(c, ReasonReaped)
		}
	}
	if dropped > 0 {
		r.logger.WithField("count", dropped).Info("Reaped stale stream clients")
	}
	return dropped
}

// Len returns the number of registered clients.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// Clients returns a snapshot of the registered clients.
func (r *Registry) Clients() []Client {
	return r.snapshot()
}

func (r *Registry) snapshot() []Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Client, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, c)
	}
	return out
}

// Shutdown stops the loops, closes every client and rejects further
// registrations. It is safe to call more than once.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	if r.shutdown {
		r.mu.Unlock()
		return
	}
	r.shutdown = true
	cancel := r.cancel
	clients := make([]Client, 0, len(r.clients))
	for _, c := range r.clients {
		clients = append(clients, c)
	}
	r.clients = make(map[string]Client)
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	r.wg.Wait()

	for _, c := range clients {
		c.Close()
		r.opts.Observer.ClientRemoved(ReasonShutdown)
	}
	r.opts.Observer.ClientsChanged(0)
	r.logger.WithField("clients", len(clients)).Info("Event stream registry shut down")
}
