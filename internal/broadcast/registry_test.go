package broadcast

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/grovetools/teamboard/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient records what it was sent.
type fakeClient struct {
	id string

	mu         sync.Mutex
	events     []Event
	heartbeats int
	failSend   bool
	failBeat   bool
	closed     bool
	closeCalls int
}

func newFake(id string) *fakeClient {
	return &fakeClient{id: id}
}

func (f *fakeClient) ID() string { return f.id }

func (f *fakeClient) Send(ev Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSend || f.closed {
		return ErrClosed
	}
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeClient) Heartbeat() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failBeat || f.closed {
		return ErrClosed
	}
	f.heartbeats++
	return nil
}

func (f *fakeClient) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeClient) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.closeCalls++
}

func (f *fakeClient) received() []Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Event(nil), f.events...)
}

type recordingObserver struct {
	mu       sync.Mutex
	clients  int
	removed  map[string]int
	sent     map[string]int
	failures int
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{removed: map[string]int{}, sent: map[string]int{}}
}

func (o *recordingObserver) ClientsChanged(n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.clients = n
}

func (o *recordingObserver) EventBroadcast(event string, delivered, failed int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent[event] += delivered
	o.failures += failed
}

func (o *recordingObserver) ClientRemoved(reason string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.removed[reason]++
}

func TestRegisterCapacity(t *testing.T) {
	r := NewRegistry(Options{MaxClients: 2})
	require.NoError(t, r.Register(newFake("a")))
	require.NoError(t, r.Register(newFake("b")))

	err := r.Register(newFake("c"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeCapacity))
	assert.Equal(t, 2, r.Len())
}

func TestRegisterAtDefaultCapacity(t *testing.T) {
	r := NewRegistry(Options{})
	assert.Equal(t, DefaultMaxClients, r.MaxClients())
	for i := 0; i < DefaultMaxClients; i++ {
		require.NoError(t, r.Register(newFake(fmt.Sprintf("c%d", i))))
	}
	err := r.Register(newFake("overflow"))
	assert.True(t, errors.Is(err, errors.ErrCodeCapacity))
	assert.Equal(t, DefaultMaxClients, r.Len())
}

func TestUnregisterIdempotent(t *testing.T) {
	obs := newRecordingObserver()
	r := NewRegistry(Options{Observer: obs})
	c := newFake("a")
	require.NoError(t, r.Register(c))

	r.Unregister(c)
	r.Unregister(c)

	assert.Equal(t, 0, r.Len())
	assert.True(t, c.Closed())
	assert.Equal(t, 1, obs.removed[ReasonUnregistered])

	// Unknown clients are just closed.
	stranger := newFake("x")
	r.Unregister(stranger)
	assert.True(t, stranger.Closed())
}

func TestBroadcastDropsFailingClient(t *testing.T) {
	obs := newRecordingObserver()
	r := NewRegistry(Options{Observer: obs})
	good := []*fakeClient{newFake("a"), newFake("b"), newFake("c")}
	bad := newFake("bad")
	bad.failSend = true
	for _, c := range good {
		require.NoError(t, r.Register(c))
	}
	require.NoError(t, r.Register(bad))

	delivered := r.Broadcast(EventTeamDeleted, TeamDeletedPayload{TeamID: "alpha"})
	assert.Equal(t, 3, delivered)
	assert.Equal(t, 3, r.Len())
	assert.True(t, bad.Closed())
	assert.Equal(t, 1, obs.removed[ReasonSendFailed])
	assert.Equal(t, 3, obs.sent[EventTeamDeleted])
	assert.Equal(t, 1, obs.failures)

	for _, c := range good {
		evs := c.received()
		require.Len(t, evs, 1)
		assert.Equal(t, EventTeamDeleted, evs[0].Name)
		assert.JSONEq(t, `{"teamId":"alpha"}`, string(evs[0].Data))
	}
}

func TestBroadcastUnencodablePayload(t *testing.T) {
	r := NewRegistry(Options{})
	c := newFake("a")
	require.NoError(t, r.Register(c))

	assert.Equal(t, 0, r.Broadcast("bad", make(chan int)))
	assert.Empty(t, c.received())
	assert.Equal(t, 1, r.Len())
}

func TestHeartbeatDropsFailingClient(t *testing.T) {
	r := NewRegistry(Options{})
	ok := newFake("ok")
	dead := newFake("dead")
	dead.failBeat = true
	require.NoError(t, r.Register(ok))
	require.NoError(t, r.Register(dead))

	assert.Equal(t, 1, r.Heartbeat())
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, 1, ok.heartbeats)
	assert.True(t, dead.Closed())
}

func TestReapRemovesClosedClients(t *testing.T) {
	obs := newRecordingObserver()
	r := NewRegistry(Options{Observer: obs})
	live := newFake("live")
	gone := newFake("gone")
	require.NoError(t, r.Register(live))
	require.NoError(t, r.Register(gone))
	gone.Close()

	assert.Equal(t, 1, r.Reap())
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, 1, obs.removed[ReasonReaped])
	assert.Equal(t, 1, obs.clients)
	assert.Equal(t, 0, r.Reap())
}

func TestStartRunsTickers(t *testing.T) {
	r := NewRegistry(Options{
		HeartbeatInterval: 10 * time.Millisecond,
		ReapInterval:      10 * time.Millisecond,
	})
	live := newFake("live")
	gone := newFake("gone")
	require.NoError(t, r.Register(live))
	require.NoError(t, r.Register(gone))
	gone.Close()

	r.Start(context.Background())
	r.Start(context.Background())
	defer r.Shutdown()

	assert.Eventually(t, func() bool {
		live.mu.Lock()
		defer live.mu.Unlock()
		return live.heartbeats > 0
	}, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return r.Len() == 1 }, time.Second, 5*time.Millisecond)
}

func TestShutdown(t *testing.T) {
	obs := newRecordingObserver()
	r := NewRegistry(Options{Observer: obs, HeartbeatInterval: time.Hour, ReapInterval: time.Hour})
	r.Start(context.Background())

	clients := []*fakeClient{newFake("a"), newFake("b")}
	for _, c := range clients {
		require.NoError(t, r.Register(c))
	}

	r.Shutdown()
	r.Shutdown()

	assert.Equal(t, 0, r.Len())
	for _, c := range clients {
		assert.True(t, c.Closed())
		assert.Equal(t, 1, c.closeCalls)
	}
	assert.Equal(t, 2, obs.removed[ReasonShutdown])

	err := r.Register(newFake("late"))
	assert.True(t, errors.Is(err, errors.ErrCodeCapacity))
	assert.Equal(t, 0, r.Broadcast(EventTeamDeleted, TeamDeletedPayload{TeamID: "x"}))
}

func TestConcurrentRegistryUse(t *testing.T) {
	r := NewRegistry(Options{MaxClients: 1000})
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c := newFake(fmt.Sprintf("c%d", i))
			if err := r.Register(c); err != nil {
				return
			}
			r.Broadcast(EventMessageNew, MessageNewPayload{TeamID: "t", Messages: []string{}})
			if i%2 == 0 {
				r.Unregister(c)
			}
		}(i)
	}
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Heartbeat()
			r.Reap()
		}()
	}
	wg.Wait()

	assert.Equal(t, 25, r.Len())
}

func TestOutboxDropsSlowClient(t *testing.T) {
	o := newOutbox(2)
	require.NoError(t, o.Send(Event{Name: "a"}))
	require.NoError(t, o.Heartbeat())

	err := o.Send(Event{Name: "b"})
	assert.True(t, stderrors.Is(err, ErrSlowClient))
	assert.True(t, o.Closed())
	assert.True(t, stderrors.Is(o.Send(Event{Name: "c"}), ErrClosed))

	select {
	case <-o.Done():
	default:
		t.Fatal("done channel should be closed")
	}
}

func TestConnectedEvent(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	ev := NewConnectedEvent("abc", now)
	assert.Equal(t, EventConnected, ev.Name)

	var payload ConnectedPayload
	require.NoError(t, json.Unmarshal(ev.Data, &payload))
	assert.Equal(t, "abc", payload.ClientID)
	assert.Equal(t, "2024-01-01T12:00:00.000Z", payload.Timestamp)
}
