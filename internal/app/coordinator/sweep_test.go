package coordinator

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/lobbyq/internal/app/admission"
	"github.com/osa030/lobbyq/internal/app/notification"
	"github.com/osa030/lobbyq/internal/domain/destination"
	"github.com/osa030/lobbyq/internal/domain/queue"
)

const (
	waitFor = time.Second
	tick    = 5 * time.Millisecond
)

type connectorFunc func(uuid.UUID) *admission.Future

func (f connectorFunc) Connect(id uuid.UUID, _ destination.Destination, _ admission.Guard) *admission.Future {
	return f(id)
}

func inFlightFor(c *Coordinator, name string) uuid.UUID {
	for _, st := range c.Status() {
		if st.Name == name {
			return st.InFlight
		}
	}
	return uuid.Nil
}

func TestSweep_AdmitsHeadInOrder(t *testing.T) {
	f := newFixture(t, &fakeConnector{autoResolve: true, outcome: admission.Succeeded()})
	c := f.coord
	a, b, cc := uuid.New(), uuid.New(), uuid.New()
	for _, id := range []uuid.UUID{a, b, cc} {
		require.Equal(t, Success, c.Enqueue(id, "lobby"))
	}

	c.Sweep()
	require.Eventually(t, func() bool { return c.QueueSize("lobby") == 2 }, waitFor, tick)
	assert.Equal(t, []uuid.UUID{b, cc}, c.Members("lobby"))
	assert.Equal(t, queue.Queued("lobby", 1, 2), c.Snapshot(b))
	assert.Equal(t, queue.NotQueued(), c.Snapshot(a))

	require.Eventually(t, func() bool {
		dest, ok := f.notifier.get(a)
		return ok && dest == "lobby"
	}, waitFor, tick)

	c.Sweep()
	require.Eventually(t, func() bool { return c.QueueSize("lobby") == 1 }, waitFor, tick)
	assert.Equal(t, []uuid.UUID{cc}, c.Members("lobby"))

	require.Eventually(t, func() bool {
		for _, ch := range f.changes.all() {
			if ch.Reason == notification.ReasonAdmitted && ch.Player == b {
				return true
			}
		}
		return false
	}, waitFor, tick)
	assertConsistent(t, c)
}

func TestSweep_PausedDestinationIsSkipped(t *testing.T) {
	f := newFixture(t, &fakeConnector{autoResolve: true, outcome: admission.Succeeded()})
	c := f.coord
	d := uuid.New()
	require.Equal(t, Success, c.Enqueue(d, "lobby"))
	require.Equal(t, Success, c.Pause("lobby"))

	for i := 0; i < 10; i++ {
		c.Sweep()
	}
	assert.Equal(t, 0, f.connector.callCount())
	assert.Equal(t, queue.Queued("lobby", 1, 1), c.Snapshot(d))

	require.Equal(t, Success, c.Unpause("lobby"))
	c.Sweep()
	require.Eventually(t, func() bool {
		_, ok := f.notifier.get(d)
		return ok
	}, waitFor, tick)
	assert.Equal(t, 0, c.QueueSize("lobby"))
}

func TestSweep_OneAttemptInFlightPerDestination(t *testing.T) {
	f := newFixture(t, &fakeConnector{})
	c := f.coord
	a, b := uuid.New(), uuid.New()
	require.Equal(t, Success, c.Enqueue(a, "lobby"))
	require.Equal(t, Success, c.Enqueue(b, "lobby"))

	for i := 0; i < 5; i++ {
		c.Sweep()
	}
	assert.Equal(t, 1, f.connector.callCount())
	assert.Equal(t, a, inFlightFor(c, "lobby"))
	assert.Equal(t, 2, c.QueueSize("lobby"))

	f.connector.lastPending().Resolve(admission.Succeeded())
	require.Eventually(t, func() bool { return inFlightFor(c, "lobby") == uuid.Nil }, waitFor, tick)
	assert.Equal(t, []uuid.UUID{b}, c.Members("lobby"))

	c.Sweep()
	assert.Equal(t, 2, f.connector.callCount())
	assert.Equal(t, b, inFlightFor(c, "lobby"))
}

func TestSweep_FailureKeepsHead(t *testing.T) {
	f := newFixture(t, &fakeConnector{autoResolve: true, outcome: admission.Failed(errors.New("connection refused"))})
	c := f.coord
	a, b := uuid.New(), uuid.New()
	require.Equal(t, Success, c.Enqueue(a, "lobby"))
	require.Equal(t, Success, c.Enqueue(b, "lobby"))

	c.Sweep()
	require.Eventually(t, func() bool { return inFlightFor(c, "lobby") == uuid.Nil }, waitFor, tick)
	assert.Equal(t, []uuid.UUID{a, b}, c.Members("lobby"))

	// The same head is retried on the next tick.
	c.Sweep()
	require.Eventually(t, func() bool { return f.connector.callCount() == 2 }, waitFor, tick)
	f.connector.mu.Lock()
	assert.Equal(t, []uuid.UUID{a, a}, f.connector.calls)
	f.connector.mu.Unlock()

	_, notified := f.notifier.get(a)
	assert.False(t, notified)
}

func TestSweep_OfflineHeadIsDropped(t *testing.T) {
	f := newFixture(t, &fakeConnector{})
	c := f.coord
	a, b := uuid.New(), uuid.New()
	require.Equal(t, Success, c.Enqueue(a, "lobby"))
	require.Equal(t, Success, c.Enqueue(b, "lobby"))
	f.liveness.setOffline(a)

	c.Sweep()
	assert.Equal(t, []uuid.UUID{b}, c.Members("lobby"))
	assert.Equal(t, 0, f.connector.callCount())
	_, ok := c.QueuedDestination(a)
	assert.False(t, ok)

	changes := f.changes.all()
	last := changes[len(changes)-1]
	assert.Equal(t, notification.ReasonDropped, last.Reason)
	assert.Equal(t, a, last.Player)
	assert.ElementsMatch(t, []uuid.UUID{a, b}, last.Affected)

	c.Sweep()
	assert.Equal(t, 1, f.connector.callCount())
	assert.Equal(t, b, inFlightFor(c, "lobby"))
}

func TestSweep_AdmissionVoidWhenPlayerLeftWhileInFlight(t *testing.T) {
	f := newFixture(t, &fakeConnector{})
	c := f.coord
	a, b := uuid.New(), uuid.New()
	require.Equal(t, Success, c.Enqueue(a, "lobby"))
	require.Equal(t, Success, c.Enqueue(b, "lobby"))

	c.Sweep()
	require.Equal(t, a, inFlightFor(c, "lobby"))

	c.OnDisconnect(a)
	f.connector.lastPending().Resolve(admission.Succeeded())
	require.Eventually(t, func() bool { return inFlightFor(c, "lobby") == uuid.Nil }, waitFor, tick)

	assert.Equal(t, []uuid.UUID{b}, c.Members("lobby"))
	_, notified := f.notifier.get(a)
	assert.False(t, notified)
	for _, ch := range f.changes.all() {
		assert.NotEqual(t, notification.ReasonAdmitted, ch.Reason)
	}
}

func TestSweep_AdmissionVoidWhenPlayerMovedWhileInFlight(t *testing.T) {
	f := newFixture(t, &fakeConnector{})
	c := f.coord
	a := uuid.New()
	require.Equal(t, Success, c.Enqueue(a, "lobby"))

	c.Sweep()
	require.Equal(t, a, inFlightFor(c, "lobby"))
	require.Equal(t, Success, c.Enqueue(a, "survival"))

	f.connector.lastPending().Resolve(admission.Succeeded())
	require.Eventually(t, func() bool { return inFlightFor(c, "lobby") == uuid.Nil }, waitFor, tick)

	assert.Equal(t, queue.Queued("survival", 1, 1), c.Snapshot(a))
	assertConsistent(t, c)
}

func TestSweep_NilFutureClearsInFlight(t *testing.T) {
	f := newFixture(t, &fakeConnector{})
	c := f.coord
	c.connector = connectorFunc(func(uuid.UUID) *admission.Future { return nil })
	a := uuid.New()
	require.Equal(t, Success, c.Enqueue(a, "lobby"))

	c.Sweep()
	assert.Equal(t, uuid.Nil, inFlightFor(c, "lobby"))
	assert.Equal(t, 1, c.QueueSize("lobby"))
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	f := newFixture(t, &fakeConnector{autoResolve: true, outcome: admission.Succeeded()})
	c := f.coord
	a := uuid.New()
	require.Equal(t, Success, c.Enqueue(a, "lobby"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Run(ctx)
	}()

	require.Eventually(t, func() bool { return c.QueueSize("lobby") == 0 }, waitFor, tick)
	cancel()

	select {
	case <-done:
	case <-time.After(waitFor):
		t.Fatal("Run did not return after cancel")
	}
}

func TestSweep_BlockedSubscriberDoesNotDelayOtherDestinations(t *testing.T) {
	registry, err := destination.NewRegistry([]destination.Destination{
		{Name: "lobby", Address: "127.0.0.1:25566"},
		{Name: "survival", Address: "127.0.0.1:25567"},
	})
	require.NoError(t, err)

	changes := notification.NewManager()
	defer changes.Close()
	release := make(chan struct{})
	defer close(release)
	changes.Subscribe(notification.SubscriberFunc(func(notification.Change) { <-release }))

	liveness := newFakeLiveness()
	connector := &fakeConnector{}
	c, err := New(Config{}, Deps{
		Registry:  registry,
		Players:   liveness,
		Connector: connector,
		Changes:   changes,
	})
	require.NoError(t, err)

	gone, waiting := uuid.New(), uuid.New()
	start := time.Now()
	require.Equal(t, Success, c.Enqueue(gone, "lobby"))
	require.Equal(t, Success, c.Enqueue(waiting, "survival"))
	liveness.setOffline(gone)

	c.Sweep()
	assert.Less(t, time.Since(start), 100*time.Millisecond)

	assert.Equal(t, 0, c.QueueSize("lobby"))
	assert.Equal(t, waiting, inFlightFor(c, "survival"))
	assert.Equal(t, 1, connector.callCount())
}

func TestSweep_ConnectGuardFollowsMembership(t *testing.T) {
	f := newFixture(t, &fakeConnector{})
	c := f.coord
	mover, stayer := uuid.New(), uuid.New()
	require.Equal(t, Success, c.Enqueue(mover, "lobby"))
	require.Equal(t, Success, c.Enqueue(stayer, "survival"))

	c.Sweep()
	require.Equal(t, 2, f.connector.callCount())
	f.connector.mu.Lock()
	moverGuard, stayerGuard := f.connector.guards[0], f.connector.guards[1]
	f.connector.mu.Unlock()
	require.NotNil(t, moverGuard)
	assert.True(t, moverGuard())

	require.Equal(t, Success, c.Enqueue(mover, "survival"))
	assert.False(t, moverGuard())
	assert.True(t, stayerGuard())

	// The connector reports the abandoned attempt; the lobby marker clears without side effects.
	f.connector.mu.Lock()
	pending := f.connector.pending[0]
	f.connector.mu.Unlock()
	pending.Resolve(admission.Failed(admission.ErrNoLongerQueued))
	require.Eventually(t, func() bool { return inFlightFor(c, "lobby") == uuid.Nil }, waitFor, tick)
	assert.Equal(t, []uuid.UUID{stayer, mover}, c.Members("survival"))
	_, admitted := f.notifier.get(mover)
	assert.False(t, admitted)
	assertConsistent(t, c)
}
