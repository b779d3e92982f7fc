// Package coordinator provides the queue coordinator: per-destination FIFO admission queues,
// pause state and the periodic admission sweep.
package coordinator

import (
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/lobbyq/internal/app/admission"
	"github.com/osa030/lobbyq/internal/app/notification"
	"github.com/osa030/lobbyq/internal/domain/destination"
	"github.com/osa030/lobbyq/internal/domain/queue"
)

// DefaultSweepInterval is the admission sweep period when none is configured.
const DefaultSweepInterval = time.Second

// Liveness reports whether a player is still connected.
type Liveness interface {
	IsOnline(id uuid.UUID) bool
}

// Connector starts a non-blocking connect attempt.
type Connector interface {
	Connect(id uuid.UUID, dest destination.Destination, stillQueued admission.Guard) *admission.Future
}

// Notifier tells a player they were admitted.
type Notifier interface {
	NotifyAdmitted(id uuid.UUID, destination string)
}

// ChangePublisher receives state changes for push on change.
type ChangePublisher interface {
	Publish(change notification.Change)
}

// Config holds coordinator configuration.
type Config struct {
	SweepInterval time.Duration // Admission sweep period
}

// Deps holds the coordinator's collaborators. Notifier and Changes are optional.
type Deps struct {
	Registry  *destination.Registry
	Players   Liveness
	Connector Connector
	Notifier  Notifier
	Changes   ChangePublisher
}

// DestinationStatus is a point-in-time view of one destination.
type DestinationStatus struct {
	Name     string
	Paused   bool
	Size     int
	InFlight uuid.UUID // Player with an outstanding connect attempt (uuid.Nil if none)
}

// inFlight marks an outstanding connect attempt for a destination's head.
type inFlight struct {
	player    uuid.UUID
	startedAt time.Time
}

// destinationState is the mutable per-destination state. Guarded by Coordinator.mu.
type destinationState struct {
	dest     destination.Destination
	queue    []uuid.UUID
	paused   bool
	inFlight *inFlight
}

// indexOf returns the 0-based index of the player, or -1.
func (s *destinationState) indexOf(id uuid.UUID) int {
	for i, p := range s.queue {
		if p == id {
			return i
		}
	}
	return -1
}

// remove deletes the player from the queue, preserving order.
func (s *destinationState) remove(id uuid.UUID) bool {
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.queue = append(s.queue[:i], s.queue[i+1:]...)
	return true
}

// Coordinator owns all queues and the player membership index.
type Coordinator struct {
	mu sync.RWMutex

	config   Config
	registry *destination.Registry

	// Queue state
	states  map[string]*destinationState
	members map[uuid.UUID]string // player -> destination name

	// Collaborators
	players   Liveness
	connector Connector
	notifier  Notifier
	changes   ChangePublisher
}

// New creates a coordinator with one empty, unpaused queue per registered destination.
func New(cfg Config, deps Deps) (*Coordinator, error) {
	if deps.Registry == nil {
		return nil, errors.New("destination registry is required")
	}
	if deps.Players == nil {
		return nil, errors.New("liveness check is required")
	}
	if deps.Connector == nil {
		return nil, errors.New("connector is required")
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultSweepInterval
	}

	c := &Coordinator{
		config:    cfg,
		registry:  deps.Registry,
		states:    make(map[string]*destinationState, deps.Registry.Len()),
		members:   make(map[uuid.UUID]string),
		players:   deps.Players,
		connector: deps.Connector,
		notifier:  deps.Notifier,
		changes:   deps.Changes,
	}
	for _, d := range deps.Registry.All() {
		c.states[d.Name] = &destinationState{
			dest:  d,
			queue: make([]uuid.UUID, 0),
		}
	}

	return c, nil
}

// Enqueue appends the player to the destination's queue.
// A player queued elsewhere is moved atomically.
func (c *Coordinator) Enqueue(id uuid.UUID, name string) Result {
	c.mu.Lock()

	ds, ok := c.states[name]
	if !ok {
		c.mu.Unlock()
		return DestinationNotFound
	}

	reason := notification.ReasonEnqueued
	touched := []string{name}
	affected := make([]uuid.UUID, 0, len(ds.queue)+1)

	if current, queued := c.members[id]; queued {
		if current == name {
			c.mu.Unlock()
			return AlreadyQueuedForThis
		}
		old := c.states[current]
		old.remove(id)
		affected = append(affected, old.queue...)
		touched = append(touched, current)
		reason = notification.ReasonMoved
	}

	ds.queue = append(ds.queue, id)
	c.members[id] = name
	affected = append(affected, ds.queue...)
	c.mu.Unlock()

	zlog.Debug().Msgf("player queued: player=%s destination=%s reason=%s", id, name, reason)
	c.publish(notification.Change{
		Reason:       reason,
		Player:       id,
		Affected:     affected,
		Destinations: touched,
	})
	return Success
}

// Dequeue removes the player from whichever queue holds them.
func (c *Coordinator) Dequeue(id uuid.UUID) Result {
	c.mu.Lock()

	name, ok := c.members[id]
	if !ok {
		c.mu.Unlock()
		return NotQueued
	}

	ds := c.states[name]
	ds.remove(id)
	delete(c.members, id)
	affected := append([]uuid.UUID{id}, ds.queue...)
	c.mu.Unlock()

	zlog.Debug().Msgf("player dequeued: player=%s destination=%s", id, name)
	c.publish(notification.Change{
		Reason:       notification.ReasonDequeued,
		Player:       id,
		Affected:     affected,
		Destinations: []string{name},
	})
	return Success
}

// OnDisconnect is the host disconnect hook.
func (c *Coordinator) OnDisconnect(id uuid.UUID) {
	c.Dequeue(id)
}

// Position returns the player's 1-based rank in their queue.
func (c *Coordinator) Position(id uuid.UUID) (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	name, ok := c.members[id]
	if !ok {
		return 0, false
	}
	i := c.states[name].indexOf(id)
	if i < 0 {
		return 0, false
	}
	return i + 1, true
}

// QueueSize returns the current queue length (0 for unknown destinations).
func (c *Coordinator) QueueSize(name string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ds, ok := c.states[name]
	if !ok {
		return 0
	}
	return len(ds.queue)
}

// QueuedDestination returns the destination the player is queued for.
func (c *Coordinator) QueuedDestination(id uuid.UUID) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	name, ok := c.members[id]
	return name, ok
}

// isQueuedFor reports whether the player is still queued for the destination.
func (c *Coordinator) isQueuedFor(id uuid.UUID, name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.members[id] == name
}

// Snapshot returns a consistent copy of the player's queue status.
func (c *Coordinator) Snapshot(id uuid.UUID) queue.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	name, ok := c.members[id]
	if !ok {
		return queue.NotQueued()
	}
	ds := c.states[name]
	i := ds.indexOf(id)
	if i < 0 {
		return queue.NotQueued()
	}
	return queue.Queued(name, i+1, len(ds.queue))
}

// Members returns a copy of the destination's queue in order.
func (c *Coordinator) Members(name string) []uuid.UUID {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ds, ok := c.states[name]
	if !ok {
		return nil
	}
	result := make([]uuid.UUID, len(ds.queue))
	copy(result, ds.queue)
	return result
}

// Pause stops admissions for the destination. Idempotent.
func (c *Coordinator) Pause(name string) Result {
	return c.setPaused(name, true)
}

// Unpause resumes admissions for the destination. Idempotent.
func (c *Coordinator) Unpause(name string) Result {
	return c.setPaused(name, false)
}

func (c *Coordinator) setPaused(name string, paused bool) Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	ds, ok := c.states[name]
	if !ok {
		return DestinationNotFound
	}
	if ds.paused != paused {
		zlog.Info().Msgf("queue pause changed: destination=%s paused=%v size=%d", name, paused, len(ds.queue))
	}
	ds.paused = paused
	return Success
}

// IsPaused reports whether the destination is paused (false for unknown destinations).
func (c *Coordinator) IsPaused(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ds, ok := c.states[name]
	return ok && ds.paused
}

// Destinations returns destination names in registry order.
func (c *Coordinator) Destinations() []string {
	return c.registry.Names()
}

// Status returns the state of every destination in registry order.
func (c *Coordinator) Status() []DestinationStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]DestinationStatus, 0, len(c.states))
	for _, name := range c.registry.Names() {
		ds := c.states[name]
		st := DestinationStatus{
			Name:   name,
			Paused: ds.paused,
			Size:   len(ds.queue),
		}
		if ds.inFlight != nil {
			st.InFlight = ds.inFlight.player
		}
		result = append(result, st)
	}
	return result
}

// publish forwards a change to the publisher, if any. Must be called without c.mu held.
func (c *Coordinator) publish(change notification.Change) {
	if c.changes == nil {
		return
	}
	c.changes.Publish(change)
}
