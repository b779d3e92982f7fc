package coordinator

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/lobbyq/internal/app/admission"
	"github.com/osa030/lobbyq/internal/app/notification"
	"github.com/osa030/lobbyq/internal/domain/destination"
)

// sweepAction is what a sweep decided to do for one destination.
type sweepAction int

const (
	actionSkip    sweepAction = iota // Paused, empty or admission in flight
	actionDropped                    // Offline head removed
	actionAttempt                    // Connect attempt issued for the head
)

// Run sweeps every SweepInterval until ctx is done.
func (c *Coordinator) Run(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			zlog.Error().Msgf("admission loop panicked: %v", r)
			zlog.Info().Msg("restarting admission loop")
			go c.Run(ctx)
		}
	}()

	ticker := time.NewTicker(c.config.SweepInterval)
	defer ticker.Stop()

	zlog.Info().Msgf("admission loop started: interval=%v destinations=%d", c.config.SweepInterval, c.registry.Len())
	for {
		select {
		case <-ctx.Done():
			zlog.Info().Msg("admission loop stopped")
			return
		case <-ticker.C:
			c.Sweep()
		}
	}
}

// Sweep runs one admission tick over every destination in registry order.
// It never waits for connect attempts to finish.
func (c *Coordinator) Sweep() {
	for _, name := range c.registry.Names() {
		c.sweepDestination(name)
	}
}

// sweepDestination handles one destination. A panic here is contained to this destination.
func (c *Coordinator) sweepDestination(name string) {
	var (
		claimed bool
		head    uuid.UUID
	)
	defer func() {
		if r := recover(); r != nil {
			zlog.Error().Msgf("admission sweep panicked: destination=%s err=%v", name, r)
			if claimed {
				c.clearInFlight(name, head)
			}
		}
	}()

	action, head, dest, affected := c.claimHead(name)
	switch action {
	case actionSkip:
		return

	case actionDropped:
		zlog.Info().Msgf("removed offline player from queue: player=%s destination=%s", head, name)
		c.publish(notification.Change{
			Reason:       notification.ReasonDropped,
			Player:       head,
			Affected:     affected,
			Destinations: []string{name},
		})
		return

	case actionAttempt:
		claimed = true
		zlog.Debug().Msgf("admission attempt: player=%s destination=%s", head, name)
		player := head
		future := c.connector.Connect(player, dest, func() bool {
			return c.isQueuedFor(player, name)
		})
		if future == nil {
			c.clearInFlight(name, player)
			return
		}
		future.OnComplete(func(o admission.Outcome) {
			c.completeAdmission(name, player, o)
		})
	}
}

// claimHead inspects the destination under the lock and either skips it, drops an offline head,
// or marks an admission in flight for the head.
func (c *Coordinator) claimHead(name string) (sweepAction, uuid.UUID, destination.Destination, []uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ds, ok := c.states[name]
	if !ok || ds.paused || len(ds.queue) == 0 || ds.inFlight != nil {
		return actionSkip, uuid.Nil, destination.Destination{}, nil
	}

	head := ds.queue[0]
	if !c.players.IsOnline(head) {
		ds.remove(head)
		delete(c.members, head)
		affected := append([]uuid.UUID{head}, ds.queue...)
		return actionDropped, head, ds.dest, affected
	}

	ds.inFlight = &inFlight{
		player:    head,
		startedAt: time.Now(),
	}
	return actionAttempt, head, ds.dest, nil
}

// completeAdmission is the continuation of a connect attempt.
// Success removes the player only if they are still queued for this destination.
// Failure leaves the player at the head for the next tick.
func (c *Coordinator) completeAdmission(name string, id uuid.UUID, o admission.Outcome) {
	c.mu.Lock()

	ds := c.states[name]
	var elapsed time.Duration
	if ds.inFlight != nil && ds.inFlight.player == id {
		elapsed = time.Since(ds.inFlight.startedAt)
		ds.inFlight = nil
	}

	if !o.Connected {
		c.mu.Unlock()
		if errors.Is(o.Err, admission.ErrNoLongerQueued) {
			zlog.Debug().Msgf("admission abandoned, player left the queue: player=%s destination=%s", id, name)
			return
		}
		zlog.Debug().Msgf("admission failed, will retry: player=%s destination=%s err=%v", id, name, o.Err)
		return
	}

	if c.members[id] != name {
		c.mu.Unlock()
		zlog.Debug().Msgf("admission completed for player no longer queued: player=%s destination=%s", id, name)
		return
	}

	ds.remove(id)
	delete(c.members, id)
	affected := append([]uuid.UUID{id}, ds.queue...)
	c.mu.Unlock()

	zlog.Info().Msgf("admission succeeded: player=%s destination=%s elapsed=%v", id, name, elapsed)
	if c.notifier != nil {
		c.notifier.NotifyAdmitted(id, name)
	}
	c.publish(notification.Change{
		Reason:       notification.ReasonAdmitted,
		Player:       id,
		Affected:     affected,
		Destinations: []string{name},
	})
}

// clearInFlight drops the in-flight marker if it still belongs to the player.
func (c *Coordinator) clearInFlight(name string, id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ds, ok := c.states[name]; ok && ds.inFlight != nil && ds.inFlight.player == id {
		ds.inFlight = nil
	}
}
