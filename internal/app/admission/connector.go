package admission

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/lobbyq/internal/domain/destination"
)

var (
	ErrPlayerOffline  = errors.New("player is offline")
	ErrNoLongerQueued = errors.New("player is no longer queued for the destination")
)

// Guard reports whether the attempt should still transfer the player.
type Guard func() bool

// DefaultConnectTimeout bounds a single connect attempt when none is configured.
const DefaultConnectTimeout = 5 * time.Second

// Players is the subset of the player registry a connector needs.
type Players interface {
	IsOnline(id uuid.UUID) bool
	SwitchServer(id uuid.UUID, server string) error
}

// Connector transfers players to destinations after probing them.
type Connector struct {
	prober  Prober
	players Players
	timeout time.Duration
}

// NewConnector creates a connector.
func NewConnector(prober Prober, players Players, timeout time.Duration) *Connector {
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}
	return &Connector{
		prober:  prober,
		players: players,
		timeout: timeout,
	}
}

// Connect starts a connect attempt and returns immediately.
// The returned future resolves when the attempt finishes or times out.
// stillQueued, if non-nil, is checked after the probe; the player is not transferred when it
// returns false.
func (c *Connector) Connect(id uuid.UUID, dest destination.Destination, stillQueued Guard) *Future {
	f := NewFuture()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()

		if !c.players.IsOnline(id) {
			f.Resolve(Failed(ErrPlayerOffline))
			return
		}

		if err := c.prober.Probe(ctx, dest); err != nil {
			zlog.Debug().Msgf("connect attempt failed: player=%s destination=%s prober=%s err=%v", id, dest.Name, c.prober.Name(), err)
			f.Resolve(Failed(err))
			return
		}

		if stillQueued != nil && !stillQueued() {
			f.Resolve(Failed(ErrNoLongerQueued))
			return
		}

		if err := c.players.SwitchServer(id, dest.Name); err != nil {
			f.Resolve(Failed(errors.Wrapf(err, "switch player %s to %s", id, dest.Name)))
			return
		}

		f.Resolve(Succeeded())
	}()

	return f
}
