package bridge

import (
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/lobbyq/internal/app/notification"
	"github.com/osa030/lobbyq/internal/domain/queue"
)

// SnapshotReader reads a player's current queue status.
type SnapshotReader interface {
	Snapshot(id uuid.UUID) queue.Snapshot
}

// PlayerResolver resolves a player to the server currently carrying their traffic.
type PlayerResolver interface {
	CurrentServer(id uuid.UUID) (string, bool)
}

// Router delivers a frame to a named server's bridge connection.
type Router interface {
	SendTo(server string, frame []byte) error
}

// Backend answers RequestQueueStatus messages and pushes snapshots on change.
type Backend struct {
	channel   string
	snapshots SnapshotReader
	players   PlayerResolver
	router    Router
}

// NewBackend creates a back-end responder. An empty channel uses DefaultChannel.
func NewBackend(channel string, snapshots SnapshotReader, players PlayerResolver, router Router) *Backend {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Backend{
		channel:   channel,
		snapshots: snapshots,
		players:   players,
		router:    router,
	}
}

// HandleFrame processes one inbound frame from a server. Malformed frames are logged and dropped.
func (b *Backend) HandleFrame(from string, data []byte) {
	channel, payload, err := DecodeFrame(data)
	if err != nil {
		zlog.Warn().Msgf("dropping malformed bridge frame: server=%s err=%v", from, err)
		return
	}
	if channel != b.channel {
		return
	}

	msg, err := Decode(payload)
	if err != nil {
		zlog.Warn().Msgf("dropping undecodable bridge message: server=%s err=%v", from, err)
		return
	}

	switch m := msg.(type) {
	case RequestQueueStatus:
		b.Push(m.PlayerID)
	default:
		zlog.Debug().Msgf("ignoring bridge message: server=%s subchannel=%s", from, msg.Subchannel())
	}
}

// Push reads a fresh snapshot and sends it to the server carrying the player.
// Returns false if the player could not be resolved or the send failed.
func (b *Backend) Push(id uuid.UUID) bool {
	server, ok := b.players.CurrentServer(id)
	if !ok {
		zlog.Debug().Msgf("queue status dropped, player not routed: player=%s", id)
		return false
	}

	status := QueueStatus{PlayerID: id, Snapshot: b.snapshots.Snapshot(id)}
	frame, err := encodeMessage(b.channel, status)
	if err != nil {
		zlog.Warn().Msgf("failed to encode queue status: player=%s err=%v", id, err)
		return false
	}

	if err := b.router.SendTo(server, frame); err != nil {
		zlog.Debug().Msgf("queue status dropped: player=%s server=%s err=%v", id, server, err)
		return false
	}
	return true
}

// OnChange pushes a snapshot to every player affected by the change.
func (b *Backend) OnChange(change notification.Change) {
	seen := make(map[uuid.UUID]struct{}, len(change.Affected)+1)
	ids := append([]uuid.UUID{change.Player}, change.Affected...)
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		b.Push(id)
	}
}
