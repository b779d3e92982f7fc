package bridge

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/lobbyq/internal/domain/queue"
)

// DefaultRefreshInterval is how often tracked players are re-requested.
const DefaultRefreshInterval = time.Second

// Sender sends a frame to the back-end.
type Sender interface {
	Send(frame []byte) error
}

// UpdateFunc is called with every snapshot received for a player.
type UpdateFunc func(id uuid.UUID, snapshot queue.Snapshot)

// SyncerConfig holds front-end syncer configuration.
type SyncerConfig struct {
	Channel         string
	RefreshInterval time.Duration
	OnUpdate        UpdateFunc
}

// Syncer is the front-end side of the bridge. It keeps the latest snapshot per player
// (last write wins) and re-requests tracked players periodically.
type Syncer struct {
	channel  string
	interval time.Duration
	sender   Sender
	onUpdate UpdateFunc

	mu        sync.RWMutex
	snapshots map[uuid.UUID]queue.Snapshot
	tracked   map[uuid.UUID]struct{}
}

// NewSyncer creates a front-end syncer.
func NewSyncer(sender Sender, cfg SyncerConfig) *Syncer {
	if cfg.Channel == "" {
		cfg.Channel = DefaultChannel
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = DefaultRefreshInterval
	}
	return &Syncer{
		channel:   cfg.Channel,
		interval:  cfg.RefreshInterval,
		sender:    sender,
		onUpdate:  cfg.OnUpdate,
		snapshots: make(map[uuid.UUID]queue.Snapshot),
		tracked:   make(map[uuid.UUID]struct{}),
	}
}

// LatestSnapshot returns the most recently received snapshot, or the not-queued default.
func (s *Syncer) LatestSnapshot(id uuid.UUID) queue.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.snapshots[id]
	if !ok {
		return queue.NotQueued()
	}
	return snap
}

// RequestRefresh sends a RequestQueueStatus for the player.
func (s *Syncer) RequestRefresh(id uuid.UUID) error {
	frame, err := encodeMessage(s.channel, RequestQueueStatus{PlayerID: id})
	if err != nil {
		return errors.Wrap(err, "encode request")
	}
	if err := s.sender.Send(frame); err != nil {
		return errors.Wrapf(err, "send request for %s", id)
	}
	return nil
}

// Track starts periodic refresh for a player and requests a snapshot immediately.
func (s *Syncer) Track(id uuid.UUID) {
	s.mu.Lock()
	s.tracked[id] = struct{}{}
	s.mu.Unlock()

	if err := s.RequestRefresh(id); err != nil {
		zlog.Debug().Msgf("initial queue refresh failed: player=%s err=%v", id, err)
	}
}

// Untrack stops refreshing a player and forgets their snapshot.
func (s *Syncer) Untrack(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tracked, id)
	delete(s.snapshots, id)
}

// Tracked returns the tracked player ids.
func (s *Syncer) Tracked() []uuid.UUID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]uuid.UUID, 0, len(s.tracked))
	for id := range s.tracked {
		result = append(result, id)
	}
	return result
}

// HandleFrame stores an inbound QueueStatus for a tracked player. Statuses for untracked
// players and malformed frames are dropped.
func (s *Syncer) HandleFrame(data []byte) {
	channel, payload, err := DecodeFrame(data)
	if err != nil {
		zlog.Warn().Msgf("dropping malformed bridge frame: err=%v", err)
		return
	}
	if channel != s.channel {
		return
	}

	msg, err := Decode(payload)
	if err != nil {
		zlog.Warn().Msgf("dropping undecodable bridge message: err=%v", err)
		return
	}

	status, ok := msg.(QueueStatus)
	if !ok {
		zlog.Debug().Msgf("ignoring bridge message: subchannel=%s", msg.Subchannel())
		return
	}

	s.mu.Lock()
	if _, tracked := s.tracked[status.PlayerID]; !tracked {
		s.mu.Unlock()
		zlog.Debug().Msgf("ignoring queue status for untracked player: player=%s", status.PlayerID)
		return
	}
	s.snapshots[status.PlayerID] = status.Snapshot
	s.mu.Unlock()

	if s.onUpdate != nil {
		s.onUpdate(status.PlayerID, status.Snapshot)
	}
}

// Run re-requests every tracked player each refresh interval until ctx is done.
func (s *Syncer) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.refreshAll()
		}
	}
}

func (s *Syncer) refreshAll() {
	for _, id := range s.Tracked() {
		if err := s.RequestRefresh(id); err != nil {
			zlog.Debug().Msgf("queue refresh failed: player=%s err=%v", id, err)
		}
	}
}
