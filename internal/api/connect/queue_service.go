package connect

import (
	"context"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	lobbyqv1 "github.com/osa030/lobbyq/internal/api/lobbyqv1"
	"github.com/osa030/lobbyq/internal/app/coordinator"
	"github.com/osa030/lobbyq/internal/app/presence"
	"github.com/osa030/lobbyq/internal/infra/config"
)

// QueueService implements the QueueService RPC.
type QueueService struct {
	coordinator *coordinator.Coordinator
	players     *presence.Registry
	config      *config.Config
}

// NewQueueService creates a new QueueService.
func NewQueueService(coord *coordinator.Coordinator, players *presence.Registry, cfg *config.Config) *QueueService {
	return &QueueService{
		coordinator: coord,
		players:     players,
		config:      cfg,
	}
}

// Ensure QueueService implements the interface.
var _ lobbyqv1.QueueServiceHandler = (*QueueService)(nil)

// Join queues an online player for a destination.
func (s *QueueService) Join(
	ctx context.Context,
	req *connect.Request[lobbyqv1.JoinRequest],
) (*connect.Response[lobbyqv1.JoinResponse], error) {
	id, err := s.onlinePlayer(req.Msg.PlayerID)
	if err != nil {
		return nil, err
	}

	dest := req.Msg.Destination
	result := s.coordinator.Enqueue(id, dest)
	if !result.OK() {
		return connect.NewResponse(&lobbyqv1.JoinResponse{
			Success: false,
			Code:    result.String(),
			Message: s.config.Format(result.String(), dest, 0, 0),
		}), nil
	}

	snap := s.coordinator.Snapshot(id)
	return connect.NewResponse(&lobbyqv1.JoinResponse{
		Success:  true,
		Code:     result.String(),
		Message:  s.config.Format("joined", dest, snap.Position, snap.Total),
		Position: int32(snap.Position),
		Total:    int32(snap.Total),
	}), nil
}

// Leave removes a player from whichever queue holds them.
func (s *QueueService) Leave(
	ctx context.Context,
	req *connect.Request[lobbyqv1.LeaveRequest],
) (*connect.Response[lobbyqv1.LeaveResponse], error) {
	id, err := parsePlayerID(req.Msg.PlayerID)
	if err != nil {
		return nil, err
	}

	dest, _ := s.coordinator.QueuedDestination(id)
	result := s.coordinator.Dequeue(id)
	code := result.String()
	msgCode := code
	if result.OK() {
		msgCode = "left"
	}

	return connect.NewResponse(&lobbyqv1.LeaveResponse{
		Success: result.OK(),
		Code:    code,
		Message: s.config.Format(msgCode, dest, 0, 0),
	}), nil
}

// Position returns a player's current queue status.
func (s *QueueService) Position(
	ctx context.Context,
	req *connect.Request[lobbyqv1.PositionRequest],
) (*connect.Response[lobbyqv1.PositionResponse], error) {
	id, err := parsePlayerID(req.Msg.PlayerID)
	if err != nil {
		return nil, err
	}

	snap := s.coordinator.Snapshot(id)
	code := "position"
	if !snap.InQueue {
		code = coordinator.NotQueued.String()
	}

	return connect.NewResponse(&lobbyqv1.PositionResponse{
		InQueue:     snap.InQueue,
		Destination: snap.Destination,
		Position:    int32(snap.Position),
		Total:       int32(snap.Total),
		Message:     s.config.Format(code, snap.Destination, snap.Position, snap.Total),
	}), nil
}

// onlinePlayer parses the id and checks the player is logged in.
func (s *QueueService) onlinePlayer(raw string) (uuid.UUID, error) {
	id, err := parsePlayerID(raw)
	if err != nil {
		return uuid.Nil, err
	}
	if !s.players.IsOnline(id) {
		return uuid.Nil, connect.NewError(connect.CodeFailedPrecondition,
			errors.Wrapf(presence.ErrUnknownPlayer, "player %s", id))
	}
	return id, nil
}

// parsePlayerID parses a player id, mapping failures to InvalidArgument.
func parsePlayerID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, connect.NewError(connect.CodeInvalidArgument,
			errors.Wrapf(err, "invalid player id %q", raw))
	}
	return id, nil
}
