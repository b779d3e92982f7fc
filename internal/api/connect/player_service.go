package connect

import (
	"context"
	"strings"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	lobbyqv1 "github.com/osa030/lobbyq/internal/api/lobbyqv1"
	"github.com/osa030/lobbyq/internal/app/coordinator"
	"github.com/osa030/lobbyq/internal/app/presence"
)

// PlayerService implements the PlayerService RPC: the host's connect, server switch and disconnect hooks.
type PlayerService struct {
	coordinator *coordinator.Coordinator
	players     *presence.Registry
}

// NewPlayerService creates a new PlayerService.
func NewPlayerService(coord *coordinator.Coordinator, players *presence.Registry) *PlayerService {
	return &PlayerService{
		coordinator: coord,
		players:     players,
	}
}

// Ensure PlayerService implements the interface.
var _ lobbyqv1.PlayerServiceHandler = (*PlayerService)(nil)

// Login registers a connected player, assigning an id if none is given.
func (s *PlayerService) Login(
	ctx context.Context,
	req *connect.Request[lobbyqv1.LoginRequest],
) (*connect.Response[lobbyqv1.LoginResponse], error) {
	name := strings.TrimSpace(req.Msg.Name)
	if name == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("name is required"))
	}

	id := uuid.New()
	if req.Msg.PlayerID != "" {
		parsed, err := parsePlayerID(req.Msg.PlayerID)
		if err != nil {
			return nil, err
		}
		id = parsed
	}

	session := s.players.Login(id, name, req.Msg.Server)
	return connect.NewResponse(&lobbyqv1.LoginResponse{
		PlayerID: session.ID.String(),
	}), nil
}

// SwitchServer records the server now carrying the player's traffic.
func (s *PlayerService) SwitchServer(
	ctx context.Context,
	req *connect.Request[lobbyqv1.SwitchServerRequest],
) (*connect.Response[lobbyqv1.SwitchServerResponse], error) {
	id, err := parsePlayerID(req.Msg.PlayerID)
	if err != nil {
		return nil, err
	}
	if err := s.players.SwitchServer(id, req.Msg.Server); err != nil {
		return nil, connect.NewError(connect.CodeNotFound, err)
	}
	return connect.NewResponse(&lobbyqv1.SwitchServerResponse{}), nil
}

// Logout removes the player from their queue and the online set.
func (s *PlayerService) Logout(
	ctx context.Context,
	req *connect.Request[lobbyqv1.LogoutRequest],
) (*connect.Response[lobbyqv1.LogoutResponse], error) {
	id, err := parsePlayerID(req.Msg.PlayerID)
	if err != nil {
		return nil, err
	}

	_, wasQueued := s.coordinator.QueuedDestination(id)
	s.coordinator.OnDisconnect(id)
	if err := s.players.Logout(id); err != nil {
		zlog.Debug().Msgf("logout for unknown player: player=%s", id)
	}

	return connect.NewResponse(&lobbyqv1.LogoutResponse{WasQueued: wasQueued}), nil
}
