package connect

import (
	"context"
	"sort"

	"connectrpc.com/connect"
	"github.com/google/uuid"

	lobbyqv1 "github.com/osa030/lobbyq/internal/api/lobbyqv1"
	"github.com/osa030/lobbyq/internal/app/coordinator"
	"github.com/osa030/lobbyq/internal/app/presence"
	"github.com/osa030/lobbyq/internal/domain/destination"
	"github.com/osa030/lobbyq/internal/infra/config"
)

// BridgePeers lists servers with a live bridge connection.
type BridgePeers interface {
	Connected() []string
}

// AdminService implements the AdminService RPC.
type AdminService struct {
	coordinator  *coordinator.Coordinator
	destinations *destination.Registry
	players      *presence.Registry
	bridge       BridgePeers
	config       *config.Config
}

// NewAdminService creates a new AdminService. bridge may be nil.
func NewAdminService(
	coord *coordinator.Coordinator,
	destinations *destination.Registry,
	players *presence.Registry,
	bridge BridgePeers,
	cfg *config.Config,
) *AdminService {
	return &AdminService{
		coordinator:  coord,
		destinations: destinations,
		players:      players,
		bridge:       bridge,
		config:       cfg,
	}
}

// Ensure AdminService implements the interface.
var _ lobbyqv1.AdminServiceHandler = (*AdminService)(nil)

// Status returns every destination's queue state.
func (s *AdminService) Status(
	ctx context.Context,
	req *connect.Request[lobbyqv1.StatusRequest],
) (*connect.Response[lobbyqv1.StatusResponse], error) {
	statuses := s.coordinator.Status()

	resp := &lobbyqv1.StatusResponse{
		Destinations:  make([]lobbyqv1.DestinationStatus, 0, len(statuses)),
		OnlinePlayers: int32(s.players.Count()),
		BridgeServers: []string{},
	}
	for _, st := range statuses {
		d, _ := s.destinations.Get(st.Name)
		ds := lobbyqv1.DestinationStatus{
			Name:    st.Name,
			Address: d.Address,
			Paused:  st.Paused,
			Size:    int32(st.Size),
		}
		if st.InFlight != uuid.Nil {
			ds.InFlight = st.InFlight.String()
		}
		resp.Destinations = append(resp.Destinations, ds)
	}
	if s.bridge != nil {
		resp.BridgeServers = s.bridge.Connected()
		sort.Strings(resp.BridgeServers)
	}

	return connect.NewResponse(resp), nil
}

// Pause stops admissions for a destination.
func (s *AdminService) Pause(
	ctx context.Context,
	req *connect.Request[lobbyqv1.PauseRequest],
) (*connect.Response[lobbyqv1.PauseResponse], error) {
	return s.pauseResponse(req.Msg.Destination, s.coordinator.Pause(req.Msg.Destination), "paused"), nil
}

// Unpause resumes admissions for a destination.
func (s *AdminService) Unpause(
	ctx context.Context,
	req *connect.Request[lobbyqv1.PauseRequest],
) (*connect.Response[lobbyqv1.PauseResponse], error) {
	return s.pauseResponse(req.Msg.Destination, s.coordinator.Unpause(req.Msg.Destination), "unpaused"), nil
}

func (s *AdminService) pauseResponse(dest string, result coordinator.Result, okCode string) *connect.Response[lobbyqv1.PauseResponse] {
	msgCode := result.String()
	if result.OK() {
		msgCode = okCode
	}
	return connect.NewResponse(&lobbyqv1.PauseResponse{
		Success: result.OK(),
		Code:    result.String(),
		Message: s.config.Format(msgCode, dest, 0, s.coordinator.QueueSize(dest)),
	})
}
