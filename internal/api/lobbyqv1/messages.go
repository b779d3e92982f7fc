// Package lobbyqv1 defines the lobbyq.v1 RPC messages, procedures, handlers and clients.
// Messages travel as JSON over the Connect protocol.
package lobbyqv1

// JoinRequest asks to queue a player for a destination.
type JoinRequest struct {
	PlayerID    string `json:"player_id"`
	Destination string `json:"destination"`
}

// JoinResponse reports the outcome of a join.
type JoinResponse struct {
	Success  bool   `json:"success"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Position int32  `json:"position,omitempty"`
	Total    int32  `json:"total,omitempty"`
}

// LeaveRequest asks to remove a player from their queue.
type LeaveRequest struct {
	PlayerID string `json:"player_id"`
}

// LeaveResponse reports the outcome of a leave.
type LeaveResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PositionRequest asks for a player's queue status.
type PositionRequest struct {
	PlayerID string `json:"player_id"`
}

// PositionResponse carries a player's queue status.
type PositionResponse struct {
	InQueue     bool   `json:"in_queue"`
	Destination string `json:"destination,omitempty"`
	Position    int32  `json:"position"`
	Total       int32  `json:"total"`
	Message     string `json:"message"`
}

// LoginRequest registers a connected player. An empty PlayerID is assigned by the server.
type LoginRequest struct {
	PlayerID string `json:"player_id,omitempty"`
	Name     string `json:"name"`
	Server   string `json:"server,omitempty"`
}

// LoginResponse returns the player's id.
type LoginResponse struct {
	PlayerID string `json:"player_id"`
}

// SwitchServerRequest records that a player's traffic moved to another server.
type SwitchServerRequest struct {
	PlayerID string `json:"player_id"`
	Server   string `json:"server"`
}

// SwitchServerResponse is empty.
type SwitchServerResponse struct{}

// LogoutRequest reports a player disconnect.
type LogoutRequest struct {
	PlayerID string `json:"player_id"`
}

// LogoutResponse reports whether the player was queued when they left.
type LogoutResponse struct {
	WasQueued bool `json:"was_queued"`
}

// StatusRequest is empty.
type StatusRequest struct{}

// DestinationStatus is the admin view of one destination.
type DestinationStatus struct {
	Name     string `json:"name"`
	Address  string `json:"address"`
	Paused   bool   `json:"paused"`
	Size     int32  `json:"size"`
	InFlight string `json:"in_flight,omitempty"`
}

// StatusResponse carries every destination and connection counts.
type StatusResponse struct {
	Destinations  []DestinationStatus `json:"destinations"`
	OnlinePlayers int32               `json:"online_players"`
	BridgeServers []string            `json:"bridge_servers"`
}

// PauseRequest names a destination to pause or unpause.
type PauseRequest struct {
	Destination string `json:"destination"`
}

// PauseResponse reports the outcome of a pause or unpause.
type PauseResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
