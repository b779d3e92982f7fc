// Package presence provides the registry of online players and the server carrying each player's traffic.
package presence

import (
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/osa030/lobbyq/internal/domain/player"
)

var (
	ErrUnknownPlayer = errors.New("unknown player")
)

// Registry manages online player sessions with thread-safe access.
type Registry struct {
	mu      sync.RWMutex
	players map[uuid.UUID]*player.Session
}

// NewRegistry creates a new player registry.
func NewRegistry() *Registry {
	return &Registry{
		players: make(map[uuid.UUID]*player.Session),
	}
}

// Login registers a player as online on the given server.
// Logging in an already online player updates its name and server.
func (r *Registry) Login(id uuid.UUID, name, server string) player.Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.players[id]; ok {
		s.Name = name
		s.SwitchServer(server)
		return *s
	}

	s := player.NewSession(id, name, server)
	r.players[id] = s
	return *s
}

// Logout removes a player.
func (r *Registry) Logout(id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.players[id]; !ok {
		return ErrUnknownPlayer
	}
	delete(r.players, id)
	return nil
}

// Get returns a copy of the player's session.
func (r *Registry) Get(id uuid.UUID) (player.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.players[id]
	if !ok {
		return player.Session{}, ErrUnknownPlayer
	}
	return *s, nil
}

// IsOnline reports whether the player is connected.
func (r *Registry) IsOnline(id uuid.UUID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.players[id]
	return ok
}

// CurrentServer returns the server currently carrying the player's traffic.
// Returns false when the player is offline or not routed to any server.
func (r *Registry) CurrentServer(id uuid.UUID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.players[id]
	if !ok || !s.IsRouted() {
		return "", false
	}
	return s.Server, true
}

// SwitchServer moves an online player to another server.
func (r *Registry) SwitchServer(id uuid.UUID, server string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.players[id]
	if !ok {
		return ErrUnknownPlayer
	}
	s.SwitchServer(server)
	return nil
}

// Deliver records a message for an online player.
func (r *Registry) Deliver(id uuid.UUID, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.players[id]
	if !ok {
		return ErrUnknownPlayer
	}
	s.LastMessage = message
	return nil
}

// OnServer returns the ids of players currently on the given server.
func (r *Registry) OnServer(server string) []uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]uuid.UUID, 0)
	for id, s := range r.players {
		if s.Server == server {
			result = append(result, id)
		}
	}
	return result
}

// All returns copies of all player sessions.
func (r *Registry) All() []player.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]player.Session, 0, len(r.players))
	for _, s := range r.players {
		result = append(result, *s)
	}
	return result
}

// Count returns the number of online players.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players)
}
