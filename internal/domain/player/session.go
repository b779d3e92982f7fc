// Package player provides the player Session domain entity.
package player

import (
	"time"

	"github.com/google/uuid"
)

// Session represents an online player known to the proxy.
type Session struct {
	ID          uuid.UUID  // Player UUID
	Name        string     // Display name
	Server      string     // Server currently carrying the player's traffic
	JoinedAt    time.Time  // Login time
	SwitchedAt  *time.Time // Last server switch (nil if never switched)
	LastMessage string     // Last message delivered to the player
}

// NewSession creates a new player session on the given server.
func NewSession(id uuid.UUID, name, server string) *Session {
	return &Session{
		ID:       id,
		Name:     name,
		Server:   server,
		JoinedAt: time.Now(),
	}
}

// SwitchServer moves the player to another server.
func (s *Session) SwitchServer(server string) {
	if s.Server == server {
		return
	}
	s.Server = server
	now := time.Now()
	s.SwitchedAt = &now
}

// IsRouted reports whether the player's traffic is routed to any server.
func (s *Session) IsRouted() bool {
	return s.Server != ""
}
