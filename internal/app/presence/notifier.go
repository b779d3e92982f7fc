package presence

import (
	"strings"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"
)

// DefaultAdmittedMessage is used when no admission message is configured.
const DefaultAdmittedMessage = "You have been connected to {destination}."

// Notifier delivers admission messages to players.
type Notifier struct {
	registry *Registry
	template string
}

// NewNotifier creates a notifier. An empty template falls back to DefaultAdmittedMessage.
func NewNotifier(registry *Registry, template string) *Notifier {
	if template == "" {
		template = DefaultAdmittedMessage
	}
	return &Notifier{
		registry: registry,
		template: template,
	}
}

// NotifyAdmitted tells the player they were connected to the destination.
func (n *Notifier) NotifyAdmitted(id uuid.UUID, destination string) {
	msg := strings.ReplaceAll(n.template, "{destination}", destination)
	if err := n.registry.Deliver(id, msg); err != nil {
		zlog.Debug().Msgf("admission message not delivered: player=%s err=%v", id, err)
		return
	}
	zlog.Info().Msgf("player admitted: player=%s destination=%s", id, destination)
}
