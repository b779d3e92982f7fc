// Package notification provides the change manager for broadcasting queue state changes.
package notification

import (
	"sync"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"
)

// DefaultBufferSize is how many undelivered changes a subscriber may have queued.
const DefaultBufferSize = 1024

// Reason describes why queue state changed.
type Reason int

const (
	ReasonEnqueued Reason = iota // Player joined a queue
	ReasonMoved                  // Player switched from one queue to another
	ReasonDequeued               // Player left a queue
	ReasonAdmitted               // Player was admitted to the destination
	ReasonDropped                // Offline head was removed by the sweep
)

// String returns the string representation of the reason.
func (r Reason) String() string {
	switch r {
	case ReasonEnqueued:
		return "enqueued"
	case ReasonMoved:
		return "moved"
	case ReasonDequeued:
		return "dequeued"
	case ReasonAdmitted:
		return "admitted"
	case ReasonDropped:
		return "dropped"
	default:
		return "unknown"
	}
}

// Change describes a coordinator state change.
type Change struct {
	SequenceNo   uint64
	Reason       Reason
	Player       uuid.UUID   // Player that triggered the change
	Affected     []uuid.UUID // Players whose snapshot may differ after the change
	Destinations []string    // Destinations touched by the change
}

// Subscriber receives change notifications.
type Subscriber interface {
	OnChange(Change)
}

// SubscriberFunc adapts a function to Subscriber.
type SubscriberFunc func(Change)

// OnChange calls f(c).
func (f SubscriberFunc) OnChange(c Change) {
	f(c)
}

// subscription represents a registered subscriber and its delivery queue.
type subscription struct {
	id      string
	sub     Subscriber
	pending chan Change
}

// deliver drains the subscription's queue until it is closed.
func (s *subscription) deliver() {
	for change := range s.pending {
		s.dispatch(change)
	}
}

func (s *subscription) dispatch(change Change) {
	defer func() {
		if r := recover(); r != nil {
			zlog.Error().Msgf("change subscriber panicked: subscription=%s err=%v", s.id, r)
		}
	}()
	s.sub.OnChange(change)
}

// Manager manages change subscriptions and broadcasting.
// Every subscriber has its own buffered queue and delivery goroutine, so Publish never waits
// on a subscriber.
type Manager struct {
	mu            sync.Mutex
	subscriptions map[string]*subscription
	sequenceNo    uint64
	bufferSize    int
}

// NewManager creates a new change manager.
func NewManager() *Manager {
	return NewManagerWithBuffer(DefaultBufferSize)
}

// NewManagerWithBuffer creates a change manager whose subscribers queue up to size changes.
func NewManagerWithBuffer(size int) *Manager {
	if size <= 0 {
		size = DefaultBufferSize
	}
	return &Manager{
		subscriptions: make(map[string]*subscription),
		bufferSize:    size,
	}
}

// Subscribe adds a new subscription and returns the subscription ID.
func (m *Manager) Subscribe(sub Subscriber) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New().String()
	s := &subscription{
		id:      id,
		sub:     sub,
		pending: make(chan Change, m.bufferSize),
	}
	m.subscriptions[id] = s
	go s.deliver()
	return id
}

// Unsubscribe removes a subscription. Changes already queued for it are still delivered.
func (m *Manager) Unsubscribe(subscriptionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.subscriptions[subscriptionID]; ok {
		close(s.pending)
		delete(m.subscriptions, subscriptionID)
	}
}

// Publish stamps the change with the next sequence number and queues it for every subscriber.
// It does not block: a change is dropped for a subscriber whose queue is full.
func (m *Manager) Publish(change Change) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sequenceNo++
	change.SequenceNo = m.sequenceNo

	for _, s := range m.subscriptions {
		select {
		case s.pending <- change:
		default:
			zlog.Warn().Msgf("change queue full, dropping: subscription=%s seq=%d reason=%s", s.id, change.SequenceNo, change.Reason)
		}
	}
}

// SubscriberCount returns the number of active subscribers.
func (m *Manager) SubscriberCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subscriptions)
}

// Close removes all subscriptions and stops their delivery goroutines after queued changes drain.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, s := range m.subscriptions {
		close(s.pending)
		delete(m.subscriptions, id)
	}
}
