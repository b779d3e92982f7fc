// Package queue provides the queue status value types shared by the coordinator and the bridge.
package queue

// NotQueuedPosition is the position reported for a player who is not queued.
const NotQueuedPosition = -1

// Snapshot is a point-in-time copy of a player's queue status.
type Snapshot struct {
	InQueue     bool   // Whether the player is queued
	Destination string // Destination name ("" when not queued)
	Position    int    // 1-based rank, or NotQueuedPosition
	Total       int    // Current length of the destination queue
}

// NotQueued returns the default snapshot for a player without a queue entry.
func NotQueued() Snapshot {
	return Snapshot{
		InQueue:     false,
		Destination: "",
		Position:    NotQueuedPosition,
		Total:       0,
	}
}

// Queued returns a snapshot for a queued player.
func Queued(destination string, position, total int) Snapshot {
	return Snapshot{
		InQueue:     true,
		Destination: destination,
		Position:    position,
		Total:       total,
	}
}
