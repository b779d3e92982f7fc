package coordinator

// Result is the outcome of a coordinator operation reported to the caller.
type Result int

const (
	Success              Result = iota // Operation applied
	AlreadyQueuedForThis               // Player is already queued for the requested destination
	NotQueued                          // Player is not in any queue
	DestinationNotFound                // Destination is not in the registry
)

// String returns the result code used by the command layer.
func (r Result) String() string {
	switch r {
	case Success:
		return "success"
	case AlreadyQueuedForThis:
		return "already_queued"
	case NotQueued:
		return "not_queued"
	case DestinationNotFound:
		return "destination_not_found"
	default:
		return "unknown"
	}
}

// OK reports whether the result is Success.
func (r Result) OK() bool {
	return r == Success
}
