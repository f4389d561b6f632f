package main

// SessionState is a viewer session's position in its lifecycle.
type SessionState string

const (
	StateConnecting SessionState = "connecting"
	StateStreaming  SessionState = "streaming"
	StateClosing    SessionState = "closing"
	StateClosed     SessionState = "closed"
)

// closeReason records which event moved a session out of streaming.
type closeReason int

const (
	closeFeedEnded closeReason = iota
	closeRemote
	closeShutdown
	closeWriteFailed
)

func (r closeReason) String() string {
	switch r {
	case closeFeedEnded:
		return "feed_closed"
	case closeRemote:
		return "remote_closed"
	case closeShutdown:
		return "shutdown"
	case closeWriteFailed:
		return "write_failed"
	default:
		return "unknown"
	}
}

// validTransitions lists the only moves a session may make.
var validTransitions = map[SessionState]SessionState{
	StateConnecting: StateStreaming,
	StateStreaming:  StateClosing,
	StateClosing:    StateClosed,
}

func canTransition(from, to SessionState) bool {
	if from == "" {
		return to == StateConnecting
	}
	return validTransitions[from] == to
}
