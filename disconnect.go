package main

import (
	"errors"
	"syscall"
)

// Disconnect classifies why a write to a viewer failed.
type Disconnect int

const (
	// DisconnectUnexpected is any failure that is not a plain peer drop.
	DisconnectUnexpected Disconnect = iota
	// DisconnectRoutine means the peer went away: broken pipe or reset.
	DisconnectRoutine
)

func (d Disconnect) String() string {
	switch d {
	case DisconnectRoutine:
		return "routine"
	default:
		return "unexpected"
	}
}

// ClassifyDisconnect walks err's cause chain, outermost first, for the first
// transport errno. EPIPE and ECONNRESET are routine; anything else, or a chain
// with no errno at all, is unexpected.
func ClassifyDisconnect(err error) Disconnect {
	var errno syscall.Errno
	if !errors.As(err, &errno) {
		return DisconnectUnexpected
	}
	switch errno {
	case syscall.EPIPE, syscall.ECONNRESET:
		return DisconnectRoutine
	default:
		return DisconnectUnexpected
	}
}
