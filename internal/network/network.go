// Package network is the named-process registry and point-to-point/
// broadcast transport every other actor in this module sits on top of. It
// is described here only at the abstract interface spec.md calls for; the
// single concrete implementation (Memory) is the in-process reference
// transport everything else is tested and demonstrated against.
package network

import (
	"errors"
	"log"
)

// ErrDuplicateName is returned by Join when the name is already registered.
var ErrDuplicateName = errors.New("network: duplicate participant name")

// ErrNoSuchParticipant is the condition behind a dropped SendTo; it is
// never returned to the caller (send_to is fire-and-forget per the
// fair-lossy transport model) but is logged.
var ErrNoSuchParticipant = errors.New("network: no such participant")

// Endpoint is anything that can receive a message handed to it by the
// registry. Implementations must not block the registry's critical
// section — Deliver should enqueue and return.
type Endpoint interface {
	Deliver(msg interface{})
}

// Network is the named-process registry plus point-to-point send and
// broadcast. The registry itself is a single serialized actor: Join,
// Leave, and Resolve never interleave with each other.
type Network interface {
	// Join registers name -> endpoint. ErrDuplicateName if name is taken.
	Join(name string, endpoint Endpoint) error
	// Leave unregisters name. A no-op if name was never joined.
	Leave(name string)
	// Resolve looks up a participant's endpoint.
	Resolve(name string) (Endpoint, bool)
	// Participants returns the currently joined names, in join order.
	Participants() []string
	// SendTo delivers msg to name. Always returns nil: a missing
	// participant is logged and the message silently dropped, matching
	// the fair-lossy transport model this module assumes.
	SendTo(name string, msg interface{}) error
	// Broadcast calls SendTo for every currently joined participant,
	// including the caller itself if it is joined.
	Broadcast(msg interface{}) error
}

// Logger is the minimal logging surface Network needs; *log.Logger
// satisfies it directly.
type Logger interface {
	Printf(format string, args ...interface{})
}

var _ Logger = (*log.Logger)(nil)
