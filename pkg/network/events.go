package network

import (
	"github.com/alexvanin/pushtx/pkg/netaddr"
	"github.com/btcsuite/btcd/wire"
)

// PeerID is an opaque handle assigned by the wire client to a connection,
// stable for the connection's lifetime and never reused while the Runner
// still holds a reference to it.
type PeerID uint64

// DisconnectReason explains why a peer left the connection set.
type DisconnectReason int

const (
	// DisconnectRequested means the Runner itself asked for the
	// disconnect (stale-transmitter rotation, handshake-violation drop).
	DisconnectRequested DisconnectReason = iota
	// DisconnectIOError means the underlying socket failed: read/write
	// error, reset, or EOF.
	DisconnectIOError
	// DisconnectProtocolError means a framing violation (a malformed
	// inbound message) was observed on this connection.
	DisconnectProtocolError
)

// EventKind tags the variant carried by a WireEvent.
type EventKind int

const (
	// EventConnected reports the outcome of a prior connect command.
	EventConnected EventKind = iota
	// EventMessage reports a decoded inbound message from a handshaked
	// or handshaking peer.
	EventMessage
	// EventDisconnected reports that a peer left the connection set.
	EventDisconnected
)

// WireEvent is the single event type the wire client emits on its event
// stream; Kind selects which fields are meaningful.
type WireEvent struct {
	Kind   EventKind
	Peer   PeerID
	Target netaddr.Service // EventConnected
	Err    error           // EventConnected, on failure
	Msg    wire.Message    // EventMessage
	Reason DisconnectReason // EventDisconnected
}
