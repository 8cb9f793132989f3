package network

import "github.com/btcsuite/btcd/wire"

// HandshakeEvent is the outcome of feeding one inbound message into a
// HandshakeState.
type HandshakeEvent int

const (
	// Wait means no outbound action is needed yet.
	Wait HandshakeEvent = iota
	// SendVerack means the supervisor must queue a verack to this peer.
	SendVerack
	// Violation means the peer did something disallowed; the supervisor
	// must drop it.
	Violation
	// Done means the handshake completed.
	Done
)

// MsgKind classifies an inbound message for the purposes of the handshake
// state machine. Anything not explicitly recognized classifies as MsgOther.
type MsgKind int

const (
	MsgVersion MsgKind = iota
	MsgVerack
	MsgSendAddrV2
	MsgWtxidRelay
	MsgOther
)

// ClassifyMessage maps a decoded wire.Message onto the MsgKind the
// handshake state machine understands.
func ClassifyMessage(msg wire.Message) MsgKind {
	switch msg.(type) {
	case *wire.MsgVersion:
		return MsgVersion
	case *wire.MsgVerAck:
		return MsgVerack
	case *wire.MsgSendAddrV2:
		return MsgSendAddrV2
	case *wire.MsgWtxidRelay:
		return MsgWtxidRelay
	default:
		return MsgOther
	}
}

// HandshakeState is the per-peer handshake finite-state machine described
// in the broadcast protocol: the peer must send version first, then may
// optionally negotiate addrv2 and wtxid relay (in either order, once
// each) before its verack. Any other ordering is a protocol violation.
type HandshakeState struct {
	TheirVersion *wire.MsgVersion
	TheirVerack  bool
	WantsAddrV2  bool
	WtxidRelay   bool
}

// Update evaluates the rule table in order and returns the resulting
// event, mutating the state in place for rules that record progress.
func (h *HandshakeState) Update(kind MsgKind, version *wire.MsgVersion) HandshakeEvent {
	switch {
	case h.TheirVersion == nil && !h.TheirVerack && kind == MsgVersion:
		h.TheirVersion = version
		return SendVerack
	case h.TheirVersion != nil && !h.TheirVerack && !h.WantsAddrV2 && kind == MsgSendAddrV2:
		h.WantsAddrV2 = true
		return Wait
	case h.TheirVersion != nil && !h.TheirVerack && !h.WtxidRelay && kind == MsgWtxidRelay:
		h.WtxidRelay = true
		return Wait
	case h.TheirVersion != nil && !h.TheirVerack && kind == MsgVerack:
		h.TheirVerack = true
		return Done
	default:
		return Violation
	}
}
