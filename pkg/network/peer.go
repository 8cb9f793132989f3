package network

import (
	"errors"
	"net"

	"github.com/btcsuite/btcd/wire"
	"go.uber.org/atomic"
)

// peerConn is one live connection: a reader goroutine decoding inbound
// messages and a writer goroutine draining outbound ones, both reporting
// back to the reactor exclusively through channels. close() can race
// across all three goroutines (reader, writer, and the reactor on an
// explicit disconnect), so the done flag is a lock-free atomic rather
// than a mutex-guarded bool.
type peerConn struct {
	id    PeerID
	conn  net.Conn
	outCh chan wire.Message

	closed  chan struct{}
	didStop atomic.Bool
}

func newPeerConn(id PeerID, conn net.Conn, magic wire.BitcoinNet, msgCh chan<- peerMessage) *peerConn {
	p := &peerConn{
		id:     id,
		conn:   conn,
		outCh:  make(chan wire.Message, 32),
		closed: make(chan struct{}),
	}
	go p.writeLoop(magic)
	go p.readLoop(magic, msgCh)
	return p
}

// send queues msg for transmission; it is dropped silently if the
// connection has already closed.
func (p *peerConn) send(msg wire.Message) {
	select {
	case p.outCh <- msg:
	case <-p.closed:
	}
}

func (p *peerConn) writeLoop(magic wire.BitcoinNet) {
	for {
		select {
		case msg := <-p.outCh:
			if err := WriteMessage(p.conn, msg, magic); err != nil {
				p.close()
				return
			}
		case <-p.closed:
			return
		}
	}
}

func (p *peerConn) readLoop(magic wire.BitcoinNet, msgCh chan<- peerMessage) {
	for {
		msg, err := ReadMessage(p.conn, magic)
		if err != nil {
			reason := DisconnectIOError
			if errors.Is(err, ErrMalformedMessage) {
				reason = DisconnectProtocolError
			}
			select {
			case msgCh <- peerMessage{peer: p.id, disconnected: true, reason: reason}:
			case <-p.closed:
			}
			p.close()
			return
		}
		select {
		case msgCh <- peerMessage{peer: p.id, msg: msg}:
		case <-p.closed:
			return
		}
	}
}

func (p *peerConn) close() {
	if p.didStop.CompareAndSwap(false, true) {
		close(p.closed)
		p.conn.Close()
	}
}
