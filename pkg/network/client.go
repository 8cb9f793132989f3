package network

import (
	"net"

	"github.com/alexvanin/pushtx/pkg/netaddr"
	"github.com/btcsuite/btcd/wire"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// cmdKind tags a queued Client command.
type cmdKind int

const (
	cmdConnect cmdKind = iota
	cmdDisconnect
	cmdMessage
)

type command struct {
	kind   cmdKind
	peer   PeerID
	target netaddr.Service
	msg    wire.Message
}

// Client is the façade the Runner drives: a command queue (connect /
// disconnect / message, applied on Flush) backed by a reactor goroutine
// that owns every live connection and its own reader/writer goroutines.
// The Runner and the reactor never share memory; all communication is
// through cmdCh and the event channel.
type Client struct {
	magic wire.BitcoinNet
	dial  dialer
	log   *zap.Logger

	pending []command
	cmdCh   chan []command
	events  chan WireEvent

	done       chan struct{}
	stopped    chan struct{}
	didRequest atomic.Bool
}

// NewClient constructs a Client for the given network, dialing directly
// if proxyAddr is empty or through a SOCKS5 proxy at proxyAddr otherwise.
func NewClient(magic wire.BitcoinNet, proxyAddr string, log *zap.Logger) *Client {
	c := &Client{
		magic:   magic,
		dial:    dialer{proxyAddr: proxyAddr},
		log:     log,
		cmdCh:   make(chan []command, 64),
		events:  make(chan WireEvent, 256),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go c.reactor()
	return c
}

// Events returns the channel the Runner reads wire events from.
func (c *Client) Events() <-chan WireEvent {
	return c.events
}

// QueueConnect enqueues a non-blocking connect to svc; the outcome arrives
// as an EventConnected on the event stream after the next Flush.
func (c *Client) QueueConnect(svc netaddr.Service) {
	c.pending = append(c.pending, command{kind: cmdConnect, target: svc})
}

// QueueDisconnect enqueues a disconnect of peer.
func (c *Client) QueueDisconnect(peer PeerID) {
	c.pending = append(c.pending, command{kind: cmdDisconnect, peer: peer})
}

// QueueMessage enqueues an outbound message to peer.
func (c *Client) QueueMessage(peer PeerID, msg wire.Message) {
	c.pending = append(c.pending, command{kind: cmdMessage, peer: peer, msg: msg})
}

// Flush transmits every queued command to the reactor and clears the
// queue. Safe to call with an empty queue.
func (c *Client) Flush() {
	if len(c.pending) == 0 {
		return
	}
	batch := c.pending
	c.pending = nil
	select {
	case c.cmdCh <- batch:
	case <-c.stopped:
	}
}

// Shutdown requests the reactor stop, closes every live connection, and
// blocks until its goroutine has exited. didRequest is a lock-free flag
// rather than a mutex because Shutdown has no ordering relationship with
// the reactor goroutine it is tearing down; a caller invoking it twice
// (or racing a caller-side timeout against normal completion) must not
// double-close c.done.
func (c *Client) Shutdown() {
	if c.didRequest.CompareAndSwap(false, true) {
		c.log.Info("client shutting down")
		close(c.done)
	}
	<-c.stopped
}

type connectResult struct {
	id     PeerID
	target netaddr.Service
	conn   net.Conn
	err    error
}

type peerMessage struct {
	peer         PeerID
	msg          wire.Message
	disconnected bool
	reason       DisconnectReason
}

// reactor owns the peer map and is the only goroutine that mutates it;
// every other goroutine (connect workers, peer readers/writers) only ever
// sends on channels it selects over.
func (c *Client) reactor() {
	defer close(c.stopped)

	peers := make(map[PeerID]*peerConn)
	var nextID uint64
	connResult := make(chan connectResult, 16)
	msgCh := make(chan peerMessage, 256)

	closeAll := func() {
		for _, p := range peers {
			p.close()
		}
	}

	for {
		select {
		case <-c.done:
			closeAll()
			return

		case batch := <-c.cmdCh:
			for _, cmd := range batch {
				switch cmd.kind {
				case cmdConnect:
					id := PeerID(nextID)
					nextID++
					go c.connectWorker(id, cmd.target, connResult)
				case cmdDisconnect:
					if p, ok := peers[cmd.peer]; ok {
						delete(peers, cmd.peer)
						p.close()
						c.emit(WireEvent{Kind: EventDisconnected, Peer: cmd.peer, Reason: DisconnectRequested})
					}
				case cmdMessage:
					if p, ok := peers[cmd.peer]; ok {
						p.send(cmd.msg)
					}
				}
			}

		case res := <-connResult:
			if res.err != nil {
				c.emit(WireEvent{Kind: EventConnected, Target: res.target, Err: res.err})
				continue
			}
			peers[res.id] = newPeerConn(res.id, res.conn, c.magic, msgCh)
			c.emit(WireEvent{Kind: EventConnected, Peer: res.id, Target: res.target})

		case m := <-msgCh:
			if _, ok := peers[m.peer]; !ok {
				continue // already removed by an explicit disconnect
			}
			if m.disconnected {
				delete(peers, m.peer)
				c.emit(WireEvent{Kind: EventDisconnected, Peer: m.peer, Reason: m.reason})
				continue
			}
			c.emit(WireEvent{Kind: EventMessage, Peer: m.peer, Msg: m.msg})
		}
	}
}

func (c *Client) emit(ev WireEvent) {
	select {
	case c.events <- ev:
	case <-c.done:
	}
}

func (c *Client) connectWorker(id PeerID, target netaddr.Service, out chan<- connectResult) {
	conn, err := c.dial.dial(target)
	if err != nil {
		out <- connectResult{id: id, target: target, err: err}
		return
	}
	out <- connectResult{id: id, target: target, conn: conn}
}
