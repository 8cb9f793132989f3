package network

import (
	"errors"
	"sync"

	"github.com/alexvanin/pushtx/pkg/netaddr"
	"github.com/btcsuite/btcd/wire"
)

// fakeClient is a simulated wire client: QueueConnect/QueueDisconnect
// schedule synthetic events delivered on the next Flush, and QueueMessage
// records what the Runner would have sent, so tests can assert on it
// without opening real sockets.
type fakeClient struct {
	mu      sync.Mutex
	events  chan WireEvent
	nextID  uint64
	denyAll bool
	sent    map[PeerID][]wire.Message
	pending []func()
	stopped bool
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		events: make(chan WireEvent, 1024),
		sent:   make(map[PeerID][]wire.Message),
	}
}

func (f *fakeClient) Events() <-chan WireEvent { return f.events }

func (f *fakeClient) QueueConnect(svc netaddr.Service) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = append(f.pending, func() {
		if f.denyAll {
			f.events <- WireEvent{Kind: EventConnected, Target: svc, Err: errors.New("connection refused")}
			return
		}
		f.mu.Lock()
		id := PeerID(f.nextID)
		f.nextID++
		f.mu.Unlock()
		f.events <- WireEvent{Kind: EventConnected, Peer: id, Target: svc}
	})
}

func (f *fakeClient) QueueDisconnect(id PeerID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = append(f.pending, func() {
		f.events <- WireEvent{Kind: EventDisconnected, Peer: id, Reason: DisconnectRequested}
	})
}

func (f *fakeClient) QueueMessage(id PeerID, msg wire.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent[id] = append(f.sent[id], msg)
}

func (f *fakeClient) Flush() {
	f.mu.Lock()
	pending := f.pending
	f.pending = nil
	f.mu.Unlock()
	for _, fn := range pending {
		fn()
	}
}

func (f *fakeClient) Shutdown() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stopped {
		return
	}
	f.stopped = true
	close(f.events)
}

func (f *fakeClient) sentTo(id PeerID) []wire.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]wire.Message, len(f.sent[id]))
	copy(out, f.sent[id])
	return out
}

// push delivers a synthetic inbound event directly, simulating a message
// received from a peer without going through the connect/flush dance.
func (f *fakeClient) push(ev WireEvent) {
	f.events <- ev
}
