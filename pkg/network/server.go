package network

import (
	"crypto/rand"
	"encoding/binary"
	"math/big"
	"net"
	"time"

	"github.com/alexvanin/pushtx/pkg/netaddr"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"go.uber.org/zap"
)

// rotationAge is how long a selected transmitter is allowed to carry the
// broadcast before the Runner rotates it out for a fresh peer. A var, not
// a const, so tests can shrink it instead of waiting out the real window.
var rotationAge = 10 * time.Second

// dryRunGrace is how long a dry run waits before synthesizing full
// acknowledgement, letting it exercise connection and handshake logic
// without ever depending on real peer behavior.
var dryRunGrace = 3 * time.Second

// tickInterval bounds how long the event loop blocks waiting for the next
// wire event before re-running its time-based checks.
var tickInterval = time.Second

// TxEntry pairs a transaction's id with its wire-encodable form, the unit
// the Runner tracks and sends.
type TxEntry struct {
	ID  chainhash.Hash
	Msg *wire.MsgTx
}

// Report is the broadcast outcome: the transactions observed echoed back
// by some peer, and any explicit rejections seen along the way.
type Report struct {
	Success map[chainhash.Hash]struct{}
	Rejects map[chainhash.Hash]string
}

// ProgressKind tags the variant carried by a Progress value.
type ProgressKind int

const (
	// ProgressBroadcast reports that transmission began on a peer.
	ProgressBroadcast ProgressKind = iota
	// ProgressDone is the terminal event; the loop has exited.
	ProgressDone
)

// Progress is the subset of the caller-facing event stream the Runner
// itself produces; the host package is responsible for translating it
// alongside its own setup-phase events.
type Progress struct {
	Kind   ProgressKind
	Peer   string
	Report Report
}

// Config configures one Runner invocation. The endpoint pool is expected
// to already be built, shuffled, and filtered to the transports allowed
// under the chosen proxy mode.
type Config struct {
	Magic       wire.BitcoinNet
	Pool        []netaddr.Service
	ProxyAddr   string // "" dials directly
	TargetPeers int
	MaxTime     time.Duration
	DryRun      bool
	UserAgent   string
	Timestamp   int64 // 0 means "use current time"
	StartHeight int32
}

type peerState int

const (
	peerHandshaking peerState = iota
	peerReady
)

type peerInfo struct {
	state   peerState
	service netaddr.Service
	hs      HandshakeState
}

type selection struct {
	id    PeerID
	since time.Time
}

// wireClient is the subset of Client the Runner depends on. It exists so
// tests can drive the Runner against a simulated wire client instead of
// real sockets.
type wireClient interface {
	Events() <-chan WireEvent
	QueueConnect(netaddr.Service)
	QueueDisconnect(PeerID)
	QueueMessage(PeerID, wire.Message)
	Flush()
	Shutdown()
}

// Runner is the single-threaded supervising loop that drives a pool of
// outbound connections through handshake, picks one to carry the
// broadcast, collects acknowledgements, and rotates on staleness. It owns
// all per-peer state; nothing outside the loop goroutine ever touches it.
type Runner struct {
	cfg    Config
	client wireClient
	log    *zap.Logger

	txOrder []chainhash.Hash
	txMap   map[chainhash.Hash]*wire.MsgTx

	peers    map[PeerID]*peerInfo
	selected *selection

	acks    map[chainhash.Hash]struct{}
	rejects map[chainhash.Hash]string

	needReplacements int

	progress chan Progress
}

// NewRunner constructs a Runner ready to broadcast txs once Run is called.
func NewRunner(cfg Config, txs []TxEntry, log *zap.Logger) *Runner {
	return newRunner(cfg, txs, NewClient(cfg.Magic, cfg.ProxyAddr, log), log)
}

// newRunnerWithClient constructs a Runner against a caller-supplied wire
// client, letting tests substitute a simulated one.
func newRunnerWithClient(cfg Config, txs []TxEntry, client wireClient, log *zap.Logger) *Runner {
	return newRunner(cfg, txs, client, log)
}

func newRunner(cfg Config, txs []TxEntry, client wireClient, log *zap.Logger) *Runner {
	txMap := make(map[chainhash.Hash]*wire.MsgTx, len(txs))
	order := make([]chainhash.Hash, 0, len(txs))
	for _, e := range txs {
		txMap[e.ID] = e.Msg
		order = append(order, e.ID)
	}
	return &Runner{
		cfg:      cfg,
		client:   client,
		log:      log,
		txOrder:  order,
		txMap:    txMap,
		peers:    make(map[PeerID]*peerInfo),
		acks:     make(map[chainhash.Hash]struct{}),
		rejects:  make(map[chainhash.Hash]string),
		progress: make(chan Progress, 16),
	}
}

// Run starts the supervising loop on its own goroutine and returns the
// progress stream. The channel is closed after the terminal ProgressDone
// value.
func (r *Runner) Run() <-chan Progress {
	go r.loop()
	return r.progress
}

func (r *Runner) loop() {
	defer close(r.progress)

	start := time.Now()
	r.queueInitialConnects()
	r.client.Flush()

	timer := time.NewTimer(tickInterval)
	defer timer.Stop()

	for {
		select {
		case ev, ok := <-r.client.Events():
			if !ok {
				panic("network: wire reactor disconnected")
			}
			r.handleEvent(ev)
		case <-timer.C:
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(tickInterval)

		r.checkRotation()
		r.trySelect()

		elapsed := time.Since(start)
		done, report := r.checkTermination(elapsed)

		r.queueReplacements()
		r.client.Flush()

		if done {
			r.client.Shutdown()
			r.progress <- Progress{Kind: ProgressDone, Report: report}
			return
		}
	}
}

func (r *Runner) queueInitialConnects() {
	n := r.cfg.TargetPeers
	if n > len(r.cfg.Pool) {
		n = len(r.cfg.Pool)
	}
	for i := 0; i < n; i++ {
		r.client.QueueConnect(r.cfg.Pool[i])
	}
}

func (r *Runner) queueReplacements() {
	for i := 0; i < r.needReplacements; i++ {
		if addr, ok := r.randomPoolAddr(); ok {
			r.client.QueueConnect(addr)
		}
	}
	r.needReplacements = 0
}

func (r *Runner) handleEvent(ev WireEvent) {
	switch ev.Kind {
	case EventConnected:
		if ev.Err != nil {
			r.log.Info("peer connect failed", zap.Stringer("target", ev.Target), zap.Error(ev.Err))
			r.needReplacements++
			return
		}
		r.log.Debug("peer connected", zap.Uint64("peer", uint64(ev.Peer)), zap.Stringer("target", ev.Target))
		r.peers[ev.Peer] = &peerInfo{state: peerHandshaking, service: ev.Target}
		r.client.QueueMessage(ev.Peer, r.versionMessage())

	case EventMessage:
		p, ok := r.peers[ev.Peer]
		if !ok {
			panic("network: event for unknown peer")
		}
		if p.state == peerHandshaking {
			r.handleHandshakeMessage(ev.Peer, p, ev.Msg)
		} else {
			r.handleReadyMessage(ev.Peer, ev.Msg)
		}

	case EventDisconnected:
		if _, ok := r.peers[ev.Peer]; !ok {
			// Already removed locally by a handshake violation.
			return
		}
		r.log.Info("peer disconnected", zap.Uint64("peer", uint64(ev.Peer)), zap.Int("reason", int(ev.Reason)))
		if r.selected != nil && r.selected.id == ev.Peer {
			r.log.Info("selected transmitter disconnected, will replace", zap.Uint64("peer", uint64(ev.Peer)))
			r.selected = nil
		}
		delete(r.peers, ev.Peer)
		r.needReplacements++
	}
}

func (r *Runner) handleHandshakeMessage(id PeerID, p *peerInfo, msg wire.Message) {
	var version *wire.MsgVersion
	if v, ok := msg.(*wire.MsgVersion); ok {
		version = v
	}
	switch p.hs.Update(ClassifyMessage(msg), version) {
	case SendVerack:
		r.client.QueueMessage(id, &wire.MsgVerAck{})
	case Wait:
	case Violation:
		r.dropPeer(id)
	case Done:
		p.state = peerReady
	}
}

func (r *Runner) handleReadyMessage(id PeerID, msg wire.Message) {
	switch m := msg.(type) {
	case *wire.MsgInv:
		for _, inv := range m.InvList {
			if inv.Type != wire.InvTypeTx {
				continue
			}
			if _, ok := r.txMap[inv.Hash]; !ok {
				continue
			}
			if r.selected != nil && r.selected.id == id {
				continue // the transmitter echoing what we just sent it
			}
			r.acks[inv.Hash] = struct{}{}
		}
	case *wire.MsgReject:
		if m.Cmd == wire.CmdTx {
			r.log.Warn("transaction rejected by peer",
				zap.Uint64("peer", uint64(id)),
				zap.Stringer("txid", m.Hash),
				zap.String("reason", m.Reason),
				zap.Uint8("code", uint8(m.Code)),
			)
			r.rejects[m.Hash] = m.Reason
		}
	}
}

// dropPeer removes id from local bookkeeping immediately and asks the
// wire client to disconnect it. Used for handshake violations, where the
// replacement is owed right away rather than deferred to the later
// EventDisconnected echo.
func (r *Runner) dropPeer(id PeerID) {
	if _, ok := r.peers[id]; ok {
		r.log.Warn("dropping peer for handshake violation", zap.Uint64("peer", uint64(id)))
		delete(r.peers, id)
		r.needReplacements++
	}
	r.client.QueueDisconnect(id)
}

func (r *Runner) checkRotation() {
	if r.selected == nil {
		return
	}
	if time.Since(r.selected.since) >= rotationAge {
		r.log.Info("rotating stale transmitter", zap.Uint64("peer", uint64(r.selected.id)))
		r.client.QueueDisconnect(r.selected.id)
	}
}

func (r *Runner) trySelect() {
	if r.selected != nil {
		return
	}
	for id, p := range r.peers {
		if p.state != peerReady {
			continue
		}
		r.selected = &selection{id: id, since: time.Now()}
		r.log.Info("selected transmitter", zap.Uint64("peer", uint64(id)), zap.Stringer("target", p.service))
		if !r.cfg.DryRun {
			for _, h := range r.txOrder {
				r.client.QueueMessage(id, r.txMap[h])
			}
		}
		r.progress <- Progress{Kind: ProgressBroadcast, Peer: p.service.String()}
		return
	}
}

func (r *Runner) checkTermination(elapsed time.Duration) (bool, Report) {
	if len(r.acks) == len(r.txMap) {
		return true, r.buildReport()
	}
	if elapsed >= r.cfg.MaxTime {
		return true, r.buildReport()
	}
	if r.cfg.DryRun && elapsed > dryRunGrace {
		for h := range r.txMap {
			r.acks[h] = struct{}{}
		}
		if len(r.acks) == len(r.txMap) {
			return true, r.buildReport()
		}
	}
	return false, Report{}
}

func (r *Runner) buildReport() Report {
	success := make(map[chainhash.Hash]struct{}, len(r.acks))
	for h := range r.acks {
		success[h] = struct{}{}
	}
	rejects := make(map[chainhash.Hash]string, len(r.rejects))
	for h, reason := range r.rejects {
		rejects[h] = reason
	}
	return Report{Success: success, Rejects: rejects}
}

func (r *Runner) randomPoolAddr() (netaddr.Service, bool) {
	if len(r.cfg.Pool) == 0 {
		return netaddr.Service{}, false
	}
	idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(r.cfg.Pool))))
	if err != nil {
		return netaddr.Service{}, false
	}
	return r.cfg.Pool[idx.Int64()], true
}

func (r *Runner) versionMessage() *wire.MsgVersion {
	ts := time.Now()
	if r.cfg.Timestamp != 0 {
		ts = time.Unix(r.cfg.Timestamp, 0)
	}
	return &wire.MsgVersion{
		ProtocolVersion: ProtocolVersion,
		Services:        0,
		Timestamp:       ts,
		AddrYou: wire.NetAddress{
			Services: 0,
			IP:       net.IPv4zero,
			Port:     8333,
		},
		AddrMe: wire.NetAddress{
			Services: 0,
			IP:       net.IPv4zero,
			Port:     0,
		},
		Nonce:          randomNonce(),
		UserAgent:      r.cfg.UserAgent,
		LastBlock:      r.cfg.StartHeight,
		DisableRelayTx: true,
	}
}

func randomNonce() uint64 {
	var buf [8]byte
	_, _ = rand.Read(buf[:])
	return binary.BigEndian.Uint64(buf[:])
}
