package pushtx

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexvanin/pushtx/pkg/bitcoinnet"
	"github.com/alexvanin/pushtx/pkg/netaddr"
	"github.com/alexvanin/pushtx/pkg/network"
	"github.com/alexvanin/pushtx/pkg/seed"
	"go.uber.org/zap"
)

// ErrTorNotFound is delivered when UseTor is TorMust but no local SOCKS5
// proxy could be found on either of the standard Tor ports.
var ErrTorNotFound = errors.New("pushtx: tor proxy required but not found")

// TorMode selects how hard the broadcaster tries to route through Tor.
type TorMode int

const (
	// TorNo never probes for or uses a Tor proxy.
	TorNo TorMode = iota
	// TorBestEffort uses a Tor proxy if one is found, otherwise falls
	// back to clearnet IPv4 only.
	TorBestEffort
	// TorMust requires a Tor proxy; its absence is a fatal setup error.
	TorMust
)

// ParseTorMode maps a config/CLI string ("no", "try"/"best-effort",
// "must") onto its TorMode value.
func ParseTorMode(s string) (TorMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "try", "best-effort", "besteffort":
		return TorBestEffort, nil
	case "no", "none":
		return TorNo, nil
	case "must":
		return TorMust, nil
	default:
		return 0, fmt.Errorf("pushtx: unrecognized tor mode %q", s)
	}
}

// Report is the broadcast outcome: the transactions observed echoed back
// by some peer, and any explicit rejections seen along the way.
type Report = network.Report

// Result is the terminal payload of a broadcast run.
type Result struct {
	Report Report
	Err    error
}

// Opts configures a single broadcast invocation.
type Opts struct {
	Network          bitcoinnet.Network
	UseTor           TorMode
	FindPeerStrategy seed.Strategy
	CustomPeers      []netaddr.Service // when non-empty, replaces seeding; still shuffled and transport-filtered
	MaxTime          time.Duration     // default 40s
	SendUnsolicited  bool              // reserved; current design relies on inv-echo detection
	DryRun           bool
	TargetPeers      int // default 10
	UserAgent        string
	Timestamp        int64
	StartHeight      int32
	Logger           *zap.Logger
}

func (o Opts) withDefaults() Opts {
	if o.MaxTime == 0 {
		o.MaxTime = 40 * time.Second
	}
	if o.TargetPeers == 0 {
		o.TargetPeers = 10
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// InfoKind tags the variant carried by an Info value.
type InfoKind int

const (
	InfoResolvingPeers InfoKind = iota
	InfoResolvedPeers
	InfoConnectingToNetwork
	InfoBroadcast
	InfoDone
)

// Info is one value on the progress stream Broadcast returns.
type Info struct {
	Kind      InfoKind
	Count     int    // InfoResolvedPeers
	TorStatus string // InfoConnectingToNetwork
	Peer      string // InfoBroadcast
	Result    Result // InfoDone
}

// Broadcast starts a broadcast run on a dedicated background worker and
// returns immediately with a receive-only progress stream. The stream is
// closed after exactly one terminal InfoDone value.
func Broadcast(txs []Transaction, opts Opts) <-chan Info {
	out := make(chan Info, 16)
	go run(txs, opts.withDefaults(), out)
	return out
}

func run(txs []Transaction, opts Opts, out chan<- Info) {
	defer close(out)
	log := opts.Logger

	proxyAddr, torStatus, ok := resolveTor(opts.UseTor, log)
	if !ok {
		out <- Info{Kind: InfoDone, Result: Result{Err: ErrTorNotFound}}
		return
	}

	out <- Info{Kind: InfoResolvingPeers}

	allowed := []netaddr.Transport{netaddr.TransportIPv4}
	if proxyAddr != "" {
		allowed = []netaddr.Transport{netaddr.TransportIPv4, netaddr.TransportIPv6, netaddr.TransportTorV3}
	}

	pool, err := seed.Pool(opts.Network, opts.FindPeerStrategy, opts.CustomPeers, allowed)
	if err != nil {
		log.Error("failed to build peer pool", zap.Error(err))
		out <- Info{Kind: InfoDone, Result: Result{Err: err}}
		return
	}

	out <- Info{Kind: InfoResolvedPeers, Count: len(pool)}
	out <- Info{Kind: InfoConnectingToNetwork, TorStatus: torStatus}

	entries := make([]network.TxEntry, 0, len(txs))
	for _, tx := range txs {
		entries = append(entries, network.TxEntry{ID: tx.ID(), Msg: tx.MsgTx()})
	}

	cfg := network.Config{
		Magic:       opts.Network.Magic(),
		Pool:        pool,
		ProxyAddr:   proxyAddr,
		TargetPeers: opts.TargetPeers,
		MaxTime:     opts.MaxTime,
		DryRun:      opts.DryRun,
		UserAgent:   opts.UserAgent,
		Timestamp:   opts.Timestamp,
		StartHeight: opts.StartHeight,
	}

	runner := network.NewRunner(cfg, entries, log)
	for p := range runner.Run() {
		switch p.Kind {
		case network.ProgressBroadcast:
			out <- Info{Kind: InfoBroadcast, Peer: p.Peer}
		case network.ProgressDone:
			out <- Info{Kind: InfoDone, Result: Result{Report: p.Report}}
		}
	}
}

// resolveTor implements the Tor-intent resolution in the startup
// sequence: No means no proxy, BestEffort/Must probe the standard ports
// and only Must treats absence as fatal.
func resolveTor(mode TorMode, log *zap.Logger) (proxyAddr, status string, ok bool) {
	if mode == TorNo {
		return "", "disabled", true
	}
	proxy, found := network.ProbeTor()
	if !found {
		if mode == TorMust {
			return "", "", false
		}
		log.Info("tor proxy not found, continuing over clearnet")
		return "", "not detected; continuing over clearnet", true
	}
	log.Info("tor proxy found", zap.Int("port", proxy.Port))
	return proxy.Addr(), fmt.Sprintf("proxy detected on %s", proxy.Addr()), true
}
