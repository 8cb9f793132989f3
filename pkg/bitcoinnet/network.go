// Package bitcoinnet names the Bitcoin networks this broadcaster can target
// and the constants (wire magic, default port, DNS seed hostnames) that
// follow from the choice.
package bitcoinnet

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/wire"
)

// Network selects which Bitcoin network to broadcast into.
type Network int

const (
	// Mainnet is the production Bitcoin network.
	Mainnet Network = iota
	// Testnet is the public test network (testnet3).
	Testnet
	// Regtest is a local, consensus-rule-relaxed regression test network.
	Regtest
	// Signet is the federated signet test network.
	Signet
)

// String renders the network name, used in logging and CLI flags.
func (n Network) String() string {
	switch n {
	case Mainnet:
		return "mainnet"
	case Testnet:
		return "testnet"
	case Regtest:
		return "regtest"
	case Signet:
		return "signet"
	default:
		return "unknown"
	}
}

// Parse maps a network's name (as accepted by String) back onto its
// Network value.
func Parse(name string) (Network, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mainnet", "main":
		return Mainnet, nil
	case "testnet", "test":
		return Testnet, nil
	case "regtest":
		return Regtest, nil
	case "signet":
		return Signet, nil
	default:
		return 0, fmt.Errorf("bitcoinnet: unrecognized network %q", name)
	}
}

// Magic returns the wire protocol magic bytes identifying this network.
func (n Network) Magic() wire.BitcoinNet {
	switch n {
	case Mainnet:
		return wire.MainNet
	case Testnet:
		return wire.TestNet3
	case Regtest:
		return wire.TestNet
	case Signet:
		return wire.SigNet
	default:
		return wire.MainNet
	}
}

// DefaultPort returns the standard P2P listening port for the network.
func (n Network) DefaultPort() uint16 {
	switch n {
	case Mainnet:
		return 8333
	case Testnet:
		return 18333
	case Regtest:
		return 18444
	case Signet:
		return 38333
	default:
		return 8333
	}
}

// DNSSeeds returns the hostnames to resolve for this network. Regtest has
// no seeds: it is meant for locally-run nodes reached via Custom targets.
func (n Network) DNSSeeds() []string {
	switch n {
	case Mainnet:
		return []string{
			"dnsseed.bluematt.me.",
			"dnsseed.bitcoin.dashjr-list-of-p2p-nodes.us.",
			"seed.bitcoinstats.com.",
			"seed.bitcoin.jonasschnelli.ch.",
			"seed.btc.petertodd.net.",
			"seed.bitcoin.sprovoost.nl.",
			"dnsseed.emzy.de.",
			"seed.bitcoin.wiz.biz.",
		}
	case Testnet:
		return []string{
			"testnet-seed.bluematt.me",
			"testnet-seed.bitcoin.jonasschnelli.ch",
			"seed.tbtc.petertodd.org",
			"seed.testnet.bitcoin.sprovoost.nl",
		}
	case Signet:
		return []string{"seed.signet.bitcoin.sprovoost.nl"}
	case Regtest:
		return nil
	default:
		return nil
	}
}
