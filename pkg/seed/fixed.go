package seed

import (
	_ "embed"
	"strings"

	"github.com/alexvanin/pushtx/pkg/bitcoinnet"
	"github.com/alexvanin/pushtx/pkg/netaddr"
)

//go:embed data/mainnet.txt
var fixedMainnet string

//go:embed data/testnet.txt
var fixedTestnet string

//go:embed data/signet.txt
var fixedSignet string

// Fixed returns the compiled-in fallback peer list for the given network.
// Regtest has no fixed list, matching Bitcoin Core's own behavior.
func Fixed(network bitcoinnet.Network) []netaddr.Service {
	switch network {
	case bitcoinnet.Mainnet:
		return parseFixed(fixedMainnet)
	case bitcoinnet.Testnet:
		return parseFixed(fixedTestnet)
	case bitcoinnet.Signet:
		return parseFixed(fixedSignet)
	default:
		return nil
	}
}

// parseFixed reads one service per line; the first whitespace-separated
// token on the line is parsed as "ip:port", everything else (including
// whole-line comments starting with '#') is ignored. Unparseable lines are
// silently skipped, matching original_source/pushtx/src/seeds.rs.
func parseFixed(blob string) []netaddr.Service {
	var out []netaddr.Service
	for _, line := range strings.Split(blob, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		svc, err := netaddr.ParseService(fields[0])
		if err != nil {
			continue
		}
		out = append(out, svc)
	}
	return out
}
