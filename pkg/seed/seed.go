// Package seed builds the pool of candidate peers a broadcast run draws
// from: DNS-seeded addresses backed by a compiled-in fixed list, or a
// caller-supplied custom list, shuffled and filtered by transport.
package seed

import (
	"crypto/rand"
	"math/big"

	"github.com/alexvanin/pushtx/pkg/bitcoinnet"
	"github.com/alexvanin/pushtx/pkg/netaddr"
)

// minDNSResults is the threshold below which DNS seeding is considered to
// have under-delivered and the fixed fallback list is mixed in.
const minDNSResults = 20

// Strategy selects how the candidate peer pool is built.
type Strategy int

const (
	// DNSWithFixedFallback resolves the network's DNS seeds and tops the
	// result up with the compiled-in fixed list if fewer than minDNSResults
	// addresses came back. This is the default strategy.
	DNSWithFixedFallback Strategy = iota
	// DNSOnly resolves the network's DNS seeds and uses only that result,
	// even if it returns very few or no addresses.
	DNSOnly
)

// Pool builds the candidate peer list for network under strategy, then
// shuffles it and restricts it to the given allowed transports. If custom
// is non-empty it is used verbatim in place of any seed resolution,
// still subject to shuffling and the transport filter.
func Pool(network bitcoinnet.Network, strategy Strategy, custom []netaddr.Service, allowed []netaddr.Transport) ([]netaddr.Service, error) {
	var candidates []netaddr.Service
	if len(custom) > 0 {
		candidates = append(candidates, custom...)
	} else {
		candidates = DNS(network)
		if strategy == DNSWithFixedFallback && len(candidates) < minDNSResults {
			candidates = append(candidates, Fixed(network)...)
		}
	}

	shuffled, err := shuffle(candidates)
	if err != nil {
		return nil, err
	}
	return filterTransport(shuffled, allowed), nil
}

// shuffle returns a Fisher-Yates permutation of in using a CSPRNG, so that
// peer selection order cannot be predicted or biased by an observer.
func shuffle(in []netaddr.Service) ([]netaddr.Service, error) {
	out := make([]netaddr.Service, len(in))
	copy(out, in)
	for i := len(out) - 1; i > 0; i-- {
		jBig, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return nil, err
		}
		j := int(jBig.Int64())
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// filterTransport keeps only addresses reachable over one of allowed. A nil
// or empty allowed list is treated as "no restriction".
func filterTransport(in []netaddr.Service, allowed []netaddr.Transport) []netaddr.Service {
	if len(allowed) == 0 {
		return in
	}
	var out []netaddr.Service
	for _, svc := range in {
		for _, t := range allowed {
			if svc.OnTransport(t) {
				out = append(out, svc)
				break
			}
		}
	}
	return out
}
