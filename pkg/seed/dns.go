package seed

import (
	"sync"
	"time"

	"github.com/alexvanin/pushtx/pkg/bitcoinnet"
	"github.com/alexvanin/pushtx/pkg/netaddr"
	"github.com/miekg/dns"
)

const dnsQueryTimeout = 5 * time.Second

// resolver is satisfied by *dns.Client; substitutable in tests.
type resolver interface {
	Exchange(m *dns.Msg, address string) (*dns.Msg, time.Duration, error)
}

var defaultResolver resolver = &dns.Client{Timeout: dnsQueryTimeout}

// nameserver is the local system resolver address consulted for each DNS
// seed lookup. Falls back to a well-known public resolver if the system's
// own configuration cannot be read, which keeps seeding usable in minimal
// containers without a populated /etc/resolv.conf.
func nameserver() string {
	cfg, err := dns.ClientConfigFromFile("/etc/resolv.conf")
	if err != nil || len(cfg.Servers) == 0 {
		return "1.1.1.1:53"
	}
	return cfg.Servers[0] + ":" + cfg.Port
}

// DNS resolves the DNS seed hostnames for network, looking each one up in
// its own goroutine, and returns the flattened, port-tagged result. A seed
// host that fails to resolve simply contributes nothing; it is not
// considered a fatal error for the overall lookup.
func DNS(network bitcoinnet.Network) []netaddr.Service {
	hosts := network.DNSSeeds()
	if len(hosts) == 0 {
		return nil
	}
	port := network.DefaultPort()
	server := nameserver()

	results := make([][]netaddr.Service, len(hosts))
	var wg sync.WaitGroup
	wg.Add(len(hosts))
	for i, host := range hosts {
		go func(i int, host string) {
			defer wg.Done()
			results[i] = lookupHost(defaultResolver, server, host, port)
		}(i, host)
	}
	wg.Wait()

	var out []netaddr.Service
	for _, r := range results {
		out = append(out, r...)
	}
	return out
}

// lookupHost queries both A and AAAA records for host against server and
// returns every address found, tagged with port.
func lookupHost(r resolver, server, host string, port uint16) []netaddr.Service {
	var out []netaddr.Service
	if !dnsIsFQDN(host) {
		host += "."
	}

	for _, qtype := range [...]uint16{dns.TypeA, dns.TypeAAAA} {
		m := new(dns.Msg)
		m.SetQuestion(host, qtype)
		m.RecursionDesired = true

		resp, _, err := r.Exchange(m, server)
		if err != nil || resp == nil {
			continue
		}
		for _, rr := range resp.Answer {
			switch rec := rr.(type) {
			case *dns.A:
				var b [4]byte
				copy(b[:], rec.A.To4())
				out = append(out, netaddr.Service{Addr: netaddr.NewIPv4Address(b), Port: port})
			case *dns.AAAA:
				var b [16]byte
				copy(b[:], rec.AAAA.To16())
				out = append(out, netaddr.Service{Addr: netaddr.NewIPv6Address(b), Port: port})
			}
		}
	}
	return out
}

func dnsIsFQDN(host string) bool {
	return len(host) > 0 && host[len(host)-1] == '.'
}
