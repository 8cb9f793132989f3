package network

import (
	"crypto/rand"
	"encoding/binary"
	"net"
	"strconv"
	"time"

	"github.com/alexvanin/pushtx/pkg/netaddr"
	"github.com/btcsuite/go-socks/socks"
)

const dialTimeout = 10 * time.Second

// dialer opens a TCP connection to a Service, either directly or through a
// SOCKS5 proxy.
type dialer struct {
	proxyAddr string // empty means dial directly
}

// dial connects to svc. When a proxy is configured, a fresh random
// username/password pair is minted for this single connection so the
// proxy (when it is Tor) routes it over its own isolated circuit.
func (d dialer) dial(svc netaddr.Service) (net.Conn, error) {
	target := svc.String()
	if d.proxyAddr == "" {
		return net.DialTimeout("tcp", target, dialTimeout)
	}

	user, pass, err := randomCredentials()
	if err != nil {
		return nil, err
	}
	proxy := &socks.Proxy{
		Addr:     d.proxyAddr,
		Username: user,
		Password: pass,
	}
	return proxy.Dial("tcp", target)
}

// randomCredentials mints a pair of random decimal-rendered u32 strings
// for SOCKS5 circuit isolation, one per outbound connection.
func randomCredentials() (user, pass string, err error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", "", err
	}
	u := binary.BigEndian.Uint32(buf[0:4])
	p := binary.BigEndian.Uint32(buf[4:8])
	return strconv.FormatUint(uint64(u), 10), strconv.FormatUint(uint64(p), 10), nil
}
