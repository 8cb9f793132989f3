package network

import (
	"net"
	"strconv"
	"time"
)

// torProbePorts are checked in order: the Tor daemon's default SOCKS port,
// then the Tor Browser Bundle's default.
var torProbePorts = [...]int{9050, 9150}

const torProbeTimeout = 500 * time.Millisecond

// TorProxy describes a local SOCKS5 proxy found during probing.
type TorProxy struct {
	Port int
}

// Addr returns the dialable "host:port" for this proxy.
func (t TorProxy) Addr() string {
	return net.JoinHostPort("127.0.0.1", strconv.Itoa(t.Port))
}

// ProbeTor checks, in order, for a TCP-connectable SOCKS5 proxy on the
// standard Tor daemon and Tor Browser ports. It reports the first one
// found, or ok=false if neither is reachable.
func ProbeTor() (proxy TorProxy, ok bool) {
	for _, port := range torProbePorts {
		addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(port))
		conn, err := net.DialTimeout("tcp", addr, torProbeTimeout)
		if err != nil {
			continue
		}
		conn.Close()
		return TorProxy{Port: port}, true
	}
	return TorProxy{}, false
}
