// Package netaddr describes the network endpoints a peer can be reached at:
// IPv4, IPv6 and Tor onion v3 addresses, combined with a port into a Service.
package netaddr

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Transport identifies a connectivity class a Service may be reachable over.
type Transport int

const (
	// TransportIPv4 is a clearnet IPv4 endpoint.
	TransportIPv4 Transport = iota
	// TransportIPv6 is a clearnet IPv6 endpoint.
	TransportIPv6
	// TransportTorV3 is a Tor onion v3 endpoint.
	TransportTorV3
)

// Address is a tagged union over the three endpoint kinds this broadcaster
// knows how to dial. Exactly one of the fields is meaningful, selected by
// Transport.
type Address struct {
	Transport Transport
	IPv4      [4]byte
	IPv6      [16]byte
	TorV3     [32]byte // ed25519 public key
}

// NewIPv4Address builds an Address from a 4-byte IPv4 address.
func NewIPv4Address(ip [4]byte) Address {
	return Address{Transport: TransportIPv4, IPv4: ip}
}

// NewIPv6Address builds an Address from a 16-byte IPv6 address.
func NewIPv6Address(ip [16]byte) Address {
	return Address{Transport: TransportIPv6, IPv6: ip}
}

// NewTorV3Address builds an Address from a 32-byte ed25519 public key.
func NewTorV3Address(pk [32]byte) Address {
	return Address{Transport: TransportTorV3, TorV3: pk}
}

// String renders the address in its standard textual form: dotted-quad or
// colon-hex for IPv4/IPv6, the ".onion" label for TorV3.
func (a Address) String() string {
	switch a.Transport {
	case TransportIPv4:
		return net.IP(a.IPv4[:]).String()
	case TransportIPv6:
		return net.IP(a.IPv6[:]).String()
	case TransportTorV3:
		return EncodeOnionV3(a.TorV3)
	default:
		return "<invalid address>"
	}
}

// Service is the combination of an Address and a port that together
// describe a dialable peer on the network.
type Service struct {
	Addr Address
	Port uint16
}

// OnTransport reports whether the service is reachable via the given
// transport, i.e. whether allowing that transport would let us dial it.
func (s Service) OnTransport(t Transport) bool {
	return s.Addr.Transport == t
}

// String renders the service as "host:port".
func (s Service) String() string {
	return net.JoinHostPort(s.Addr.String(), strconv.Itoa(int(s.Port)))
}

// FromTCPAddr converts a resolved *net.TCPAddr into a Service. An IPv4
// address (4-byte or 4-in-16 form) becomes an IPv4 Service and any other
// 16-byte address an IPv6 one; anything else (bad input from a misbehaving
// resolver) is rejected.
func FromTCPAddr(a *net.TCPAddr) (Service, error) {
	if v4 := a.IP.To4(); v4 != nil {
		var b [4]byte
		copy(b[:], v4)
		return Service{Addr: NewIPv4Address(b), Port: uint16(a.Port)}, nil
	}
	v6 := a.IP.To16()
	if v6 == nil {
		return Service{}, fmt.Errorf("netaddr: unrecognized IP %s", a.IP)
	}
	var b [16]byte
	copy(b[:], v6)
	return Service{Addr: NewIPv6Address(b), Port: uint16(a.Port)}, nil
}

// ParseService parses either a "ip:port" clearnet address or a
// "xxxx...onion:port" Tor v3 address into a Service.
func ParseService(s string) (Service, error) {
	s = strings.TrimSpace(s)
	if host, portStr, err := net.SplitHostPort(s); err == nil {
		port, perr := strconv.ParseUint(portStr, 10, 16)
		if perr != nil {
			return Service{}, fmt.Errorf("netaddr: invalid port in %q: %w", s, perr)
		}
		if ip := net.ParseIP(host); ip != nil {
			if v4 := ip.To4(); v4 != nil {
				var b [4]byte
				copy(b[:], v4)
				return Service{Addr: NewIPv4Address(b), Port: uint16(port)}, nil
			}
			var b [16]byte
			copy(b[:], ip.To16())
			return Service{Addr: NewIPv6Address(b), Port: uint16(port)}, nil
		}
		if pk, err := DecodeOnionV3(host); err == nil {
			return Service{Addr: NewTorV3Address(pk), Port: uint16(port)}, nil
		}
	}
	return Service{}, fmt.Errorf("netaddr: cannot parse %q as a connect target", s)
}
