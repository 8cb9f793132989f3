package netaddr

import (
	"encoding/base32"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

const (
	onionV3Version  = 0x03
	onionV3Checksum = ".onion checksum"
	onionV3Domain   = 56 // base32-encoded label length, not counting ".onion"
)

// EncodeOnionV3 converts an ed25519 public key into its ".onion" domain:
// base32(pubkey || checksum[0:2] || version), lowercased, with ".onion"
// appended. Bit-exact with the Tor v3 address spec.
func EncodeOnionV3(pk [32]byte) string {
	checksum := onionV3ChecksumOf(pk)

	var addr [35]byte
	copy(addr[0:32], pk[:])
	copy(addr[32:34], checksum[:2])
	addr[34] = onionV3Version

	encoded := base32.StdEncoding.EncodeToString(addr[:])
	return strings.ToLower(encoded) + ".onion"
}

// DecodeOnionV3 parses a ".onion" domain back into its ed25519 public key,
// validating the version byte and checksum.
func DecodeOnionV3(domain string) ([32]byte, error) {
	var pk [32]byte

	domain = strings.TrimSpace(domain)
	label, tld, ok := strings.Cut(domain, ".")
	if !ok {
		idx := strings.LastIndex(domain, ".")
		if idx < 0 {
			return pk, fmt.Errorf("netaddr: %q has no TLD", domain)
		}
		label, tld = domain[:idx], domain[idx+1:]
	}
	if !strings.EqualFold(tld, "onion") {
		return pk, fmt.Errorf("netaddr: %q is not a .onion domain", domain)
	}
	if len(label) != onionV3Domain {
		return pk, fmt.Errorf("netaddr: onion label must be %d chars, got %d", onionV3Domain, len(label))
	}

	decoded, err := base32.StdEncoding.DecodeString(strings.ToUpper(label))
	if err != nil {
		return pk, fmt.Errorf("netaddr: invalid base32 in onion label: %w", err)
	}
	if len(decoded) != 35 {
		return pk, fmt.Errorf("netaddr: decoded onion address must be 35 bytes, got %d", len(decoded))
	}

	copy(pk[:], decoded[0:32])
	checksum := decoded[32:34]
	version := decoded[34]

	expected := onionV3ChecksumOf(pk)
	if version != onionV3Version {
		return [32]byte{}, fmt.Errorf("netaddr: unsupported onion version %d", version)
	}
	if string(checksum) != string(expected[:2]) {
		return [32]byte{}, fmt.Errorf("netaddr: onion checksum mismatch")
	}

	return pk, nil
}

// onionV3ChecksumOf computes SHA3-256(".onion checksum" || pubkey || 0x03).
func onionV3ChecksumOf(pk [32]byte) [32]byte {
	var preimage [len(onionV3Checksum) + 32 + 1]byte
	n := copy(preimage[:], onionV3Checksum)
	n += copy(preimage[n:], pk[:])
	preimage[n] = onionV3Version

	return sha3.Sum256(preimage[:])
}
