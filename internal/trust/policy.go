// Package trust decides whether a directory server's TLS certificate is
// acceptable. A Policy materializes as the client-side tls.Config used for
// the LDAPS handshake; rejecting the peer surfaces as a handshake failure.
package trust

import (
	"crypto/sha256"
	"crypto/subtle"
	"crypto/tls"
	"crypto/x509"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

type Policy interface {
	// TLSConfig returns the client config enforcing this policy for a
	// connection to serverName.
	TLSConfig(serverName string) *tls.Config
	String() string
}

// System validates the peer against the platform's trusted roots.
// This is the default policy.
func System() Policy { return systemPolicy{} }

type systemPolicy struct{}

func (systemPolicy) TLSConfig(serverName string) *tls.Config {
	return &tls.Config{
		ServerName: serverName,
		MinVersion: tls.VersionTLS12,
	}
}

func (systemPolicy) String() string { return "system" }

// AcceptAll skips certificate verification entirely. It is an explicit
// opt-in for debugging self-signed or broken deployments, never a default.
func AcceptAll() Policy { return acceptAllPolicy{} }

type acceptAllPolicy struct{}

func (acceptAllPolicy) TLSConfig(serverName string) *tls.Config {
	return &tls.Config{
		ServerName:         serverName,
		InsecureSkipVerify: true,
		MinVersion:         tls.VersionTLS12,
	}
}

func (acceptAllPolicy) String() string { return "accept-all" }

// Pinned accepts exactly one leaf certificate, identified by the SHA-256
// of its DER encoding. The hex string may contain colons (openssl style).
func Pinned(hexFingerprint string) (Policy, error) {
	clean := strings.ToLower(strings.ReplaceAll(hexFingerprint, ":", ""))
	raw, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("bad fingerprint %q: %w", hexFingerprint, err)
	}
	if len(raw) != sha256.Size {
		return nil, fmt.Errorf("fingerprint must be %d bytes of hex, got %d", sha256.Size, len(raw))
	}
	p := pinnedPolicy{}
	copy(p.sum[:], raw)
	return p, nil
}

type pinnedPolicy struct {
	sum [sha256.Size]byte
}

func (p pinnedPolicy) TLSConfig(serverName string) *tls.Config {
	return &tls.Config{
		ServerName: serverName,
		MinVersion: tls.VersionTLS12,
		// Chain building is disabled; the pin alone decides.
		InsecureSkipVerify:    true,
		VerifyPeerCertificate: p.verify,
	}
}

func (p pinnedPolicy) verify(rawCerts [][]byte, _ [][]*x509.Certificate) error {
	if len(rawCerts) == 0 {
		return errors.New("pinned: server presented no certificate")
	}
	got := sha256.Sum256(rawCerts[0])
	if subtle.ConstantTimeCompare(got[:], p.sum[:]) != 1 {
		return fmt.Errorf("pinned: leaf fingerprint %s does not match pin", hex.EncodeToString(got[:]))
	}
	return nil
}

func (p pinnedPolicy) String() string {
	return "pinned:" + hex.EncodeToString(p.sum[:])
}

// Fingerprint returns the pin for a DER certificate, in the format
// Pinned accepts. Handy for operators capturing a known-good cert.
func Fingerprint(der []byte) string {
	sum := sha256.Sum256(der)
	return hex.EncodeToString(sum[:])
}

// Parse maps a --trust flag value onto a policy: "system", "accept-all",
// or "pinned:<sha256-hex>".
func Parse(s string) (Policy, error) {
	switch {
	case s == "" || s == "system":
		return System(), nil
	case s == "accept-all":
		return AcceptAll(), nil
	case strings.HasPrefix(s, "pinned:"):
		return Pinned(strings.TrimPrefix(s, "pinned:"))
	default:
		return nil, fmt.Errorf("unknown trust policy %q (want system, accept-all, or pinned:<hash>)", s)
	}
}
