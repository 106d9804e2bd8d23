package probe

import (
	"context"
	"errors"
	"net"
	"strconv"
)

// Default directory ports.
const (
	DefaultPort    uint16 = 389
	DefaultTLSPort uint16 = 636
)

// ErrorKind classifies what went wrong inside a probe stage. Kinds are
// stage-scoped: the first four come from the TCP stage, the rest from the
// bind stage.
type ErrorKind string

const (
	KindDNSResolution  ErrorKind = "dns_resolution"
	KindConnectTimeout ErrorKind = "connect_timeout"
	KindConnectRefused ErrorKind = "connect_refused"
	KindTransportError ErrorKind = "transport_error"
	KindTLSHandshake   ErrorKind = "tls_handshake"
	KindBindRejected   ErrorKind = "bind_rejected"
	KindBindTimeout    ErrorKind = "bind_timeout"
	KindProtocolError  ErrorKind = "protocol_error"
)

// Target is a single directory server to diagnose. Construct via NewTarget
// so the port defaulting rule is applied consistently.
type Target struct {
	Host   string `json:"host"`
	Port   uint16 `json:"port"`
	UseTLS bool   `json:"use_tls"`
}

// NewTarget builds a Target. A zero port picks the protocol default
// (389 plain, 636 LDAPS); an explicit port always wins, even with TLS.
func NewTarget(host string, port uint16, useTLS bool) Target {
	if port == 0 {
		if useTLS {
			port = DefaultTLSPort
		} else {
			port = DefaultPort
		}
	}
	return Target{Host: host, Port: port, UseTLS: useTLS}
}

// Validate reports whether the target is probeable at all. A failed
// validation maps to DiagInputError before any network I/O happens.
func (t Target) Validate() error {
	if t.Host == "" {
		return errors.New("empty host")
	}
	if t.Port == 0 {
		return errors.New("port must be 1-65535")
	}
	return nil
}

// Addr returns the host:port dial string.
func (t Target) Addr() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(int(t.Port)))
}

// StageOutcome holds the result of one probe stage. It is a value, not an
// error: probers never let failures escape their own scope.
type StageOutcome struct {
	Succeeded bool      `json:"succeeded"`
	LatencyMS float64   `json:"latency_ms"`
	Kind      ErrorKind `json:"error_kind,omitempty"`
	Detail    string    `json:"detail,omitempty"`
}

// TransportProber tests raw reachability of a target (stage one).
type TransportProber interface {
	Probe(ctx context.Context, t Target) StageOutcome
}

// SessionProber performs the protocol-level bind attempt (stage two).
// Implementations are only ever invoked after a successful transport probe.
type SessionProber interface {
	Probe(ctx context.Context, t Target) StageOutcome
}
