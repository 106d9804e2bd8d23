package probe

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"

	"github.com/hamed0406/ldapdiag/internal/trust"
)

// BindProber opens an LDAP session (TLS-wrapped when the target asks for
// it) and attempts an anonymous bind. It owns its session end to end: the
// connection is torn down on every exit path.
type BindProber struct {
	Trust   trust.Policy
	Timeout time.Duration
}

func NewBindProber(policy trust.Policy, timeout time.Duration) *BindProber {
	if policy == nil {
		policy = trust.System()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &BindProber{Trust: policy, Timeout: timeout}
}

func (p *BindProber) Probe(ctx context.Context, t Target) StageOutcome {
	start := time.Now()

	opts := []ldap.DialOpt{
		ldap.DialWithDialer(&net.Dialer{Timeout: p.Timeout}),
	}
	scheme := "ldap"
	if t.UseTLS {
		scheme = "ldaps"
		opts = append(opts, ldap.DialWithTLSConfig(p.Trust.TLSConfig(t.Host)))
	}

	conn, err := ldap.DialURL(fmt.Sprintf("%s://%s", scheme, t.Addr()), opts...)
	if err != nil {
		return StageOutcome{
			Succeeded: false,
			LatencyMS: msSince(start),
			Kind:      classifySessionError(err, t.UseTLS),
			Detail:    err.Error(),
		}
	}
	defer conn.Close()

	conn.SetTimeout(p.Timeout)

	if err := conn.UnauthenticatedBind(""); err != nil {
		return StageOutcome{
			Succeeded: false,
			LatencyMS: msSince(start),
			Kind:      classifyBindError(err),
			Detail:    err.Error(),
		}
	}

	return StageOutcome{Succeeded: true, LatencyMS: msSince(start)}
}

// classifySessionError maps a session-establishment failure. The transport
// was already probed successfully, so under TLS the usual culprit is the
// handshake; a plain-LDAP dial failure here is a transport race.
func classifySessionError(err error, usedTLS bool) ErrorKind {
	if usedTLS && isTLSError(err) {
		return KindTLSHandshake
	}
	if isTimeout(err) {
		return KindBindTimeout
	}
	return KindTransportError
}

// classifyBindError maps the bind response (or the lack of one).
func classifyBindError(err error) ErrorKind {
	var lerr *ldap.Error
	if errors.As(err, &lerr) {
		switch lerr.ResultCode {
		case ldap.ErrorNetwork:
			if isTimeout(lerr.Err) || isTimeout(err) {
				return KindBindTimeout
			}
			// connection dropped or garbage mid-exchange
			return KindProtocolError
		case ldap.ErrorUnexpectedMessage, ldap.ErrorUnexpectedResponse:
			return KindProtocolError
		}
		if lerr.ResultCode < 200 {
			// a genuine server verdict, e.g. invalidCredentials(49),
			// inappropriateAuthentication(48), unwillingToPerform(53)
			return KindBindRejected
		}
		return KindProtocolError
	}
	if isTimeout(err) {
		return KindBindTimeout
	}
	return KindProtocolError
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	// go-ldap reports its own read timeout as a plain network error
	return strings.Contains(err.Error(), "timed out")
}

func isTLSError(err error) bool {
	var (
		certErr  *tls.CertificateVerificationError
		recErr   tls.RecordHeaderError
		unkErr   x509.UnknownAuthorityError
		hostErr  x509.HostnameError
		validErr x509.CertificateInvalidError
	)
	if errors.As(err, &certErr) || errors.As(err, &recErr) ||
		errors.As(err, &unkErr) || errors.As(err, &hostErr) || errors.As(err, &validErr) {
		return true
	}
	// server-side rejections arrive as "remote error: tls: ..."
	msg := err.Error()
	return strings.Contains(msg, "tls:") || strings.Contains(msg, "x509:") ||
		strings.Contains(msg, "pinned:")
}
