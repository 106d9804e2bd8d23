package probe

import (
	"context"
	"errors"
	"net"
	"strconv"
	"syscall"
	"time"
)

// IPResolver is the slice of net.Resolver the prober needs.
type IPResolver interface {
	LookupIP(ctx context.Context, network, host string) ([]net.IP, error)
}

// TCPProber checks transport reachability of host:port. It resolves the
// host first so DNS failures are reported distinctly from connect failures.
type TCPProber struct {
	Resolver IPResolver
	Timeout  time.Duration
}

func NewTCPProber(timeout time.Duration) *TCPProber {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &TCPProber{Timeout: timeout}
}

func (p *TCPProber) resolver() IPResolver {
	if p.Resolver != nil {
		return p.Resolver
	}
	return net.DefaultResolver // OS resolver
}

func (p *TCPProber) Probe(ctx context.Context, t Target) StageOutcome {
	start := time.Now()

	ips := []net.IP{net.ParseIP(t.Host)}
	if ips[0] == nil {
		rctx, cancel := context.WithTimeout(ctx, p.Timeout)
		resolved, err := p.resolver().LookupIP(rctx, "ip", t.Host)
		cancel()
		if err != nil || len(resolved) == 0 {
			detail := "no addresses found"
			if err != nil {
				detail = err.Error()
			}
			return StageOutcome{
				Succeeded: false,
				LatencyMS: msSince(start),
				Kind:      KindDNSResolution,
				Detail:    detail,
			}
		}
		ips = resolved
	}

	// dual-stack hosts get every resolved address a chance; the shared
	// deadline bounds the whole attempt, not each address
	dctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()
	var d net.Dialer
	var lastErr error
	for _, ip := range ips {
		addr := net.JoinHostPort(ip.String(), strconv.Itoa(int(t.Port)))
		conn, err := d.DialContext(dctx, "tcp", addr)
		if err == nil {
			_ = conn.Close()
			return StageOutcome{Succeeded: true, LatencyMS: msSince(start)}
		}
		lastErr = err
		if dctx.Err() != nil {
			break
		}
	}

	return StageOutcome{
		Succeeded: false,
		LatencyMS: msSince(start),
		Kind:      classifyDialError(lastErr),
		Detail:    lastErr.Error(),
	}
}

// classifyDialError maps a dial failure onto the transport error taxonomy.
func classifyDialError(err error) ErrorKind {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return KindDNSResolution
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return KindConnectTimeout
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindConnectTimeout
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return KindConnectRefused
	}
	return KindTransportError
}

func msSince(start time.Time) float64 {
	return time.Since(start).Seconds() * 1000
}
