package probe

import (
	"context"
	"net"
	"os"
	"syscall"
	"testing"
	"time"
)

func TestTCPProber_ConnectOK(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	port := uint16(ln.Addr().(*net.TCPAddr).Port)

	p := NewTCPProber(2 * time.Second)
	out := p.Probe(context.Background(), NewTarget("127.0.0.1", port, false))
	if !out.Succeeded {
		t.Fatalf("want success, got %+v", out)
	}
	if out.Kind != "" {
		t.Fatalf("success should carry no error kind, got %s", out.Kind)
	}
	if out.LatencyMS < 0 {
		t.Fatalf("latency should be >= 0, got %f", out.LatencyMS)
	}
}

func TestTCPProber_ConnectRefused(t *testing.T) {
	// grab a free port, then close the listener so nothing accepts
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := uint16(ln.Addr().(*net.TCPAddr).Port)
	ln.Close()

	p := NewTCPProber(2 * time.Second)
	out := p.Probe(context.Background(), NewTarget("127.0.0.1", port, false))
	if out.Succeeded {
		t.Fatalf("want failure, got %+v", out)
	}
	if out.Kind != KindConnectRefused {
		t.Fatalf("kind=%s want %s (%s)", out.Kind, KindConnectRefused, out.Detail)
	}
}

// staticResolver hands out a canned address list.
type staticResolver struct {
	ips []net.IP
}

func (s *staticResolver) LookupIP(ctx context.Context, network, host string) ([]net.IP, error) {
	return s.ips, nil
}

func TestTCPProber_FallsThroughResolvedAddresses(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	port := uint16(ln.Addr().(*net.TCPAddr).Port)

	// first address refuses (nothing listens on 127.0.0.2), second accepts
	p := NewTCPProber(2 * time.Second)
	p.Resolver = &staticResolver{ips: []net.IP{
		net.ParseIP("127.0.0.2"),
		net.ParseIP("127.0.0.1"),
	}}

	out := p.Probe(context.Background(), NewTarget("dualstack.example.com", port, false))
	if !out.Succeeded {
		t.Fatalf("want success via second address, got %+v", out)
	}
}

func TestTCPProber_ReportsLastDialError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := uint16(ln.Addr().(*net.TCPAddr).Port)
	ln.Close()

	p := NewTCPProber(2 * time.Second)
	p.Resolver = &staticResolver{ips: []net.IP{
		net.ParseIP("127.0.0.2"),
		net.ParseIP("127.0.0.1"),
	}}

	out := p.Probe(context.Background(), NewTarget("dualstack.example.com", port, false))
	if out.Succeeded {
		t.Fatalf("want failure, got %+v", out)
	}
	if out.Kind != KindConnectRefused {
		t.Fatalf("kind=%s want %s (%s)", out.Kind, KindConnectRefused, out.Detail)
	}
}

func TestTCPProber_DNSFailure(t *testing.T) {
	// .invalid is reserved (RFC 2606) and never resolves
	p := NewTCPProber(2 * time.Second)
	out := p.Probe(context.Background(), NewTarget("no-such-directory.invalid", 389, false))
	if out.Succeeded {
		t.Fatalf("want failure, got %+v", out)
	}
	if out.Kind != KindDNSResolution {
		t.Fatalf("kind=%s want %s (%s)", out.Kind, KindDNSResolution, out.Detail)
	}
	if out.Detail == "" {
		t.Fatal("want non-empty detail")
	}
}

func TestTCPProber_TimeoutReturnsWithinBound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping blackhole dial in short mode")
	}
	// 203.0.113.0/24 is TEST-NET-3; connection attempts should go nowhere
	timeout := 300 * time.Millisecond
	p := NewTCPProber(timeout)

	start := time.Now()
	out := p.Probe(context.Background(), NewTarget("203.0.113.1", 389, false))
	elapsed := time.Since(start)

	if out.Succeeded {
		t.Fatalf("want failure, got %+v", out)
	}
	if elapsed > timeout+2*time.Second {
		t.Fatalf("probe took %v, way past the %v timeout", elapsed, timeout)
	}
	// most networks blackhole TEST-NET-3 (timeout); a few answer with
	// ICMP unreachable, which classifies as a transport error
	if out.Kind != KindConnectTimeout && out.Kind != KindTransportError {
		t.Fatalf("kind=%s want %s or %s", out.Kind, KindConnectTimeout, KindTransportError)
	}
}

func TestClassifyDialError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"dns", &net.DNSError{Err: "no such host", Name: "x.invalid", IsNotFound: true}, KindDNSResolution},
		{"deadline", context.DeadlineExceeded, KindConnectTimeout},
		{"op timeout", &net.OpError{Op: "dial", Err: os.ErrDeadlineExceeded}, KindConnectTimeout},
		{"refused", &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}, KindConnectRefused},
		{"unreachable", &net.OpError{Op: "dial", Err: syscall.ENETUNREACH}, KindTransportError},
		{"reset", &net.OpError{Op: "dial", Err: syscall.ECONNRESET}, KindTransportError},
	}
	for _, c := range cases {
		if got := classifyDialError(c.err); got != c.want {
			t.Fatalf("%s: got %s want %s", c.name, got, c.want)
		}
	}
}
