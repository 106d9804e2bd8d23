package probe

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"io"
	"math/big"
	"net"
	"testing"
	"time"
)

// fake directory server: just enough LDAP to answer one bind request.

// bindResponseBytes encodes LDAPMessage{messageID 1, bindResponse{code}}.
func bindResponseBytes(code byte) []byte {
	return []byte{
		0x30, 0x0c, // SEQUENCE, len 12
		0x02, 0x01, 0x01, // messageID INTEGER 1
		0x61, 0x07, // [APPLICATION 1] bindResponse, len 7
		0x0a, 0x01, code, // resultCode ENUMERATED
		0x04, 0x00, // matchedDN ""
		0x04, 0x00, // diagnosticMessage ""
	}
}

// startFakeDirectory listens on loopback and hands every accepted
// connection to respond. The listener is closed via t.Cleanup.
func startFakeDirectory(t *testing.T, tcfg *tls.Config, respond func(net.Conn)) uint16 {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := uint16(ln.Addr().(*net.TCPAddr).Port)
	if tcfg != nil {
		ln = tls.NewListener(ln, tcfg)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				respond(conn)
			}()
		}
	}()
	return port
}

// respondBind reads the incoming bind request and answers with the given
// result code, then drains until the client hangs up.
func respondBind(code byte) func(net.Conn) {
	return func(conn net.Conn) {
		buf := make([]byte, 1024)
		if _, err := conn.Read(buf); err != nil {
			return // e.g. client aborted the TLS handshake
		}
		if _, err := conn.Write(bindResponseBytes(code)); err != nil {
			return
		}
		_, _ = io.Copy(io.Discard, conn)
	}
}

// respondCloseWithoutReply hangs up right after the request arrives.
func respondCloseWithoutReply(conn net.Conn) {
	buf := make([]byte, 1024)
	_, _ = conn.Read(buf)
}

// respondMalformed answers with a BER packet whose inner encoding is broken.
func respondMalformed(conn net.Conn) {
	buf := make([]byte, 1024)
	if _, err := conn.Read(buf); err != nil {
		return
	}
	_, _ = conn.Write([]byte{0x30, 0x06, 0x02, 0x01, 0x01, 0x61, 0x01, 0xff})
}

// respondNever reads the request and goes silent.
func respondNever(hold time.Duration) func(net.Conn) {
	return func(conn net.Conn) {
		buf := make([]byte, 1024)
		_, _ = conn.Read(buf)
		time.Sleep(hold)
	}
}

// generateTestCertificate creates a self-signed cert for 127.0.0.1.
func generateTestCertificate(t *testing.T) (tls.Certificate, []byte) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject: pkix.Name{
			Organization: []string{"ldapdiag test"},
			CommonName:   "127.0.0.1",
		},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		DNSNames:              []string{"localhost"},
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1")},
	}
	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}
	return tls.Certificate{
		Certificate: [][]byte{der},
		PrivateKey:  key,
	}, der
}

func testTLSConfig(t *testing.T) (*tls.Config, []byte) {
	cert, der := generateTestCertificate(t)
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, der
}
