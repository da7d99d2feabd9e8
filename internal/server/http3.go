package server

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/quic-go/quic-go/http3"
)

// HTTP3Server wraps the http3.Server lifecycle
type HTTP3Server struct {
	srv  *http3.Server
	addr string

	mu      sync.Mutex
	pc      net.PacketConn
	done    chan error
	exited  chan struct{}
	bound   string
	stopped bool
}

// NewHTTP3Server creates a server for addr. Use ":0" for an ephemeral port
// and read the bound address from Start.
func NewHTTP3Server(addr string, tlsCfg *tls.Config, h http.Handler) *HTTP3Server {
	return &HTTP3Server{
		srv:  &http3.Server{Addr: addr, TLSConfig: tlsCfg, Handler: h},
		addr: addr,
	}
}

// Start binds the UDP socket and serves in the background
func (s *HTTP3Server) Start() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return "", fmt.Errorf("server on %s is stopped", s.bound)
	}
	if s.pc != nil {
		return "", fmt.Errorf("server already started on %s", s.bound)
	}

	pc, err := net.ListenPacket("udp", s.addr)
	if err != nil {
		return "", fmt.Errorf("listen %s: %w", s.addr, err)
	}
	s.pc = pc
	s.bound = pc.LocalAddr().String()
	s.done = make(chan error, 1)
	s.exited = make(chan struct{})

	go func(done chan<- error, exited chan<- struct{}) {
		done <- s.srv.Serve(pc)
		close(exited)
	}(s.done, s.exited)
	return s.bound, nil
}

// Done reports the error Serve returned once the server stops
func (s *HTTP3Server) Done() <-chan error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Stop closes the server and waits up to a second for Serve to return.
// Calls after the first return nil immediately.
func (s *HTTP3Server) Stop() error {
	s.mu.Lock()
	pc, exited := s.pc, s.exited
	s.pc = nil
	if pc != nil {
		s.stopped = true
	}
	s.mu.Unlock()
	if pc == nil {
		return nil
	}

	err := s.srv.Close()
	_ = pc.Close()
	select {
	case <-exited:
	case <-time.After(time.Second):
	}
	return err
}

// NewClient returns an http.Client speaking HTTP/3
func NewClient(tlsCfg *tls.Config, timeout time.Duration) *http.Client {
	return &http.Client{Transport: &http3.Transport{TLSClientConfig: tlsCfg}, Timeout: timeout}
}

// CloseClient releases the QUIC connections held by c
func CloseClient(c *http.Client) {
	if tr, ok := c.Transport.(*http3.Transport); ok {
		_ = tr.Close()
	}
}

// LoadTLS loads the server certificate and key
func LoadTLS(certFile, keyFile string) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, err
	}
	return &tls.Config{Certificates: []tls.Certificate{cert}, MinVersion: tls.VersionTLS13}, nil
}

// SelfSignedTLS creates an in-memory certificate for hosts, for local use only
func SelfSignedTLS(hosts []string, validFor time.Duration) (*tls.Config, error) {
	if validFor <= 0 {
		validFor = 24 * time.Hour
	}
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, err
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(validFor),
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	for _, h := range hosts {
		if ip := net.ParseIP(h); ip != nil {
			tmpl.IPAddresses = append(tmpl.IPAddresses, ip)
		} else {
			tmpl.DNSNames = append(tmpl.DNSNames, h)
		}
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		return nil, err
	}
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	pair, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, err
	}
	return &tls.Config{Certificates: []tls.Certificate{pair}, MinVersion: tls.VersionTLS13}, nil
}
