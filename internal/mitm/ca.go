// Package mitm implements the TLS-terminating proxy at the heart of Aegis:
// it answers CONNECT requests for known LLM domains by minting a
// locally-trusted leaf certificate on the fly, decrypts the tunnel, and
// hands each decoded request to the rule pipeline before forwarding it
// upstream. Traffic to domains outside the watch list is tunneled
// untouched — Aegis never terminates TLS for hosts it isn't filtering.
package mitm

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sujitn/aegis/internal/metrics"
)

const (
	rootCertFile = "aegis-ca-cert.pem"
	rootKeyFile  = "aegis-ca-key.pem"

	rootValidity = 10 * 365 * 24 * time.Hour
	leafValidity = 397 * 24 * time.Hour // under the CA/Browser Forum's leaf cap
)

// CA is Aegis's local root certificate authority. It mints and caches a
// leaf certificate per intercepted hostname, signed by a root that the
// user installs into their OS/browser trust store once at setup time.
type CA struct {
	rootCert *x509.Certificate
	rootKey  *ecdsa.PrivateKey
	rootPEM  []byte

	leaves sync.Map // hostname -> *tls.Certificate

	metrics *metrics.Metrics // optional; nil disables recording
}

// SetMetrics attaches a metrics recorder for leaf certificate mint/cache
// outcomes. Optional — a CA with no metrics attached behaves identically,
// just without the aegis_mitm_cert_mint_total counter incrementing.
func (c *CA) SetMetrics(m *metrics.Metrics) { c.metrics = m }

// LoadOrCreateCA loads the root CA from dir, generating and persisting a
// new one on first run. dir is created if missing.
func LoadOrCreateCA(dir string) (*CA, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating CA directory: %w", err)
	}

	certPath := filepath.Join(dir, rootCertFile)
	keyPath := filepath.Join(dir, rootKeyFile)

	certPEM, certErr := os.ReadFile(certPath)
	keyPEM, keyErr := os.ReadFile(keyPath)
	if certErr == nil && keyErr == nil {
		return parseCA(certPEM, keyPEM)
	}

	return generateCA(certPath, keyPath)
}

func parseCA(certPEM, keyPEM []byte) (*CA, error) {
	certBlock, _ := pem.Decode(certPEM)
	if certBlock == nil {
		return nil, fmt.Errorf("mitm: invalid CA certificate PEM")
	}
	cert, err := x509.ParseCertificate(certBlock.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parsing CA certificate: %w", err)
	}

	keyBlock, _ := pem.Decode(keyPEM)
	if keyBlock == nil {
		return nil, fmt.Errorf("mitm: invalid CA key PEM")
	}
	key, err := x509.ParseECPrivateKey(keyBlock.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parsing CA key: %w", err)
	}

	return &CA{rootCert: cert, rootKey: key, rootPEM: certPEM}, nil
}

func generateCA(certPath, keyPath string) (*CA, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generating CA key: %w", err)
	}

	serial, err := randomSerial()
	if err != nil {
		return nil, err
	}

	tmpl := &x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			Organization: []string{"Aegis"},
			CommonName:   "Aegis Root CA",
		},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(rootValidity),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		return nil, fmt.Errorf("creating CA certificate: %w", err)
	}

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("marshaling CA key: %w", err)
	}
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})

	if err := os.WriteFile(certPath, certPEM, 0o644); err != nil {
		return nil, fmt.Errorf("writing CA certificate: %w", err)
	}
	if err := os.WriteFile(keyPath, keyPEM, 0o600); err != nil {
		return nil, fmt.Errorf("writing CA key: %w", err)
	}

	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("parsing freshly created CA certificate: %w", err)
	}
	return &CA{rootCert: cert, rootKey: key, rootPEM: certPEM}, nil
}

func randomSerial() (*big.Int, error) {
	limit := new(big.Int).Lsh(big.NewInt(1), 128)
	return rand.Int(rand.Reader, limit)
}

// RootCertPEM returns the PEM-encoded root certificate, for the
// control-plane download endpoint that lets the user install it.
func (c *CA) RootCertPEM() []byte { return c.rootPEM }

// LeafCertificate returns a certificate for host, signed by this CA and
// cached in memory for reuse across connections. host may carry a port,
// which is stripped before lookup and SAN generation.
func (c *CA) LeafCertificate(host string) (*tls.Certificate, error) {
	host = stripPort(host)
	if cached, ok := c.leaves.Load(host); ok {
		if c.metrics != nil {
			c.metrics.RecordCertMint("cache_hit")
		}
		return cached.(*tls.Certificate), nil
	}

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generating leaf key: %w", err)
	}
	serial, err := randomSerial()
	if err != nil {
		return nil, err
	}

	tmpl := &x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{Organization: []string{"Aegis"}, CommonName: host},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(leafValidity),
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	if ip := net.ParseIP(host); ip != nil {
		tmpl.IPAddresses = []net.IP{ip}
	} else {
		tmpl.DNSNames = []string{host}
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, c.rootCert, &key.PublicKey, c.rootKey)
	if err != nil {
		return nil, fmt.Errorf("minting leaf certificate for %s: %w", host, err)
	}

	leaf := &tls.Certificate{Certificate: [][]byte{der, c.rootCert.Raw}, PrivateKey: key}
	leaf.Leaf, _ = x509.ParseCertificate(der)

	c.leaves.Store(host, leaf)
	if c.metrics != nil {
		c.metrics.RecordCertMint("signed")
	}
	return leaf, nil
}

func stripPort(hostport string) string {
	if host, _, err := net.SplitHostPort(hostport); err == nil {
		return host
	}
	return hostport
}
