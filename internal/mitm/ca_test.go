package mitm

import (
	"crypto/x509"
	"encoding/pem"
	"testing"
)

func TestLoadOrCreateCAGeneratesOnFirstRun(t *testing.T) {
	dir := t.TempDir()

	ca, err := LoadOrCreateCA(dir)
	if err != nil {
		t.Fatalf("LoadOrCreateCA: %v", err)
	}
	if ca.rootCert == nil || ca.rootKey == nil {
		t.Fatal("expected a generated root cert and key")
	}
	if !ca.rootCert.IsCA {
		t.Error("expected the root certificate to be marked as a CA")
	}

	block, _ := pem.Decode(ca.RootCertPEM())
	if block == nil {
		t.Fatal("expected a PEM-encoded root certificate")
	}
}

func TestLoadOrCreateCAReloadsPersistedFiles(t *testing.T) {
	dir := t.TempDir()

	first, err := LoadOrCreateCA(dir)
	if err != nil {
		t.Fatalf("first LoadOrCreateCA: %v", err)
	}

	second, err := LoadOrCreateCA(dir)
	if err != nil {
		t.Fatalf("second LoadOrCreateCA: %v", err)
	}

	if first.rootCert.SerialNumber.Cmp(second.rootCert.SerialNumber) != 0 {
		t.Error("expected the reloaded CA to have the same serial number as the generated one")
	}
}

func TestLeafCertificateIsSignedByRoot(t *testing.T) {
	ca, err := LoadOrCreateCA(t.TempDir())
	if err != nil {
		t.Fatalf("LoadOrCreateCA: %v", err)
	}

	leaf, err := ca.LeafCertificate("api.openai.com:443")
	if err != nil {
		t.Fatalf("LeafCertificate: %v", err)
	}
	if leaf.Leaf == nil {
		t.Fatal("expected the leaf certificate's parsed form to be populated")
	}
	if leaf.Leaf.Subject.CommonName != "api.openai.com" {
		t.Errorf("expected port to be stripped from the leaf's CommonName, got %q", leaf.Leaf.Subject.CommonName)
	}
	if len(leaf.Leaf.DNSNames) != 1 || leaf.Leaf.DNSNames[0] != "api.openai.com" {
		t.Errorf("expected a single SAN of api.openai.com, got %v", leaf.Leaf.DNSNames)
	}

	pool := x509.NewCertPool()
	pool.AddCert(ca.rootCert)
	if _, err := leaf.Leaf.Verify(x509.VerifyOptions{DNSName: "api.openai.com", Roots: pool}); err != nil {
		t.Errorf("expected leaf to verify against the root CA: %v", err)
	}
}

func TestLeafCertificateIsCachedPerHost(t *testing.T) {
	ca, err := LoadOrCreateCA(t.TempDir())
	if err != nil {
		t.Fatalf("LoadOrCreateCA: %v", err)
	}

	first, err := ca.LeafCertificate("claude.ai")
	if err != nil {
		t.Fatalf("LeafCertificate: %v", err)
	}
	second, err := ca.LeafCertificate("claude.ai")
	if err != nil {
		t.Fatalf("LeafCertificate: %v", err)
	}
	if first.Leaf.SerialNumber.Cmp(second.Leaf.SerialNumber) != 0 {
		t.Error("expected a repeat request for the same host to return the cached leaf certificate")
	}
}

func TestLeafCertificateDifferentHostsGetDistinctSerials(t *testing.T) {
	ca, err := LoadOrCreateCA(t.TempDir())
	if err != nil {
		t.Fatalf("LoadOrCreateCA: %v", err)
	}

	a, err := ca.LeafCertificate("api.openai.com")
	if err != nil {
		t.Fatalf("LeafCertificate: %v", err)
	}
	b, err := ca.LeafCertificate("claude.ai")
	if err != nil {
		t.Fatalf("LeafCertificate: %v", err)
	}
	if a.Leaf.SerialNumber.Cmp(b.Leaf.SerialNumber) == 0 {
		t.Error("expected distinct hosts to get distinct leaf serials")
	}
}
