package tlscert

import (
	"crypto/x509"
	"encoding/pem"
	"os"
	"testing"
)

func TestLoadOrCreateGeneratesServableCertificate(t *testing.T) {
	dir := t.TempDir()

	certPath, keyPath, err := LoadOrCreate(dir, []string{"node.example.com", "192.168.1.10"}, nil)
	if err != nil {
		t.Fatalf("LoadOrCreate failed: %v", err)
	}

	raw, err := os.ReadFile(certPath)
	if err != nil {
		t.Fatalf("read certificate: %v", err)
	}
	block, _ := pem.Decode(raw)
	if block == nil || block.Type != "CERTIFICATE" {
		t.Fatalf("expected a CERTIFICATE PEM block, got %+v", block)
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		t.Fatalf("parse certificate: %v", err)
	}

	if err := cert.VerifyHostname("localhost"); err != nil {
		t.Fatalf("certificate must cover localhost: %v", err)
	}
	if err := cert.VerifyHostname("node.example.com"); err != nil {
		t.Fatalf("certificate must cover extra DNS hosts: %v", err)
	}
	if err := cert.VerifyHostname("192.168.1.10"); err != nil {
		t.Fatalf("certificate must cover extra IP hosts: %v", err)
	}

	rawKey, err := os.ReadFile(keyPath)
	if err != nil {
		t.Fatalf("read key: %v", err)
	}
	keyBlock, _ := pem.Decode(rawKey)
	if keyBlock == nil || keyBlock.Type != "EC PRIVATE KEY" {
		t.Fatalf("expected an EC PRIVATE KEY PEM block, got %+v", keyBlock)
	}
	if _, err := x509.ParseECPrivateKey(keyBlock.Bytes); err != nil {
		t.Fatalf("parse key: %v", err)
	}
}

func TestLoadOrCreateReusesExistingPair(t *testing.T) {
	dir := t.TempDir()

	certPath, _, err := LoadOrCreate(dir, nil, nil)
	if err != nil {
		t.Fatalf("first LoadOrCreate failed: %v", err)
	}
	first, err := os.ReadFile(certPath)
	if err != nil {
		t.Fatalf("read certificate: %v", err)
	}

	certPath2, _, err := LoadOrCreate(dir, nil, nil)
	if err != nil {
		t.Fatalf("second LoadOrCreate failed: %v", err)
	}
	if certPath2 != certPath {
		t.Fatalf("paths changed across runs: %s vs %s", certPath, certPath2)
	}
	second, err := os.ReadFile(certPath2)
	if err != nil {
		t.Fatalf("read certificate again: %v", err)
	}
	if string(first) != string(second) {
		t.Fatal("certificate was regenerated; the pinned fingerprint would change")
	}
}
