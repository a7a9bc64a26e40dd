package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
)

func TestCredentials_SignConnect(t *testing.T) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate test key: %v", err)
	}

	creds := &Credentials{
		KeyID:      "test-key-id",
		PrivateKey: privateKey,
	}

	headers, err := creds.SignConnect()
	if err != nil {
		t.Fatalf("SignConnect failed: %v", err)
	}

	if headers["BILLING-ACCESS-KEY"] != "test-key-id" {
		t.Errorf("BILLING-ACCESS-KEY = %q, want %q", headers["BILLING-ACCESS-KEY"], "test-key-id")
	}

	if headers["BILLING-ACCESS-TIMESTAMP"] == "" {
		t.Error("BILLING-ACCESS-TIMESTAMP is empty")
	}

	if headers["BILLING-ACCESS-SIGNATURE"] == "" {
		t.Error("BILLING-ACCESS-SIGNATURE is empty")
	}

	if _, err := base64.StdEncoding.DecodeString(headers["BILLING-ACCESS-SIGNATURE"]); err != nil {
		t.Errorf("BILLING-ACCESS-SIGNATURE is not valid base64: %v", err)
	}
}

func TestLoadPrivateKey_PKCS8(t *testing.T) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate test key: %v", err)
	}

	pkcs8Bytes, err := x509.MarshalPKCS8PrivateKey(privateKey)
	if err != nil {
		t.Fatalf("failed to marshal PKCS#8: %v", err)
	}

	pemBlock := &pem.Block{
		Type:  "PRIVATE KEY",
		Bytes: pkcs8Bytes,
	}

	tmpFile := filepath.Join(t.TempDir(), "test-key.pem")
	if err := os.WriteFile(tmpFile, pem.EncodeToMemory(pemBlock), 0600); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}

	loadedKey, err := LoadPrivateKey(tmpFile)
	if err != nil {
		t.Fatalf("LoadPrivateKey failed: %v", err)
	}

	if loadedKey.N.Cmp(privateKey.N) != 0 {
		t.Error("loaded key does not match original")
	}
}

func TestLoadPrivateKey_PKCS1(t *testing.T) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate test key: %v", err)
	}

	pemBlock := &pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(privateKey),
	}

	tmpFile := filepath.Join(t.TempDir(), "test-key.pem")
	if err := os.WriteFile(tmpFile, pem.EncodeToMemory(pemBlock), 0600); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}

	loadedKey, err := LoadPrivateKey(tmpFile)
	if err != nil {
		t.Fatalf("LoadPrivateKey failed: %v", err)
	}

	if loadedKey.N.Cmp(privateKey.N) != 0 {
		t.Error("loaded key does not match original")
	}
}

func TestLoadCredentials_MissingInputs(t *testing.T) {
	if _, err := LoadCredentials("", "/tmp/key.pem"); err == nil {
		t.Error("expected error for empty key ID")
	}
	if _, err := LoadCredentials("key-id", ""); err == nil {
		t.Error("expected error for empty key path")
	}
}
