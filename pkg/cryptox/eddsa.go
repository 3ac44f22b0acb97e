package cryptox

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
)

// GenerateEd25519Key generates a new Ed25519 private key in PKCS8 PEM form.
func GenerateEd25519Key() ([]byte, error) {
	_, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("cryptox: failed to generate Ed25519 key: %w", err)
	}

	der, err := x509.MarshalPKCS8PrivateKey(privateKey)
	if err != nil {
		return nil, fmt.Errorf("cryptox: failed to marshal PKCS8 key: %w", err)
	}

	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), nil
}

// LoadOrGenerateEd25519Key reads a PEM key from path. If the file does not
// exist a new key is generated and written with 0600 permissions, so session
// cookies survive restarts.
func LoadOrGenerateEd25519Key(path string) ([]byte, error) {
	path = filepath.Clean(path)

	b, err := os.ReadFile(path) // #nosec G304 - operator supplied path
	if err == nil {
		return b, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("cryptox: read key: %w", err)
	}

	b, err = GenerateEd25519Key()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("cryptox: create key dir: %w", err)
	}
	if err := os.WriteFile(path, b, 0600); err != nil {
		return nil, fmt.Errorf("cryptox: write key: %w", err)
	}
	return b, nil
}
