package auth

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

const pemBlockType = "EC PRIVATE KEY"

// LoadECDSAPrivateKey loads a PEM encoded ECDSA private key from keyPath.
func LoadECDSAPrivateKey(keyPath string) (*ecdsa.PrivateKey, error) {
	if _, err := os.Stat(keyPath); err != nil {
		return nil, fmt.Errorf("private key path does not exist: %w", err)
	}

	keyData, err := os.ReadFile(keyPath) // #nosec G304 -- path comes from service config
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}

	block, _ := pem.Decode(keyData)
	if block == nil {
		return nil, fmt.Errorf("failed to decode PEM block")
	}

	privateKey, err := x509.ParseECPrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ECDSA private key: %w", err)
	}

	return privateKey, nil
}

// LoadOrCreateECDSAPrivateKey loads the key at keyPath, generating and saving a
// new P-256 key there first if the file does not exist.
func LoadOrCreateECDSAPrivateKey(keyPath string) (*ecdsa.PrivateKey, error) {
	if keyPath == "" {
		return nil, fmt.Errorf("private key path is empty")
	}

	_, err := os.Stat(keyPath)
	if err == nil {
		return LoadECDSAPrivateKey(keyPath)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat private key: %w", err)
	}

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ECDSA key: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(keyPath), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create key directory: %w", err)
	}
	f, err := os.OpenFile(keyPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600) // #nosec G304
	if err != nil {
		return nil, fmt.Errorf("failed to create key file: %w", err)
	}
	defer f.Close()

	if err := EncodeECDSAPrivateKeyToPEM(f, key); err != nil {
		return nil, err
	}

	return key, nil
}

// EncodeECDSAPrivateKeyToPEM writes key to out in PEM format.
func EncodeECDSAPrivateKeyToPEM(out io.Writer, key *ecdsa.PrivateKey) error {
	der, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return fmt.Errorf("failed to marshal ECDSA private key: %w", err)
	}
	if err := pem.Encode(out, &pem.Block{Type: pemBlockType, Bytes: der}); err != nil {
		return fmt.Errorf("failed to encode PEM: %w", err)
	}
	return nil
}
