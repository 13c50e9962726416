package auth

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadECDSAPrivateKey(t *testing.T) {
	tests := []struct {
		name    string
		keyPath string
		wantErr bool
	}{
		{
			name:    "load valid key",
			keyPath: validKeyFile,
			wantErr: false,
		},
		{
			name:    "load invalid key",
			keyPath: invalidKeyFile,
			wantErr: true,
		},
		{
			name:    "file does not exist",
			keyPath: "non_existent_key.pem",
			wantErr: true,
		},
		{
			name:    "empty key path",
			keyPath: "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LoadECDSAPrivateKey(tt.keyPath)
			if (err != nil) != tt.wantErr {
				t.Errorf("LoadECDSAPrivateKey() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr {
				checkECDSAPrivateKey(t, got)
			}
		})
	}
}

func TestLoadOrCreateECDSAPrivateKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys", "session_key.pem")

	created, err := LoadOrCreateECDSAPrivateKey(path)
	if err != nil {
		t.Fatalf("LoadOrCreateECDSAPrivateKey() error = %v", err)
	}
	checkECDSAPrivateKey(t, created)

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("key file not written: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("key file mode = %o, want 600", perm)
	}

	loaded, err := LoadOrCreateECDSAPrivateKey(path)
	if err != nil {
		t.Fatalf("LoadOrCreateECDSAPrivateKey() second call error = %v", err)
	}
	if !loaded.Equal(created) {
		t.Error("second call must load the key written by the first")
	}

	if _, err := LoadOrCreateECDSAPrivateKey(""); err == nil {
		t.Error("expected error for empty path")
	}
}

func checkECDSAPrivateKey(t *testing.T, key *ecdsa.PrivateKey) {
	t.Helper()
	if key == nil {
		t.Error("Expected non-nil key")
		return
	}
	if key.Curve != elliptic.P256() {
		t.Errorf("Expected P256 curve")
	}
	hash := []byte("test message")
	r, s, err := ecdsa.Sign(rand.Reader, key, hash)
	if err != nil {
		t.Errorf("Failed to sign with loaded key: %v", err)
	}
	if !ecdsa.Verify(&key.PublicKey, hash, r, s) {
		t.Errorf("Failed to verify signature with loaded key")
	}
}
