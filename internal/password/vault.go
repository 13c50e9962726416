// Package password hashes and verifies user passwords with bcrypt.
package password

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

const (
	// DefaultCost is used when the configured cost is zero.
	DefaultCost = bcrypt.DefaultCost
	// DefaultMaxConcurrent is used when the configured concurrency is zero.
	DefaultMaxConcurrent = 4
	// MaxPasswordBytes is the longest plaintext bcrypt takes into account.
	MaxPasswordBytes = 72

	redacted = "[REDACTED]"
)

var (
	// ErrEmptyPassword is returned when hashing an empty plaintext.
	ErrEmptyPassword = errors.New("password cannot be empty")
	// ErrPasswordTooLong is returned for plaintexts bcrypt cannot hash (over 72 bytes).
	ErrPasswordTooLong = errors.New("password exceeds 72 bytes")
)

// Hash is a stored bcrypt hash. It never prints, marshals or logs its value;
// storage code converts it explicitly with string(h).
type Hash string

func (h Hash) String() string { return redacted }

func (h Hash) GoString() string { return redacted }

func (h Hash) MarshalJSON() ([]byte, error) { return []byte(`"` + redacted + `"`), nil }

func (h Hash) MarshalText() ([]byte, error) { return []byte(redacted), nil }

// MarshalZerologObject keeps the hash out of structured logs.
func (h Hash) MarshalZerologObject(e *zerolog.Event) { e.Str("hash", redacted) }

// Vault hashes and verifies passwords. bcrypt work is CPU bound, so the number of
// concurrent hash/verify calls is capped to keep request handling responsive.
type Vault struct {
	cost int
	sem  *semaphore.Weighted
}

// NewVault creates a Vault. Zero values select DefaultCost and DefaultMaxConcurrent.
func NewVault(cost, maxConcurrent int) (*Vault, error) {
	if cost == 0 {
		cost = DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}

	return &Vault{
		cost: cost,
		sem:  semaphore.NewWeighted(int64(maxConcurrent)),
	}, nil
}

// Hash derives a salted one-way hash of plaintext.
func (v *Vault) Hash(ctx context.Context, plaintext string) (Hash, error) {
	if plaintext == "" {
		return "", ErrEmptyPassword
	}
	if len(plaintext) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	if err := v.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("waiting for hashing slot: %w", err)
	}
	defer v.sem.Release(1)

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), v.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return Hash(hashed), nil
}

// Verify reports whether plaintext produced hash. Any failure, including a
// malformed hash, reads as a mismatch. bcrypt ignores bytes past
// MaxPasswordBytes, so longer plaintexts never match: Hash refuses them.
func (v *Vault) Verify(ctx context.Context, hash Hash, plaintext string) bool {
	if hash == "" || plaintext == "" || len(plaintext) > MaxPasswordBytes {
		return false
	}

	if err := v.sem.Acquire(ctx, 1); err != nil {
		return false
	}
	defer v.sem.Release(1)

	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
