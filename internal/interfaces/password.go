package interfaces

import (
	"context"

	"github.com/haguru/choji/internal/password"
)

// PasswordHasher hashes and verifies passwords. Verify never reports an
// error: anything other than a match is false.
type PasswordHasher interface {
	Hash(ctx context.Context, plaintext string) (password.Hash, error)
	Verify(ctx context.Context, hash password.Hash, plaintext string) bool
}
