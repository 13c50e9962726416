// Package session maps opaque session tokens to an authenticated user.
//
// A session is Anonymous until Start binds it to a user, and returns to
// Anonymous on End. The cookie token is a signed envelope around a random
// session id; the binding itself lives in a SessionStore.
package session

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/haguru/choji/internal/auth"
	"github.com/haguru/choji/internal/interfaces"
	"github.com/haguru/choji/pkg/helper"
)

type Manager struct {
	store      interfaces.SessionStore
	privateKey *ecdsa.PrivateKey
	logger     interfaces.Logger
}

// NewManager creates a Manager signing tokens with privateKey.
func NewManager(store interfaces.SessionStore, privateKey *ecdsa.PrivateKey, logger interfaces.Logger) (*Manager, error) {
	if store == nil {
		return nil, errors.New("session store cannot be nil")
	}
	if privateKey == nil {
		return nil, errors.New("private key cannot be nil")
	}
	return &Manager{
		store:      store,
		privateKey: privateKey,
		logger:     logger,
	}, nil
}

// Start authenticates the caller as userID and returns the new token. Any
// session behind previousToken is discarded so a login never reuses an id.
func (m *Manager) Start(ctx context.Context, previousToken string, userID int64) (string, error) {
	funcName := helper.GetFuncName()

	if previousID, ok := m.sessionID(previousToken); ok {
		if _, err := m.store.Delete(ctx, previousID); err != nil {
			m.logger.Warn("Failed to discard previous session", "func", funcName, "error", err)
		}
	}

	id := uuid.NewString()
	if err := m.store.Set(ctx, id, userID); err != nil {
		return "", fmt.Errorf("%s: %w", ErrFailedToStoreSession, err)
	}

	token, err := auth.CreateSessionToken(id, m.privateKey)
	if err != nil {
		if _, delErr := m.store.Delete(ctx, id); delErr != nil {
			m.logger.Warn("Failed to roll back session", "func", funcName, "error", delErr)
		}
		return "", fmt.Errorf("%s: %w", ErrFailedToSignSession, err)
	}

	m.logger.Debug("Session started", "func", funcName, "user_id", userID)
	return token, nil
}

// CurrentUser returns the user bound to token. Missing, unsigned or unknown
// tokens read as anonymous.
func (m *Manager) CurrentUser(ctx context.Context, token string) (int64, bool, error) {
	id, ok := m.sessionID(token)
	if !ok {
		return 0, false, nil
	}

	userID, ok, err := m.store.Get(ctx, id)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", ErrFailedToReadSession, err)
	}
	return userID, ok, nil
}

// End returns the session to anonymous and reports whether it was authenticated.
func (m *Manager) End(ctx context.Context, token string) (bool, error) {
	id, ok := m.sessionID(token)
	if !ok {
		return false, nil
	}

	ended, err := m.store.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("%s: %w", ErrFailedToEndSession, err)
	}
	return ended, nil
}

func (m *Manager) sessionID(token string) (string, bool) {
	if token == "" {
		return "", false
	}
	id, err := auth.VerifySessionToken(token, &m.privateKey.PublicKey)
	if err != nil {
		m.logger.Debug("Ignoring unverifiable session token", "error", err)
		return "", false
	}
	return id, true
}
