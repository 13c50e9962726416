// Package auth signs and verifies the session cookie. The cookie carries only an
// opaque session id; the authentication state itself lives in the session store.
package auth

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	ISSUER  = "github.com/haguru/choji"
	SUBJECT = "SESSION"
)

var ErrInvalidToken = errors.New("invalid session token")

type SessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// CreateSessionToken signs sessionID with the service key. The token has no
// expiry; the session ends when the server-side state is removed.
func CreateSessionToken(sessionID string, privateKey *ecdsa.PrivateKey) (string, error) {
	if privateKey == nil {
		return "", fmt.Errorf("private key is nil")
	}
	if sessionID == "" {
		return "", fmt.Errorf("session id is empty")
	}

	claims := SessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now()),
			Issuer:   ISSUER,
			Subject:  SUBJECT,
			ID:       uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)

	signToken, err := token.SignedString(privateKey)
	if err != nil {
		return "", err
	}

	return signToken, nil
}

// VerifySessionToken checks the signature and returns the session id.
func VerifySessionToken(tokenString string, publicKey *ecdsa.PublicKey) (string, error) {
	if publicKey == nil {
		return "", fmt.Errorf("public key is nil")
	}

	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodECDSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return publicKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodES256.Alg()}),
		jwt.WithIssuer(ISSUER),
		jwt.WithSubject(SUBJECT),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return "", ErrInvalidToken
	}

	return claims.SessionID, nil
}
