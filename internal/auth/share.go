// Package auth issues and validates share tokens: signed, expiring grants
// that let anyone holding the link view a session's summary read-only.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid or expired share token")

// ShareManager handles share token generation and validation.
type ShareManager struct {
	secretKey     []byte
	tokenDuration time.Duration
}

// ShareClaims represents the claims carried by a share token.
type ShareClaims struct {
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

// NewShareManager creates a share manager with the given secret and token
// lifetime. secretKey should be a strong random string (e.g., 32 bytes).
func NewShareManager(secretKey string, tokenDuration time.Duration) *ShareManager {
	return &ShareManager{
		secretKey:     []byte(secretKey),
		tokenDuration: tokenDuration,
	}
}

// Generate creates a share token for the given session, returning the token
// and its expiry time.
func (m *ShareManager) Generate(sessionID string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(m.tokenDuration)
	claims := &ShareClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Validate parses and validates a share token, returning the session id it
// grants access to.
func (m *ShareManager) Validate(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&ShareClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return m.secretKey, nil
		},
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*ShareClaims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return "", ErrInvalidToken
	}
	return claims.SessionID, nil
}
