// Package auth provides bearer-token authentication for the scheduler-facing
// trigger endpoints. Tokens are HS256 JWTs minted for machine callers (cron,
// platform schedulers); there are no user accounts in this service.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TriggerTokenService mints and validates the bearer tokens that guard the
// worker and reconciler trigger endpoints.
type TriggerTokenService interface {
	// GenerateToken creates a token identifying the given caller.
	GenerateToken(ctx context.Context, subject string) (string, error)

	// ValidateToken verifies a token and returns its subject.
	// Returns ErrExpiredToken or ErrInvalidToken on failure.
	ValidateToken(ctx context.Context, tokenString string) (string, error)
}

// hmacTriggerTokenService implements TriggerTokenService with HS256.
type hmacTriggerTokenService struct {
	secret   []byte
	lifetime time.Duration
}

// defaultTokenLifetime bounds how long a minted trigger token stays valid.
const defaultTokenLifetime = time.Hour

// NewTriggerTokenService creates a TriggerTokenService signing with the given
// shared secret. A non-positive lifetime falls back to the default.
func NewTriggerTokenService(secret string, lifetime time.Duration) (TriggerTokenService, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	if lifetime <= 0 {
		lifetime = defaultTokenLifetime
	}
	return &hmacTriggerTokenService{
		secret:   []byte(secret),
		lifetime: lifetime,
	}, nil
}

// GenerateToken creates a new signed token identifying the given caller.
func (s *hmacTriggerTokenService) GenerateToken(_ context.Context, subject string) (string, error) {
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.lifetime)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken verifies signature and expiry and returns the token subject.
func (s *hmacTriggerTokenService) ValidateToken(_ context.Context, tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&jwt.RegisteredClaims{},
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return s.secret, nil
		},
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
