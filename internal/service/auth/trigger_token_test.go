package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-0123456789abcdef"

func TestNewTriggerTokenService(t *testing.T) {
	t.Parallel()

	t.Run("rejects empty secret", func(t *testing.T) {
		t.Parallel()
		_, err := NewTriggerTokenService("", time.Minute)
		assert.ErrorIs(t, err, ErrEmptySecret)
	})

	t.Run("accepts non-positive lifetime", func(t *testing.T) {
		t.Parallel()
		svc, err := NewTriggerTokenService(testSecret, 0)
		require.NoError(t, err)
		assert.NotNil(t, svc)
	})
}

func TestTriggerTokenService_RoundTrip(t *testing.T) {
	t.Parallel()

	svc, err := NewTriggerTokenService(testSecret, time.Minute)
	require.NoError(t, err)

	token, err := svc.GenerateToken(context.Background(), "scheduler")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	subject, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "scheduler", subject)
}

func TestTriggerTokenService_RejectsExpiredToken(t *testing.T) {
	t.Parallel()

	// Mint a token that is already expired.
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   "scheduler",
		IssuedAt:  jwt.NewNumericDate(now.Add(-2 * time.Hour)),
		ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour)),
	}
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	svc, err := NewTriggerTokenService(testSecret, time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(context.Background(), expired)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestTriggerTokenService_RejectsWrongSecret(t *testing.T) {
	t.Parallel()

	minter, err := NewTriggerTokenService("another-secret-value-entirely", time.Minute)
	require.NoError(t, err)
	token, err := minter.GenerateToken(context.Background(), "scheduler")
	require.NoError(t, err)

	svc, err := NewTriggerTokenService(testSecret, time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTriggerTokenService_RejectsWrongAlgorithm(t *testing.T) {
	t.Parallel()

	// alg=none tokens must never validate.
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "scheduler",
		ExpiresAt: jwt.NewNumericDate(time.Now().UTC().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	svc, err := NewTriggerTokenService(testSecret, time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(context.Background(), unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTriggerTokenService_RejectsGarbage(t *testing.T) {
	t.Parallel()

	svc, err := NewTriggerTokenService(testSecret, time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
