package services

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVideoTokenServiceRequiresSecret(t *testing.T) {
	_, err := NewVideoTokenService("", time.Hour)
	assert.ErrorIs(t, err, ErrVideoSecretMissing)
}

func TestGetTokenForTownMintsVerifiableGrant(t *testing.T) {
	svc, err := NewVideoTokenService("test-secret", time.Hour)
	require.NoError(t, err)

	token, err := svc.GetTokenForTown(context.Background(), "ABCD1234", "player-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims := &VideoGrantClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	assert.EqualValues(t, "ABCD1234", claims.TownID)
	assert.EqualValues(t, "player-1", claims.PlayerID)
	assert.Equal(t, "player-1", claims.Subject)

	remaining := time.Until(claims.ExpiresAt.Time)
	assert.Greater(t, remaining, 55*time.Minute)
	assert.LessOrEqual(t, remaining, time.Hour)
}

func TestGetTokenForTownRejectsWrongSecret(t *testing.T) {
	svc, err := NewVideoTokenService("test-secret", time.Hour)
	require.NoError(t, err)

	token, err := svc.GetTokenForTown(context.Background(), "ABCD1234", "player-1")
	require.NoError(t, err)

	_, err = jwt.ParseWithClaims(token, &VideoGrantClaims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte("other-secret"), nil
	})
	assert.Error(t, err)
}

func TestGetTokenForTownHonorsContext(t *testing.T) {
	svc, err := NewVideoTokenService("test-secret", time.Hour)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = svc.GetTokenForTown(ctx, "ABCD1234", "player-1")
	assert.ErrorIs(t, err, context.Canceled)
}
