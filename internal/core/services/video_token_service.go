package services

import (
	"context"
	"errors"
	"time"

	"townhall/internal/core/domain"
	"townhall/internal/core/ports"

	"github.com/golang-jwt/jwt/v5"
)

var ErrVideoSecretMissing = errors.New("video token secret is not configured")

// VideoGrantClaims is the signed grant a client presents to the video
// provider to join a town's room.
type VideoGrantClaims struct {
	TownID   domain.TownID   `json:"town_id"`
	PlayerID domain.PlayerID `json:"player_id"`
	jwt.RegisteredClaims
}

// videoTokenService mints HS256-signed media tokens keyed by
// (townID, playerID). It implements the VideoClient port for deployments
// where the video provider validates locally issued grants.
type videoTokenService struct {
	secret   []byte
	tokenTTL time.Duration
}

func NewVideoTokenService(secret string, tokenTTL time.Duration) (ports.VideoClient, error) {
	if secret == "" {
		return nil, ErrVideoSecretMissing
	}
	return &videoTokenService{
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
	}, nil
}

func (s *videoTokenService) GetTokenForTown(ctx context.Context, townID domain.TownID, playerID domain.PlayerID) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	now := time.Now()
	claims := &VideoGrantClaims{
		TownID:   townID,
		PlayerID: playerID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(playerID),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}
