package reliability

import (
	"context"

	"townhall/internal/core/domain"
	"townhall/internal/core/ports"
	"townhall/pkg/circuitbreaker"
	"townhall/pkg/retry"

	"go.uber.org/zap"
)

// VideoClientWrapper wraps a VideoClient with retry logic and a circuit breaker
type VideoClientWrapper struct {
	client ports.VideoClient
	logger *zap.SugaredLogger

	retryConfig    retry.Config
	circuitBreaker *circuitbreaker.CircuitBreaker
}

// NewVideoClientWrapper creates a new wrapper with retry and circuit breaker
func NewVideoClientWrapper(
	client ports.VideoClient,
	retryConfig retry.Config,
	cbConfig circuitbreaker.Config,
	logger *zap.SugaredLogger,
) *VideoClientWrapper {
	wrapper := &VideoClientWrapper{
		client:         client,
		logger:         logger,
		retryConfig:    retryConfig,
		circuitBreaker: circuitbreaker.New(cbConfig),
	}

	wrapper.circuitBreaker.OnStateChange(func(from, to circuitbreaker.State) {
		logger.Infow("video circuit breaker state changed",
			"from", from.String(),
			"to", to.String(),
		)
	})

	return wrapper
}

// GetTokenForTown fetches a media token with retry logic
func (w *VideoClientWrapper) GetTokenForTown(ctx context.Context, townID domain.TownID, playerID domain.PlayerID) (string, error) {
	if !w.retryConfig.Enabled {
		return w.client.GetTokenForTown(ctx, townID, playerID)
	}

	return retry.DoWithResult(ctx, w.retryConfig, func() (string, error) {
		var token string
		err := w.circuitBreaker.Execute(func() error {
			var innerErr error
			token, innerErr = w.client.GetTokenForTown(ctx, townID, playerID)
			return innerErr
		})
		if err != nil {
			w.logger.Warnw("video token request failed",
				"town_id", townID,
				"player_id", playerID,
				"error", err,
			)
			return "", err
		}
		return token, nil
	})
}
