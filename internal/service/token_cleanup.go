package service

import (
	"bitwise74/readstack/internal/store"
	"context"
	"time"

	"go.uber.org/zap"
)

// TokenCleanup periodically removes verification tokens that expired or
// passed their cleanup date. It stops when ctx is done.
func TokenCleanup(ctx context.Context, t time.Duration, tokens store.TokenStore) {
	ticker := time.NewTicker(t)
	defer ticker.Stop()

	zap.L().Debug("Token cleanup attached", zap.Duration("tick_every", t))

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := tokens.DeleteExpiredTokens(ctx, time.Now())
			if err != nil {
				zap.L().Error("Failed to cleanup expired tokens", zap.Error(err))
				continue
			}

			if n > 0 {
				zap.L().Debug("Cleaned up expired tokens", zap.Int64("count", n))
			}
		}
	}
}
