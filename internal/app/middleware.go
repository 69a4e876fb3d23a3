package app

import (
	"github.com/ridgeline-retail/fedhui/internal/logger"
	"github.com/ridgeline-retail/fedhui/internal/middleware"
)

type Middleware struct {
	HeartbeatLimiter *middleware.RateLimiter
}

func wireMiddleware(log *logger.Logger, cfg Config) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		HeartbeatLimiter: middleware.NewRateLimiter(log, cfg.HeartbeatRateLimitPerMin),
	}
}
