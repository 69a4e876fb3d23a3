package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/ridgeline-retail/fedhui/internal/logger"
)

// RateLimiter enforces HEARTBEAT_RATE_LIMIT_PER_MIN per store id
// (spec.md §9 "a misbehaving store cannot starve the registry"), one
// token-bucket limiter per store, created lazily and kept for the
// process lifetime.
type RateLimiter struct {
	log          *logger.Logger
	perMinute    int
	mu           sync.Mutex
	perStore     map[string]*rate.Limiter
}

func NewRateLimiter(log *logger.Logger, perMinute int) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 120
	}
	return &RateLimiter{
		log:       log.With("middleware", "RateLimiter"),
		perMinute: perMinute,
		perStore:  make(map[string]*rate.Limiter),
	}
}

func (rl *RateLimiter) limiterFor(storeID string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	lim, ok := rl.perStore[storeID]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(float64(rl.perMinute)/60.0), rl.perMinute)
		rl.perStore[storeID] = lim
	}
	return lim
}

// PerStoreLimit limits requests keyed on the :id path param, meant to
// guard the heartbeat endpoint.
func (rl *RateLimiter) PerStoreLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		storeID := c.Param("id")
		if storeID == "" {
			c.Next()
			return
		}
		if !rl.limiterFor(storeID).Allow() {
			rl.log.Debug("heartbeat rate limit exceeded", "store_id", storeID)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate_limited", "message": "too many heartbeats", "timestamp": time.Now().UTC().Format(time.RFC3339)})
			return
		}
		c.Next()
	}
}
