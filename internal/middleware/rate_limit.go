package middleware

import (
	"math"
	"strconv"

	"fest-ticketing/internal/cache"
	apperrors "fest-ticketing/pkg/app_errors"
	"fest-ticketing/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimit 以使用者（未登入時以 IP）為單位限流；limiter 出錯時放行
func RateLimit(limiter cache.RateLimiter) gin.HandlerFunc {
	log := logger.WithComponent("http")
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		key := "ip:" + c.ClientIP()
		if identity, ok := IdentityFrom(c); ok {
			key = "user:" + identity.UserID.String()
		}

		decision, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			log.Warn("rate limiter unavailable, allowing request", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.FormatInt(decision.Remaining, 10))
		if !decision.Allowed {
			secs := int(math.Ceil(decision.RetryAfter.Seconds()))
			if secs < 1 {
				secs = 1
			}
			c.Header("Retry-After", strconv.Itoa(secs))
			abortWithError(c, apperrors.ErrRateLimited)
			return
		}
		c.Next()
	}
}
