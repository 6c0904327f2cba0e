package middleware

import (
	"net/http"

	"github.com/ds124wfegd/WB_L3/position/internal/entity"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimit is a single token bucket shared by all callers. rps <= 0 disables it.
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	if rps <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if burst <= 0 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(rps), burst)

	return func(c *gin.Context) {
		if !limiter.Allow() {
			kind := entity.KindRateLimited
			c.AbortWithStatusJSON(http.StatusTooManyRequests, entity.ErrorResponse{
				ErrorKind: string(kind),
				Error:     kind.Message(),
				Status:    kind.HTTPStatus(),
			})
			return
		}
		c.Next()
	}
}
