package server

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/tidybill/internal/observability/logger"
	"github.com/smallbiznis/tidybill/internal/orgcontext"
	"go.uber.org/zap"
)

// PreviewRateLimit applies the per-company token bucket to preview reads.
func (s *Server) PreviewRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.previewLimiter.Enabled() {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		companyID, ok := orgcontext.CompanyIDFromContext(ctx)
		if !ok {
			AbortWithError(c, ErrCompanyRequired)
			return
		}

		result, err := s.previewLimiter.Allow(ctx, companyID.String())
		if err != nil {
			// fail open
			logger.FromContext(ctx).Warn("preview rate limit check failed", zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		if !result.Allowed {
			retryAfter := int(math.Ceil(result.RetryAfter.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			logger.FromContext(ctx).Warn("preview rate limit exceeded")
			AbortWithError(c, ErrRateLimited)
			return
		}
		c.Next()
	}
}
