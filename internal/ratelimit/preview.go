package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/tidybill/internal/config"
)

const keyPreviewCompany = "tidybill:ratelimit:preview:%s"

// PreviewLimiter throttles billing previews per company.
type PreviewLimiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
}

// NewPreviewLimiter returns nil when rate limiting is disabled.
func NewPreviewLimiter(cfg config.Config, client *redis.Client) (*PreviewLimiter, error) {
	if !cfg.RateLimitEnabled {
		return nil, nil
	}
	if client == nil {
		return nil, errors.New("rate limit requires REDIS_ADDR")
	}
	if cfg.RateLimitRate <= 0 || cfg.RateLimitBurst <= 0 {
		return nil, errors.New("preview rate limit must be positive")
	}
	return &PreviewLimiter{
		bucket: NewTokenBucket(client),
		rate:   cfg.RateLimitRate,
		burst:  cfg.RateLimitBurst,
	}, nil
}

func (l *PreviewLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

func (l *PreviewLimiter) Allow(ctx context.Context, companyID string) (*RateLimitResult, error) {
	if !l.Enabled() {
		return &RateLimitResult{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyPreviewCompany, strings.TrimSpace(companyID)), l.rate, l.burst)
}
