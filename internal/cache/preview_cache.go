package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	billingdomain "github.com/smallbiznis/tidybill/internal/billing/domain"
	"go.uber.org/zap"
)

const previewKeyPrefix = "tidybill:preview:"

// PreviewKey identifies one cached client month.
type PreviewKey struct {
	CompanyID string
	ClientID  string
	Year      int
	Month     int
}

func (k PreviewKey) String() string {
	return cacheKey(k.CompanyID, k.ClientID, strconv.Itoa(k.Year), strconv.Itoa(k.Month))
}

// PreviewCache is a read-through cache in front of the billing engine. The
// engine itself never caches.
type PreviewCache interface {
	Get(ctx context.Context, key PreviewKey) (*billingdomain.Preview, bool)
	Set(ctx context.Context, key PreviewKey, preview *billingdomain.Preview, ttl time.Duration)
}

type memoryPreviewCache struct {
	entries Cache[string, billingdomain.Preview]
}

func NewMemoryPreviewCache() PreviewCache {
	return &memoryPreviewCache{entries: NewTTLCache[string, billingdomain.Preview]()}
}

func (c *memoryPreviewCache) Get(_ context.Context, key PreviewKey) (*billingdomain.Preview, bool) {
	preview, ok := c.entries.Get(key.String())
	if !ok {
		return nil, false
	}
	return &preview, true
}

func (c *memoryPreviewCache) Set(_ context.Context, key PreviewKey, preview *billingdomain.Preview, ttl time.Duration) {
	if preview == nil || ttl <= 0 {
		return
	}
	c.entries.Set(key.String(), *preview, ttl)
}

type redisPreviewCache struct {
	client *redis.Client
	log    *zap.Logger
}

func NewRedisPreviewCache(client *redis.Client, log *zap.Logger) PreviewCache {
	return &redisPreviewCache{client: client, log: log.Named("cache.preview")}
}

// Get treats every redis failure as a miss.
func (c *redisPreviewCache) Get(ctx context.Context, key PreviewKey) (*billingdomain.Preview, bool) {
	raw, err := c.client.Get(ctx, previewKeyPrefix+key.String()).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("preview cache read failed", zap.Error(err))
		}
		return nil, false
	}

	var preview billingdomain.Preview
	if err := json.Unmarshal(raw, &preview); err != nil {
		c.log.Warn("preview cache entry corrupt", zap.String("key", key.String()), zap.Error(err))
		return nil, false
	}
	return &preview, true
}

func (c *redisPreviewCache) Set(ctx context.Context, key PreviewKey, preview *billingdomain.Preview, ttl time.Duration) {
	if preview == nil || ttl <= 0 {
		return
	}
	raw, err := json.Marshal(preview)
	if err != nil {
		c.log.Warn("preview cache encode failed", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, previewKeyPrefix+key.String(), raw, ttl).Err(); err != nil {
		c.log.Warn("preview cache write failed", zap.Error(err))
	}
}

func cacheKey(parts ...string) string {
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		values = append(values, strings.ToLower(trimmed))
	}
	return strings.Join(values, "|")
}
