package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/smallbiznis/tidybill/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPreviewLimiter(t *testing.T) {
	l, err := NewPreviewLimiter(config.Config{}, nil)
	require.NoError(t, err)
	assert.Nil(t, l)
	assert.False(t, l.Enabled())

	res, err := l.Allow(context.Background(), "1001")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	_, err = NewPreviewLimiter(config.Config{RateLimitEnabled: true, RateLimitRate: 1, RateLimitBurst: 1}, nil)
	assert.Error(t, err)
}

func TestRetryAfterFor(t *testing.T) {
	assert.Equal(t, time.Duration(0), retryAfterFor(true, 0, 5))
	assert.Equal(t, 500*time.Millisecond, retryAfterFor(false, 0.5, 1))
	assert.Equal(t, 200*time.Millisecond, retryAfterFor(false, 0, 5))
	assert.Equal(t, time.Duration(0), retryAfterFor(false, 0, 0))
}

func TestDefaultBucketTTL(t *testing.T) {
	assert.Equal(t, 8*time.Second, defaultBucketTTL(5, 20))
	assert.Equal(t, time.Second, defaultBucketTTL(100, 1))
	assert.Equal(t, time.Second, defaultBucketTTL(0, 1))
}

func TestCasts(t *testing.T) {
	assert.Equal(t, int64(1), castToInt(int64(1)))
	assert.Equal(t, int64(3), castToInt(3.9))
	assert.Equal(t, int64(0), castToInt("1"))
	assert.Equal(t, 2.5, castToFloat("2.5"))
	assert.Equal(t, float64(4), castToFloat(int64(4)))
	assert.Equal(t, float64(0), castToFloat("nan-ish"))
}

func TestNilTokenBucketRejects(t *testing.T) {
	var b *TokenBucket
	res, err := b.Allow(context.Background(), "k", 1, 1)
	assert.Error(t, err)
	assert.False(t, res.Allowed)
}

func TestNilLockerRunsUnguarded(t *testing.T) {
	var l *Locker
	called := false
	ran, err := l.WithLock(context.Background(), "job", time.Minute, func(context.Context) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
	assert.True(t, called)

	boom := errors.New("boom")
	_, err = l.WithLock(context.Background(), "job", time.Minute, func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)

	assert.NoError(t, l.Release(context.Background(), "job", "token"))
	_, _, err = l.TryLock(context.Background(), "job", time.Minute)
	assert.Error(t, err)
}
