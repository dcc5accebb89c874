package scheduler

import (
	"time"

	"github.com/smallbiznis/tidybill/internal/config"
)

// Config controls the preview warm-up job.
type Config struct {
	Schedule  string
	Timeout   time.Duration
	BatchSize int
	LockTTL   time.Duration
	CacheTTL  time.Duration
}

func DefaultConfig() Config {
	billing := config.DefaultBillingConfig()
	return Config{
		Schedule:  billing.WarmupSchedule,
		Timeout:   billing.WarmupTimeout,
		BatchSize: 100,
		LockTTL:   billing.WarmupTimeout + time.Minute,
		CacheTTL:  billing.PreviewCacheTTL,
	}
}

// ProvideConfig reads the warm-up tunables from the billing config.
func ProvideConfig(holder *config.BillingConfigHolder) Config {
	billing := holder.Get()
	return Config{
		Schedule: billing.WarmupSchedule,
		Timeout:  billing.WarmupTimeout,
		CacheTTL: billing.PreviewCacheTTL,
	}.withDefaults()
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.Schedule == "" {
		c.Schedule = defaults.Schedule
	}
	if c.Timeout <= 0 {
		c.Timeout = defaults.Timeout
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaults.BatchSize
	}
	if c.LockTTL <= 0 {
		c.LockTTL = c.Timeout + time.Minute
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = defaults.CacheTTL
	}
	return c
}
