package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// BillingConfig holds engine tunables that may change without a restart.
type BillingConfig struct {
	CompareEnabled  bool          `mapstructure:"compareEnabled"`
	CurrencySymbol  string        `mapstructure:"currencySymbol"`
	PreviewCacheTTL time.Duration `mapstructure:"previewCacheTTL"`
	WarmupSchedule  string        `mapstructure:"warmupSchedule"`
	WarmupTimeout   time.Duration `mapstructure:"warmupTimeout"`
}

func DefaultBillingConfig() BillingConfig {
	return BillingConfig{
		CompareEnabled:  true,
		CurrencySymbol:  "$",
		PreviewCacheTTL: 5 * time.Minute,
		WarmupSchedule:  "0 3 1 * *", // 03:00 on the first of each month
		WarmupTimeout:   10 * time.Minute,
	}
}

type BillingConfigHolder struct {
	current atomic.Value // holds BillingConfig
}

// NewStaticBillingConfigHolder returns a holder that never reloads.
func NewStaticBillingConfigHolder(cfg BillingConfig) *BillingConfigHolder {
	holder := &BillingConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewBillingConfigHolder() (*BillingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("billing")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/tidybill/config")
	v.AddConfigPath("/etc/tidybill")
	v.AddConfigPath(".")

	v.SetEnvPrefix("TIDYBILL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultBillingConfig()
	v.SetDefault("billing.compareEnabled", defaults.CompareEnabled)
	v.SetDefault("billing.currencySymbol", defaults.CurrencySymbol)
	v.SetDefault("billing.previewCacheTTL", defaults.PreviewCacheTTL)
	v.SetDefault("billing.warmupSchedule", defaults.WarmupSchedule)
	v.SetDefault("billing.warmupTimeout", defaults.WarmupTimeout)

	watch := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		watch = false
	}

	var cfg BillingConfig
	if err := v.UnmarshalKey("billing", &cfg); err != nil {
		return nil, err
	}
	if err := validateBillingConfig(cfg); err != nil {
		return nil, err
	}

	holder := NewStaticBillingConfigHolder(cfg)
	if !watch {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated BillingConfig
		if err := v.UnmarshalKey("billing", &updated); err != nil {
			log.Printf("[billing-config] reload failed: %v", err)
			return
		}
		if err := validateBillingConfig(updated); err != nil {
			log.Printf("[billing-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[billing-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *BillingConfigHolder) Get() BillingConfig {
	if h == nil {
		return DefaultBillingConfig()
	}
	cfg, ok := h.current.Load().(BillingConfig)
	if !ok {
		return DefaultBillingConfig()
	}
	return cfg
}

func validateBillingConfig(cfg BillingConfig) error {
	if strings.TrimSpace(cfg.CurrencySymbol) == "" {
		return errors.New("billing.currencySymbol cannot be empty")
	}
	if cfg.PreviewCacheTTL < 0 {
		return errors.New("billing.previewCacheTTL cannot be negative")
	}
	if cfg.WarmupTimeout <= 0 {
		return errors.New("billing.warmupTimeout must be positive")
	}
	if _, err := cron.ParseStandard(cfg.WarmupSchedule); err != nil {
		return errors.New("billing.warmupSchedule is not a valid cron spec")
	}
	return nil
}
