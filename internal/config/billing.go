package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// BillingConfig holds the tunable billing-cycle parameters.
type BillingConfig struct {
	// DebtHorizonDays is how far ahead of today an unpaid invoice still
	// counts toward the displayed debt figure.
	DebtHorizonDays int `mapstructure:"debtHorizonDays"`
	// GeneratorSchedule is a cron expression for the billing-cycle run.
	// Empty means the interval ticker is used instead.
	GeneratorSchedule string `mapstructure:"generatorSchedule"`
	// GeneratorTimeZone is the IANA zone the cron schedule is evaluated in.
	GeneratorTimeZone string `mapstructure:"generatorTimeZone"`
}

func DefaultBillingConfig() BillingConfig {
	return BillingConfig{
		DebtHorizonDays:   15,
		GeneratorSchedule: "",
		GeneratorTimeZone: "America/Santo_Domingo",
	}
}

// BillingConfigHolder serves the current billing config and hot-reloads it
// when the underlying file changes.
type BillingConfigHolder struct {
	current atomic.Value // holds BillingConfig
}

func NewBillingConfigHolder() (*BillingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("billing")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/valdesk/config")
	v.AddConfigPath("/etc/valdesk")
	v.AddConfigPath(".")

	v.SetEnvPrefix("VALDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultBillingConfig()
	v.SetDefault("billing.debtHorizonDays", defaults.DebtHorizonDays)
	v.SetDefault("billing.generatorSchedule", defaults.GeneratorSchedule)
	v.SetDefault("billing.generatorTimeZone", defaults.GeneratorTimeZone)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg BillingConfig
	if err := v.UnmarshalKey("billing", &cfg); err != nil {
		return nil, err
	}
	if err := validateBillingConfig(cfg); err != nil {
		return nil, err
	}

	holder := &BillingConfigHolder{}
	holder.current.Store(cfg)

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
	if v := h.current.Load(); v != nil {
		return v.(BillingConfig)
	}
	return DefaultBillingConfig()
}

// StaticBillingConfigHolder returns a holder pinned to cfg, bypassing the
// file watcher. Used by tests and one-shot tools.
func StaticBillingConfigHolder(cfg BillingConfig) *BillingConfigHolder {
	holder := &BillingConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func validateBillingConfig(cfg BillingConfig) error {
	if cfg.DebtHorizonDays <= 0 {
		return errors.New("billing.debtHorizonDays must be positive")
	}
	return nil
}
