package scheduler

import (
	"time"
)

// Config controls scheduler cadence, batch sizes and retry behavior.
type Config struct {
	RunInterval      time.Duration
	JobTimeout       time.Duration
	BatchSize        int
	MaxRunAttempts   int
	RetryDelay       time.Duration
	RunLockTTL       time.Duration
	// EnabledJobs restricts RunOnce to the named jobs. Empty means all.
	EnabledJobs []string
}

func DefaultConfig() Config {
	return Config{
		RunInterval:    time.Minute,
		JobTimeout:     30 * time.Second,
		BatchSize:      50,
		MaxRunAttempts: 3,
		RetryDelay:     10 * time.Second,
		RunLockTTL:     2 * time.Minute,
	}
}

func ProvideConfig() Config {
	return DefaultConfig()
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaults.BatchSize
	}
	if c.MaxRunAttempts <= 0 {
		c.MaxRunAttempts = defaults.MaxRunAttempts
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = defaults.RetryDelay
	}
	if c.RunLockTTL <= 0 {
		c.RunLockTTL = defaults.RunLockTTL
	}
	return c
}

func (c Config) isJobEnabled(name string) bool {
	if len(c.EnabledJobs) == 0 {
		return true
	}
	for _, job := range c.EnabledJobs {
		if job == name {
			return true
		}
	}
	return false
}
