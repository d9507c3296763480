package rollup

import "time"

// Config controls rollup cadence and batch sizes.
type Config struct {
	PollInterval time.Duration
	RunTimeout   time.Duration
	UserTimeout  time.Duration
	BatchSize    int
}

func DefaultConfig() Config {
	return Config{
		PollInterval: time.Hour,
		RunTimeout:   5 * time.Minute,
		UserTimeout:  30 * time.Second,
		BatchSize:    100,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.PollInterval <= 0 {
		c.PollInterval = defaults.PollInterval
	}
	if c.RunTimeout <= 0 {
		c.RunTimeout = defaults.RunTimeout
	}
	if c.UserTimeout <= 0 {
		c.UserTimeout = defaults.UserTimeout
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaults.BatchSize
	}
	return c
}
