package scheduler

import (
	"fmt"
	"time"
)

// Config is the scheduler section.
type Config struct {
	Timezone        string        `yaml:"timezone" toml:"timezone" env:"TIMEZONE" default:"Local" desc:"IANA zone used to evaluate cron specs"`
	JobTimeout      time.Duration `yaml:"job_timeout" toml:"job_timeout" env:"JOB_TIMEOUT" default:"5m" desc:"Deadline for a single run"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" toml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" default:"30s"`
	HistorySize     int           `yaml:"history_size" toml:"history_size" env:"HISTORY_SIZE" default:"20" desc:"Executions kept per job"`
}

func (c *Config) Validate() error {
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("%w: timezone %q: %w", ErrInvalidConfig, c.Timezone, err)
	}
	if c.JobTimeout < 0 {
		return fmt.Errorf("%w: job_timeout must not be negative", ErrInvalidConfig)
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 30 * time.Second
	}
	if c.HistorySize < 1 {
		c.HistorySize = 1
	}
	return nil
}

func (c *Config) location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
