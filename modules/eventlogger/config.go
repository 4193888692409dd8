package eventlogger

import (
	"fmt"
	"strings"
	"time"
)

// Config is the eventlogger section.
type Config struct {
	Enabled bool `yaml:"enabled" toml:"enabled" env:"ENABLED" default:"true" desc:"Log every application event"`

	// Level is the minimum event level written.
	Level string `yaml:"level" toml:"level" env:"LEVEL" default:"info" desc:"debug, info, warn or error"`

	// Output selects where entries go: the application logger, stdout or a file.
	Output string `yaml:"output" toml:"output" env:"OUTPUT" default:"logger" desc:"logger, console or file"`
	Format string `yaml:"format" toml:"format" env:"FORMAT" default:"text" desc:"text or json, for console and file output"`
	File   string `yaml:"file" toml:"file" env:"FILE" desc:"Path used by the file output"`

	// EventTypes restricts logging to the listed types. Empty logs everything.
	EventTypes []string `yaml:"event_types" toml:"event_types" env:"EVENT_TYPES"`

	// InfoTypes raises the listed types to info regardless of their default level.
	InfoTypes []string `yaml:"info_types" toml:"info_types" env:"INFO_TYPES"`

	BufferSize   int           `yaml:"buffer_size" toml:"buffer_size" env:"BUFFER_SIZE" default:"256"`
	DrainTimeout time.Duration `yaml:"drain_timeout" toml:"drain_timeout" env:"DRAIN_TIMEOUT" default:"2s" desc:"How long Stop waits for queued events"`
}

func (c *Config) Validate() error {
	c.Level = strings.ToLower(c.Level)
	if _, ok := levels[c.Level]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Level)
	}

	c.Format = strings.ToLower(c.Format)
	if c.Format != "text" && c.Format != "json" {
		return fmt.Errorf("%w: %q", ErrInvalidFormat, c.Format)
	}

	c.Output = strings.ToLower(c.Output)
	switch c.Output {
	case "logger", "console":
	case "file":
		if c.File == "" {
			return ErrMissingFilePath
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidOutputType, c.Output)
	}

	if c.BufferSize < 1 {
		c.BufferSize = 1
	}
	return nil
}
