package logmasker

import (
	"fmt"
	"regexp"
	"strings"
)

// MaskStrategy is how a matched value is replaced.
type MaskStrategy string

const (
	MaskStrategyRedact  MaskStrategy = "redact"
	MaskStrategyPartial MaskStrategy = "partial"
	MaskStrategyHash    MaskStrategy = "hash"
	MaskStrategyNone    MaskStrategy = "none"
)

// Config is the logmasker section. Field names match log keys, and keys of
// map values, case-insensitively.
type Config struct {
	Enabled bool `yaml:"enabled" toml:"enabled" env:"ENABLED" default:"true"`

	Strategy string `yaml:"strategy" toml:"strategy" env:"STRATEGY" default:"redact" desc:"redact, partial or hash"`

	// Fields are masked with Strategy.
	Fields []string `yaml:"fields" toml:"fields" env:"FIELDS" default:"password,passwordhash,secret,token,session,sessionid,cookie,authorization"`

	// PartialFields always keep their first and last characters.
	PartialFields []string `yaml:"partial_fields" toml:"partial_fields" env:"PARTIAL_FIELDS" default:"email,ip"`

	// Patterns are matched against every string value regardless of key.
	Patterns []string `yaml:"patterns" toml:"patterns" env:"PATTERNS" default:"\\b[0-9a-f]{64}\\b"`

	ShowFirst int `yaml:"show_first" toml:"show_first" env:"SHOW_FIRST" default:"2"`
	ShowLast  int `yaml:"show_last" toml:"show_last" env:"SHOW_LAST" default:"2"`
}

// DefaultConfig returns the configuration used before the config section
// is loaded.
func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		Strategy:      string(MaskStrategyRedact),
		Fields:        []string{"password", "passwordhash", "secret", "token", "session", "sessionid", "cookie", "authorization"},
		PartialFields: []string{"email", "ip"},
		Patterns:      []string{`\b[0-9a-f]{64}\b`},
		ShowFirst:     2,
		ShowLast:      2,
	}
}

func (c *Config) Validate() error {
	c.Strategy = strings.ToLower(c.Strategy)
	switch MaskStrategy(c.Strategy) {
	case MaskStrategyRedact, MaskStrategyPartial, MaskStrategyHash, MaskStrategyNone:
	default:
		return fmt.Errorf("%w: strategy %q", ErrInvalidConfig, c.Strategy)
	}
	if c.ShowFirst < 0 || c.ShowLast < 0 {
		return fmt.Errorf("%w: show_first and show_last must not be negative", ErrInvalidConfig)
	}
	for _, p := range c.Patterns {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("%w: pattern %q: %w", ErrInvalidConfig, p, err)
		}
	}
	return nil
}
