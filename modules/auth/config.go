package auth

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Config is the auth section.
type Config struct {
	Session           SessionConfig  `yaml:"session" toml:"session" env:"SESSION"`
	Password          PasswordConfig `yaml:"password" toml:"password" env:"PASSWORD"`
	AllowRegistration bool           `yaml:"allow_registration" toml:"allow_registration" env:"ALLOW_REGISTRATION" desc:"Expose POST /api/register."`
	MaxBodyBytes      int64          `yaml:"max_body_bytes" toml:"max_body_bytes" env:"MAX_BODY_BYTES" default:"65536"`
}

type SessionConfig struct {
	Store           string        `yaml:"store" toml:"store" env:"STORE" default:"memory" desc:"memory or redis"`
	RedisURL        string        `yaml:"redis_url" toml:"redis_url" env:"REDIS_URL" desc:"redis://host:port/db, used when store is redis"`
	KeyPrefix       string        `yaml:"key_prefix" toml:"key_prefix" env:"KEY_PREFIX" default:"folio:session:"`
	CookieName      string        `yaml:"cookie_name" toml:"cookie_name" env:"COOKIE_NAME" default:"folio.sid"`
	MaxAge          time.Duration `yaml:"max_age" toml:"max_age" env:"MAX_AGE" default:"24h"`
	Secure          bool          `yaml:"secure" toml:"secure" env:"SECURE"`
	SameSite        string        `yaml:"same_site" toml:"same_site" env:"SAME_SITE" default:"lax" desc:"strict, lax or none"`
	Domain          string        `yaml:"domain" toml:"domain" env:"DOMAIN"`
	Path            string        `yaml:"path" toml:"path" env:"PATH" default:"/"`
	CleanupSchedule string        `yaml:"cleanup_schedule" toml:"cleanup_schedule" env:"CLEANUP_SCHEDULE" default:"@daily"`
}

type PasswordConfig struct {
	Algorithm  string `yaml:"algorithm" toml:"algorithm" env:"ALGORITHM" default:"scrypt" desc:"scrypt or bcrypt"`
	MinLength  int    `yaml:"min_length" toml:"min_length" env:"MIN_LENGTH" default:"8"`
	BcryptCost int    `yaml:"bcrypt_cost" toml:"bcrypt_cost" env:"BCRYPT_COST" default:"12"`
}

func (c *Config) Validate() error {
	c.Session.Store = strings.ToLower(c.Session.Store)
	switch c.Session.Store {
	case "memory":
	case "redis":
		if c.Session.RedisURL == "" {
			return fmt.Errorf("%w: session.redis_url is required for the redis store", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedStore, c.Session.Store)
	}

	if c.Session.MaxAge <= 0 {
		return fmt.Errorf("%w: session.max_age must be positive", ErrInvalidConfig)
	}
	if c.Session.CookieName == "" {
		return fmt.Errorf("%w: session.cookie_name is empty", ErrInvalidConfig)
	}

	c.Password.Algorithm = strings.ToLower(c.Password.Algorithm)
	if c.Password.Algorithm != "scrypt" && c.Password.Algorithm != "bcrypt" {
		return fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, c.Password.Algorithm)
	}
	if c.Password.MinLength < 1 {
		return fmt.Errorf("%w: password.min_length must be at least 1", ErrInvalidConfig)
	}
	if c.Password.BcryptCost < 4 || c.Password.BcryptCost > 31 {
		return fmt.Errorf("%w: password.bcrypt_cost out of range", ErrInvalidConfig)
	}
	return nil
}

// sameSite maps the configured name to the cookie mode.
func (c SessionConfig) sameSite() http.SameSite {
	switch strings.ToLower(c.SameSite) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
