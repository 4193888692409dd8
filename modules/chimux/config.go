package chimux

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// ChiMuxConfig configures CORS, request handling and the base path of the
// router.
//
// Example YAML configuration:
//
//	chimux:
//	  allowed_origins: ["https://example.com"]
//	  allow_credentials: true
//	  max_age: 3600
//	  timeout: 30s
//	  basepath: /site
type ChiMuxConfig struct {
	// AllowedOrigins lists origins allowed in CORS requests. "*" allows any.
	AllowedOrigins []string `yaml:"allowed_origins" toml:"allowed_origins" default:"*" env:"ALLOWED_ORIGINS"`

	AllowedMethods []string `yaml:"allowed_methods" toml:"allowed_methods" default:"GET,POST,PATCH,DELETE,OPTIONS" env:"ALLOWED_METHODS"`

	AllowedHeaders []string `yaml:"allowed_headers" toml:"allowed_headers" default:"Origin,Accept,Content-Type,X-Requested-With" env:"ALLOWED_HEADERS"`

	// AllowCredentials must be set for browsers to send the session cookie
	// on cross-origin requests.
	AllowCredentials bool `yaml:"allow_credentials" toml:"allow_credentials" env:"ALLOW_CREDENTIALS"`

	// MaxAge is the preflight cache lifetime in seconds.
	MaxAge int `yaml:"max_age" toml:"max_age" default:"300" env:"MAX_AGE"`

	// Timeout bounds request handling. Zero disables it.
	Timeout time.Duration `yaml:"timeout" toml:"timeout" default:"60s" env:"TIMEOUT"`

	// BasePath mounts every route under a prefix, e.g. "/site".
	BasePath string `yaml:"basepath" toml:"basepath" env:"BASE_PATH"`

	// RequestLogging logs one line per request at info level.
	RequestLogging bool `yaml:"request_logging" toml:"request_logging" default:"true" env:"REQUEST_LOGGING"`
}

// Validate normalizes the base path. Credentials cannot be combined with
// the "*" origin.
func (c *ChiMuxConfig) Validate() error {
	if c.MaxAge < 0 {
		return fmt.Errorf("%w: max_age must not be negative", ErrInvalidConfig)
	}
	if c.AllowCredentials && slices.Contains(c.AllowedOrigins, "*") {
		return fmt.Errorf("%w: allow_credentials requires explicit allowed_origins, not \"*\"", ErrInvalidConfig)
	}
	if c.BasePath == "" {
		return nil
	}
	if !strings.HasPrefix(c.BasePath, "/") {
		return fmt.Errorf("%w: basepath %q must start with /", ErrInvalidConfig, c.BasePath)
	}
	c.BasePath = strings.TrimSuffix(c.BasePath, "/")
	return nil
}

// allowOrigin returns the Access-Control-Allow-Origin value for origin:
// the origin itself when listed, "*" when only the wildcard matches.
func (c *ChiMuxConfig) allowOrigin(origin string) (string, bool) {
	if slices.Contains(c.AllowedOrigins, origin) {
		return origin, true
	}
	if slices.Contains(c.AllowedOrigins, "*") {
		return "*", true
	}
	return "", false
}
