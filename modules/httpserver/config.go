package httpserver

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// HTTPServerConfig is the httpserver section.
type HTTPServerConfig struct {
	Host string `yaml:"host" toml:"host" default:"0.0.0.0" env:"HOST"`

	// Addr on the module reports the bound address.
	Port int `yaml:"port" toml:"port" default:"5000" env:"PORT"`

	ReadTimeout     time.Duration `yaml:"read_timeout" toml:"read_timeout" default:"15s" env:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" toml:"write_timeout" default:"15s" env:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" toml:"idle_timeout" default:"60s" env:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" toml:"shutdown_timeout" default:"30s" env:"SHUTDOWN_TIMEOUT"`

	TLS TLSConfig `yaml:"tls" toml:"tls" env:"TLS"`
}

// TLSConfig enables HTTPS from certificate files or, for local
// development, a generated self-signed certificate.
type TLSConfig struct {
	Enabled      bool     `yaml:"enabled" toml:"enabled" env:"ENABLED"`
	CertFile     string   `yaml:"cert_file" toml:"cert_file" env:"CERT_FILE"`
	KeyFile      string   `yaml:"key_file" toml:"key_file" env:"KEY_FILE"`
	AutoGenerate bool     `yaml:"auto_generate" toml:"auto_generate" env:"AUTO_GENERATE"`
	Domains      []string `yaml:"domains" toml:"domains" env:"DOMAINS"`
}

func (c *HTTPServerConfig) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d", ErrInvalidConfig, c.Port)
	}
	if !c.TLS.Enabled {
		return nil
	}
	if c.TLS.AutoGenerate {
		if len(c.TLS.Domains) == 0 {
			c.TLS.Domains = []string{"localhost"}
		}
		return nil
	}
	if c.TLS.CertFile == "" || c.TLS.KeyFile == "" {
		return fmt.Errorf("%w: TLS is enabled but cert_file or key_file is missing", ErrInvalidConfig)
	}
	return nil
}

// Address returns host:port.
func (c *HTTPServerConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
