package database

import (
	"fmt"
	"time"
)

// Config is the database section. Each named connection becomes a Service;
// Default names the one published as "database.service".
type Config struct {
	Connections map[string]ConnectionConfig `json:"connections" yaml:"connections" toml:"connections"`
	Default     string                      `json:"default" yaml:"default" toml:"default" env:"DEFAULT" default:"default"`
}

type ConnectionConfig struct {
	Driver                string        `json:"driver" yaml:"driver" toml:"driver"`
	DSN                   string        `json:"dsn" yaml:"dsn" toml:"dsn"`
	MaxOpenConnections    int           `json:"max_open_connections" yaml:"max_open_connections" toml:"max_open_connections"`
	MaxIdleConnections    int           `json:"max_idle_connections" yaml:"max_idle_connections" toml:"max_idle_connections"`
	ConnectionMaxLifetime time.Duration `json:"connection_max_lifetime" yaml:"connection_max_lifetime" toml:"connection_max_lifetime"`
	ConnectionMaxIdleTime time.Duration `json:"connection_max_idle_time" yaml:"connection_max_idle_time" toml:"connection_max_idle_time"`
	// Pragmas are applied to every pooled sqlite connection, e.g.
	// "journal_mode=WAL".
	Pragmas []string `json:"pragmas" yaml:"pragmas" toml:"pragmas"`
}

func (c *Config) Validate() error {
	for name, conn := range c.Connections {
		if conn.Driver == "" {
			conn.Driver = "sqlite"
		}
		if conn.DSN == "" {
			return fmt.Errorf("%w: %s", ErrMissingDSN, name)
		}
		if conn.Driver == "sqlite" && conn.Pragmas == nil {
			conn.Pragmas = []string{"journal_mode=WAL", "busy_timeout=5000", "foreign_keys=ON"}
		}
		c.Connections[name] = conn
	}
	return nil
}
